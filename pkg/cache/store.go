package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Producer - функция, вычисляющая значение при промахе кеша
type Producer[T any] func(ctx context.Context) (T, error)

// ProducerTTL вычисляет значение вместе с его временем жизни
type ProducerTTL[T any] func(ctx context.Context) (T, time.Duration, error)

// entry - запись кеша: значение, время создания и время жизни
type entry struct {
	value     any
	createdAt time.Time
	ttl       time.Duration
}

// expired сообщает, истекла ли запись к моменту now.
// ttl <= 0 означает бессрочную запись.
func (e *entry) expired(now time.Time) bool {
	if e.ttl <= 0 {
		return false
	}
	return !now.Before(e.createdAt.Add(e.ttl))
}

// Store - процессный кеш с ключами и временем жизни записей.
// Конкурентные промахи по одному ключу выполняют Producer один раз.
// Ошибки Producer не кешируются.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	group   singleflight.Group
	now     func() time.Time
}

// Option - опция конструктора Store
type Option func(*Store)

// WithClock подменяет источник времени (для тестов)
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New создает пустой кеш
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lookup возвращает живую запись по ключу
func (s *Store) lookup(key string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || e.expired(s.now()) {
		return nil, false
	}
	return e, true
}

func (s *Store) put(key string, value any, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &entry{value: value, createdAt: s.now(), ttl: ttl}
}

// Invalidate удаляет запись; следующий GetOrCompute вызовет Producer
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Clear удаляет все записи
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
}

// Len возвращает количество записей, включая истекшие, но еще не вытесненные
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// CreatedAt возвращает время создания живой записи
func (s *Store) CreatedAt(key string) (time.Time, bool) {
	e, ok := s.lookup(key)
	if !ok {
		return time.Time{}, false
	}
	return e.createdAt, true
}

// Peek возвращает живое значение без вызова Producer
func Peek[T any](s *Store, key string) (T, bool) {
	var zero T
	e, ok := s.lookup(key)
	if !ok {
		return zero, false
	}
	v, ok := e.value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// GetOrCompute возвращает значение по ключу или вычисляет его через produce
// и сохраняет на ttl. Пример:
//
//	db, err := cache.GetOrCompute(ctx, store, "warehouse:conn", 0, connect)
func GetOrCompute[T any](ctx context.Context, s *Store, key string, ttl time.Duration, produce Producer[T]) (T, error) {
	return GetOrComputeTTL(ctx, s, key, func(ctx context.Context) (T, time.Duration, error) {
		v, err := produce(ctx)
		return v, ttl, err
	})
}

// GetOrComputeTTL - как GetOrCompute, но время жизни записи возвращает сам
// produce (например, остаток TTL снапшота из общего кеша).
//
// produce выполняется один раз на ключ для всех ожидающих и не отменяется,
// когда уходит вызвавший его клиент: остальные получают результат, а
// значение попадает в кеш. Каждый вызов ждет не дольше своего ctx.
func GetOrComputeTTL[T any](ctx context.Context, s *Store, key string, produce ProducerTTL[T]) (T, error) {
	var zero T
	if e, ok := s.lookup(key); ok {
		if v, ok := e.value.(T); ok {
			cacheHits.WithLabelValues(key).Inc()
			return v, nil
		}
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		// другой вызов мог успеть заполнить запись, пока мы ждали
		if e, ok := s.lookup(key); ok {
			return e.value, nil
		}
		cacheMisses.WithLabelValues(key).Inc()
		value, ttl, err := runProducer(flightCtx, key, produce)
		if err != nil {
			cacheErrors.WithLabelValues(key).Inc()
			return nil, err
		}
		s.put(key, value, ttl)
		return value, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res = <-ch:
	}

	if res.Err != nil {
		return zero, res.Err
	}
	typed, ok := res.Val.(T)
	if !ok {
		return zero, fmt.Errorf("cache: key %q holds %T", key, res.Val)
	}
	return typed, nil
}

// runProducer превращает панику produce в ошибку: DoChan не возвращает
// панику вызывающему, а роняет процесс.
func runProducer[T any](ctx context.Context, key string, produce ProducerTTL[T]) (v T, ttl time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cache: producer for %q panicked: %v", key, r)
		}
	}()
	return produce(ctx)
}
