package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Mirror - разделяемое хранилище снапшотов между репликами сервиса.
// Mirror не заменяет Store: он только позволяет новой реплике не ходить
// в хранилище, пока снапшот другой реплики еще жив.
type Mirror interface {
	// Fetch возвращает снапшот; ok=false если ключа нет или он истек
	Fetch(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Save сохраняет снапшот с временем жизни ttl
	Save(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Drop удаляет снапшот
	Drop(ctx context.Context, key string) error
}

// RedisConfig - параметры подключения к Redis
type RedisConfig struct {
	Addr     string `yaml:"addr"`     // host:port; пусто = mirror отключен
	Password string `yaml:"password"` // пусто = без авторизации
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"` // префикс ключей, по умолчанию "penguinserve:"
}

// RedisMirror хранит снапшоты в Redis как SET key <zstd> EX ttl
type RedisMirror struct {
	client *redis.Client
	prefix string
}

// NewRedisMirror создает mirror поверх уже настроенного клиента
func NewRedisMirror(client *redis.Client, prefix string) *RedisMirror {
	if prefix == "" {
		prefix = "penguinserve:"
	}
	return &RedisMirror{client: client, prefix: prefix}
}

// DialRedisMirror подключается к Redis и проверяет соединение
func DialRedisMirror(ctx context.Context, cfg RedisConfig) (*RedisMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: redis ping %s: %w", cfg.Addr, err)
	}
	return NewRedisMirror(client, cfg.Prefix), nil
}

func (m *RedisMirror) Fetch(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := m.client.Get(ctx, m.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		mirrorErrors.WithLabelValues("fetch").Inc()
		return nil, false, fmt.Errorf("redis GET failed: %w", err)
	}
	return data, true, nil
}

func (m *RedisMirror) Save(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := m.client.Set(ctx, m.prefix+key, data, ttl).Err(); err != nil {
		mirrorErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("redis SET failed: %w", err)
	}
	return nil
}

func (m *RedisMirror) Drop(ctx context.Context, key string) error {
	if err := m.client.Del(ctx, m.prefix+key).Err(); err != nil {
		mirrorErrors.WithLabelValues("drop").Inc()
		return fmt.Errorf("redis DEL failed: %w", err)
	}
	return nil
}

// Ping проверяет доступность Redis (для /readyz)
func (m *RedisMirror) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

// Close закрывает соединение с Redis
func (m *RedisMirror) Close() error {
	return m.client.Close()
}
