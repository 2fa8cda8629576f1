package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	sf "github.com/snowflakedb/gosnowflake"

	"github.com/ruslano69/penguinserve/pkg/cache"
)

// connectionKey - ключ подключения в процессном кеше
const connectionKey = "warehouse:connection"

// OpenFunc открывает подключение по готовой конфигурации
type OpenFunc func(ctx context.Context, cfg *sf.Config) (*sql.DB, error)

// Open открывает подключение через gosnowflake и проверяет его Ping-ом,
// чтобы ошибки учетных данных и сети проявились сразу
func Open(ctx context.Context, cfg *sf.Config) (*sql.DB, error) {
	connector := sf.NewConnector(sf.SnowflakeDriver{}, *cfg)
	db := sql.OpenDB(connector)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to snowflake account %q: %w", cfg.Account, err)
	}
	return db, nil
}

// Provider - Connection Provider: одно долгоживущее подключение на процесс.
// Подключение кешируется без срока жизни; ошибки не кешируются;
// переподключения нет - обрыв проявится ошибкой следующего запроса.
type Provider struct {
	settings Settings
	registry *Registry
	store    *cache.Store
	open     OpenFunc
}

// ProviderOption - опция конструктора Provider
type ProviderOption func(*Provider)

// WithRegistry подменяет реестр стратегий
func WithRegistry(r *Registry) ProviderOption {
	return func(p *Provider) {
		p.registry = r
	}
}

// WithOpen подменяет открытие подключения (для тестов)
func WithOpen(open OpenFunc) ProviderOption {
	return func(p *Provider) {
		p.open = open
	}
}

// NewProvider создает Provider поверх общего кеша
func NewProvider(settings Settings, store *cache.Store, opts ...ProviderOption) *Provider {
	p := &Provider{
		settings: settings,
		registry: DefaultRegistry(),
		store:    store,
		open:     Open,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Settings возвращает параметры провайдера
func (p *Provider) Settings() Settings {
	return p.settings
}

// Strategy возвращает стратегию, выбранную для текущего режима
func (p *Provider) Strategy() (Strategy, error) {
	return p.registry.Resolve(p.settings.Mode)
}

// DB возвращает кешированное подключение или устанавливает новое
func (p *Provider) DB(ctx context.Context) (*sql.DB, error) {
	return cache.GetOrCompute(ctx, p.store, connectionKey, 0, p.connect)
}

// Close закрывает подключение, если оно было установлено
func (p *Provider) Close() error {
	db, ok := p.cached()
	if !ok {
		return nil
	}
	p.store.Invalidate(connectionKey)
	return db.Close()
}

// Ping проверяет уже установленное подключение, не создавая нового
func (p *Provider) Ping(ctx context.Context) error {
	db, ok := p.cached()
	if !ok {
		return fmt.Errorf("warehouse: not connected")
	}
	return db.PingContext(ctx)
}

func (p *Provider) cached() (*sql.DB, bool) {
	db, ok := cache.Peek[*sql.DB](p.store, connectionKey)
	if !ok || db == nil {
		return nil, false
	}
	return db, true
}

func (p *Provider) connect(ctx context.Context) (*sql.DB, error) {
	strategy, err := p.Strategy()
	if err != nil {
		return nil, err
	}

	cfg, err := strategy.Config(ctx, p.settings)
	if err != nil {
		return nil, fmt.Errorf("%s credentials: %w", strategy.Name(), err)
	}

	db, err := p.open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("mode", string(p.settings.Mode)).
		Str("strategy", strategy.Name()).
		Str("account", cfg.Account).
		Dur("timeout", p.settings.Timeout).
		Msg("warehouse connection established")
	return db, nil
}
