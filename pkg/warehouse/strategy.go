package warehouse

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	sf "github.com/snowflakedb/gosnowflake"
)

// Strategy - способ получения учетных данных для одного режима развертывания
type Strategy interface {
	// Name - короткое имя стратегии для логов и диагностики
	Name() string

	// Config строит конфигурацию gosnowflake из Settings
	Config(ctx context.Context, s Settings) (*sf.Config, error)
}

// StrategyConstructor создает новый экземпляр стратегии
type StrategyConstructor func() Strategy

// Registry сопоставляет режимы развертывания и стратегии.
// Нераспознанный режим получает стратегию fallback-режима.
type Registry struct {
	registry map[Mode]StrategyConstructor
	fallback Mode
	mu       sync.RWMutex
}

// NewRegistry создает пустой реестр с указанным fallback-режимом
func NewRegistry(fallback Mode) *Registry {
	return &Registry{
		registry: make(map[Mode]StrategyConstructor),
		fallback: fallback,
	}
}

// Register регистрирует стратегию для режима
func (r *Registry) Register(mode Mode, constructor StrategyConstructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registry[mode] = constructor
}

// Modes возвращает зарегистрированные режимы (отсортированы)
func (r *Registry) Modes() []Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modes := make([]Mode, 0, len(r.registry))
	for m := range r.registry {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}

// Resolve возвращает стратегию для режима; для нераспознанного - fallback
func (r *Registry) Resolve(mode Mode) (Strategy, error) {
	r.mu.RLock()
	constructor, ok := r.registry[mode]
	if !ok {
		constructor, ok = r.registry[r.fallback]
	}
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no connection strategy for mode %q (available: %v)", mode, r.Modes())
	}
	return constructor(), nil
}

// DefaultRegistry - AWS, DOCKER и LOCAL; все остальное - LOCAL
func DefaultRegistry() *Registry {
	r := NewRegistry(ModeLocal)
	r.Register(ModeAWS, func() Strategy {
		return &WorkloadIdentity{Preflight: AmbientIdentity}
	})
	r.Register(ModeDocker, func() Strategy {
		return &Environment{}
	})
	r.Register(ModeLocal, func() Strategy {
		return &SecretsFile{Load: LoadSecrets}
	})
	return r
}

// applyTimeouts задает таймаут логина и сетевых запросов
func applyTimeouts(cfg *sf.Config, s Settings) *sf.Config {
	cfg.LoginTimeout = s.Timeout
	cfg.RequestTimeout = s.Timeout
	return cfg
}

// ========== AWS ==========

// WorkloadIdentity - AWS App Runner: Snowflake WIF по роли инстанса,
// без пароля в конфигурации
type WorkloadIdentity struct {
	// Preflight проверяет, что ambient-учетные данные AWS доступны; nil - пропустить
	Preflight func(ctx context.Context, s Settings) error
}

func (w *WorkloadIdentity) Name() string { return "workload-identity" }

func (w *WorkloadIdentity) Config(ctx context.Context, s Settings) (*sf.Config, error) {
	if w.Preflight != nil {
		if err := w.Preflight(ctx, s); err != nil {
			return nil, err
		}
	}
	return applyTimeouts(&sf.Config{
		Account:                  s.Account,
		User:                     s.User,
		Role:                     s.Role,
		Warehouse:                s.Warehouse,
		Authenticator:            sf.AuthTypeWorkloadIdentityFederation,
		WorkloadIdentityProvider: "AWS",
	}, s), nil
}

// ========== DOCKER ==========

// Environment - контейнер: account/user/password/warehouse/role/database
// из переменных окружения. Пароль может быть PAT.
type Environment struct{}

func (e *Environment) Name() string { return "environment" }

func (e *Environment) Config(_ context.Context, s Settings) (*sf.Config, error) {
	return applyTimeouts(&sf.Config{
		Account:       s.Account,
		User:          s.User,
		Password:      s.Password,
		Warehouse:     s.Warehouse,
		Role:          s.Role,
		Database:      s.Database,
		Authenticator: sf.AuthTypeSnowflake,
	}, s), nil
}

// ========== LOCAL ==========

// SecretsFile - локальная разработка: раздел snowflake файла секретов
type SecretsFile struct {
	Load func(path string) (Credentials, error)
}

func (f *SecretsFile) Name() string { return "secrets-file" }

func (f *SecretsFile) Config(_ context.Context, s Settings) (*sf.Config, error) {
	creds, err := f.Load(s.SecretsFile)
	if err != nil {
		return nil, err
	}

	cfg := &sf.Config{
		Account:   creds.Account,
		User:      creds.User,
		Password:  creds.Password,
		Token:     creds.Token,
		Warehouse: creds.Warehouse,
		Role:      creds.Role,
		Database:  creds.Database,
		Schema:    creds.Schema,
	}

	switch strings.ToLower(creds.Authenticator) {
	case "", "snowflake":
		cfg.Authenticator = sf.AuthTypeSnowflake
	case "externalbrowser":
		cfg.Authenticator = sf.AuthTypeExternalBrowser
	case "oauth":
		cfg.Authenticator = sf.AuthTypeOAuth
	default:
		return nil, fmt.Errorf("secrets: unsupported authenticator %q", creds.Authenticator)
	}

	return applyTimeouts(cfg, s), nil
}
