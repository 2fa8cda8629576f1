package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ruslano69/penguinserve/pkg/cache"
	"github.com/ruslano69/penguinserve/pkg/penguins"
)

// ServeConfig - конфигурация penguinserve.
// Параметры Snowflake читаются только из окружения (warehouse.FromEnv).
type ServeConfig struct {
	Server ServerSection     `yaml:"server"`
	Cache  CacheSection      `yaml:"cache"`
	Redis  cache.RedisConfig `yaml:"redis"` // пустой addr - без общего кеша
}

// ServerSection - параметры HTTP сервера
type ServerSection struct {
	Name           string        `yaml:"name"`            // заголовок вкладки
	Port           int           `yaml:"port"`            // HTTP порт, по умолчанию 8080
	ReadTimeout    time.Duration `yaml:"read_timeout"`    // по умолчанию 10s
	WriteTimeout   time.Duration `yaml:"write_timeout"`   // по умолчанию 60s
	RequestTimeout time.Duration `yaml:"request_timeout"` // middleware.Timeout, по умолчанию 45s
}

// CacheSection - время жизни таблицы
type CacheSection struct {
	TableTTL time.Duration `yaml:"table_ttl"` // по умолчанию 5m
}

func defaultConfig() *ServeConfig {
	return &ServeConfig{
		Server: ServerSection{
			Name:           "Palmer Penguins",
			Port:           8080,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   60 * time.Second,
			RequestTimeout: 45 * time.Second,
		},
		Cache: CacheSection{TableTTL: penguins.DefaultTTL},
	}
}

// loadConfig читает YAML конфиг поверх значений по умолчанию.
// Пустой path - только значения по умолчанию и окружение.
func loadConfig(path string, lookup func(string) (string, bool)) (*ServeConfig, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("server.port: invalid port %d", cfg.Server.Port)
	}
	if cfg.Server.Name == "" {
		cfg.Server.Name = "Palmer Penguins"
	}
	if cfg.Cache.TableTTL <= 0 {
		return nil, fmt.Errorf("cache.table_ttl: must be positive, got %s", cfg.Cache.TableTTL)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return nil, fmt.Errorf("server.request_timeout: must be positive, got %s", cfg.Server.RequestTimeout)
	}

	return cfg, nil
}

// applyEnv - REDIS_ADDR / REDIS_PASSWORD / REDIS_DB перекрывают файл
func applyEnv(cfg *ServeConfig, lookup func(string) (string, bool)) error {
	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		cfg.Redis.Addr = v
	}
	if v, ok := lookup("REDIS_PASSWORD"); ok && v != "" {
		cfg.Redis.Password = v
	}
	if v, ok := lookup("REDIS_DB"); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil || db < 0 {
			return fmt.Errorf("REDIS_DB: invalid database index %q", v)
		}
		cfg.Redis.DB = db
	}
	return nil
}
