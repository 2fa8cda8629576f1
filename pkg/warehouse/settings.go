package warehouse

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Mode - режим развертывания (DEPLOYMENT_ENV)
type Mode string

const (
	// ModeAWS - App Runner, workload identity без секретов в конфигурации
	ModeAWS Mode = "AWS"

	// ModeDocker - контейнер, учетные данные из переменных окружения
	ModeDocker Mode = "DOCKER"

	// ModeLocal - локальная разработка, учетные данные из secrets.yaml
	ModeLocal Mode = "LOCAL"
)

// Known сообщает, является ли режим одним из распознаваемых
func (m Mode) Known() bool {
	switch m {
	case ModeAWS, ModeDocker, ModeLocal:
		return true
	}
	return false
}

// ParseMode разбирает DEPLOYMENT_ENV. Пустое значение - LOCAL.
// Нераспознанное значение сохраняется как есть (для подписи в UI),
// стратегия подключения для него - LOCAL.
func ParseMode(s string) Mode {
	s = strings.TrimSpace(s)
	if s == "" {
		return ModeLocal
	}
	return Mode(s)
}

// Значения по умолчанию
const (
	DefaultTimeout     = 15 * time.Second
	DefaultWarehouse   = "COMPUTE_WH"
	DefaultDatabase    = "DEMO_DB"
	DefaultSecretsFile = ".secrets/secrets.yaml"
)

// Settings - параметры подключения, прочитанные из окружения
type Settings struct {
	Mode        Mode
	Timeout     time.Duration // SNOWFLAKE_CONNECTION_TIMEOUT, login + request
	Account     string        // SNOWFLAKE_ACCOUNT
	Warehouse   string        // SNOWFLAKE_WAREHOUSE
	Role        string        // SNOWFLAKE_ROLE
	User        string        // SNOWFLAKE_USER
	Password    string        // SNOWFLAKE_PASSWORD
	Database    string        // DEMO_DATABASE; в DOCKER-режиме передается в подключение
	SecretsFile string        // SNOWFLAKE_SECRETS_FILE, только LOCAL
}

// LookupFunc - источник переменных окружения (os.LookupEnv)
type LookupFunc func(key string) (string, bool)

// FromEnv читает Settings из окружения процесса
func FromEnv() (Settings, error) {
	return Load(os.LookupEnv)
}

// Load читает Settings через lookup
func Load(lookup LookupFunc) (Settings, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	s := Settings{
		Mode:        ParseMode(get("DEPLOYMENT_ENV", "")),
		Timeout:     DefaultTimeout,
		Account:     get("SNOWFLAKE_ACCOUNT", ""),
		Warehouse:   get("SNOWFLAKE_WAREHOUSE", DefaultWarehouse),
		Role:        get("SNOWFLAKE_ROLE", ""),
		User:        get("SNOWFLAKE_USER", ""),
		Password:    get("SNOWFLAKE_PASSWORD", ""),
		Database:    get("DEMO_DATABASE", DefaultDatabase),
		SecretsFile: get("SNOWFLAKE_SECRETS_FILE", DefaultSecretsFile),
	}

	if raw := get("SNOWFLAKE_CONNECTION_TIMEOUT", ""); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("SNOWFLAKE_CONNECTION_TIMEOUT: invalid integer %q", raw)
		}
		if secs <= 0 {
			return Settings{}, fmt.Errorf("SNOWFLAKE_CONNECTION_TIMEOUT: must be positive, got %d", secs)
		}
		s.Timeout = time.Duration(secs) * time.Second
	}

	return s, nil
}
