package warehouse

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SecretsNamespace - раздел файла секретов с параметрами Snowflake
const SecretsNamespace = "snowflake"

// Credentials - набор учетных данных из локального хранилища секретов.
// Пример secrets.yaml:
//
//	snowflake:
//	  account: xy12345.eu-central-1
//	  user: analyst
//	  password: ...
//	  warehouse: COMPUTE_WH
//	  role: ANALYST
//	  database: DEMO_DB
type Credentials struct {
	Account       string `yaml:"account"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Authenticator string `yaml:"authenticator"` // snowflake (по умолчанию) / externalbrowser / oauth
	Token         string `yaml:"token"`         // для oauth
	Warehouse     string `yaml:"warehouse"`
	Role          string `yaml:"role"`
	Database      string `yaml:"database"`
	Schema        string `yaml:"schema"`
}

// LoadSecrets читает раздел snowflake из YAML файла секретов
func LoadSecrets(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("secrets: read %q: %w", path, err)
	}

	var bundle map[string]Credentials
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return Credentials{}, fmt.Errorf("secrets: parse %q: %w", path, err)
	}

	creds, ok := bundle[SecretsNamespace]
	if !ok {
		return Credentials{}, fmt.Errorf("secrets: %q has no %q section", path, SecretsNamespace)
	}
	if creds.Account == "" {
		return Credentials{}, fmt.Errorf("secrets: %s.account is required", SecretsNamespace)
	}
	return creds, nil
}
