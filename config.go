package sqlbind

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment overrides; "__" separates nesting levels,
// e.g. SQLBIND_DEFAULT__PASSWORD or SQLBIND_READ__REPLICA1__DSN.
const EnvPrefix = "SQLBIND_"

// ConnectionConfig describes one database endpoint.
type ConnectionConfig struct {
	// Adapter names the dialect ("pgsql", "mysql", "sqlite", "sqlsrv", ...).
	Adapter string `koanf:"adapter"`
	// Driver overrides the database/sql driver name.
	Driver string `koanf:"driver"`
	// DSN is passed to the driver verbatim when set.
	DSN string `koanf:"dsn"`
	// Params builds the DSN when DSN is empty: host, port, dbname,
	// unix_socket, path (sqlite) and driver-specific extras.
	Params       map[string]string `koanf:"params"`
	Username     string            `koanf:"username"`
	Password     string            `koanf:"password"`
	MaxOpenConns int               `koanf:"max_open_conns"`
	MaxParams    int               `koanf:"max_params"`
	MaxNameLen   int               `koanf:"max_name_len"`
}

// Config is the file/env configuration of a Locator.
type Config struct {
	Default ConnectionConfig            `koanf:"default"`
	Read    map[string]ConnectionConfig `koanf:"read"`
	Write   map[string]ConnectionConfig `koanf:"write"`
	// Profile attaches an active Profiler to every connection.
	Profile bool `koanf:"profile"`
}

// LoadConfig reads a YAML file (skipped when path is empty) and then applies
// SQLBIND_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// SQLBIND_DEFAULT__MAX_PARAMS -> default.max_params
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
