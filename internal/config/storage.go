package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// StorageConfig selects the storage backend.
type StorageConfig struct {
	Backend            string
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	PGDSN              string
	OutDir             string
	ConnectAttempts    uint
}

// MigrateConfig holds configuration for schema creation.
type MigrateConfig struct {
	Storage  StorageConfig
	LogLevel string
}

var storageDefaults = map[string]any{
	"storage":             "clickhouse",
	"clickhouse-addr":     "localhost:9000",
	"clickhouse-database": "indexer",
	"clickhouse-user":     "default",
	"out-dir":             "./data",
	"connect-attempts":    5,
	"log-level":           "info",
}

// LoadMigrate merges config file, environment variables, and flags into MigrateConfig.
func LoadMigrate(cfgFile string, flags *pflag.FlagSet) (MigrateConfig, error) {
	v, err := newViper(cfgFile, flags, storageDefaults)
	if err != nil {
		return MigrateConfig{}, err
	}

	storage, err := loadStorage(v)
	if err != nil {
		return MigrateConfig{}, err
	}
	return MigrateConfig{Storage: storage, LogLevel: v.GetString("log-level")}, nil
}

func loadStorage(v *viper.Viper) (StorageConfig, error) {
	cfg := StorageConfig{
		Backend:            strings.ToLower(strings.TrimSpace(v.GetString("storage"))),
		ClickHouseDatabase: v.GetString("clickhouse-database"),
		ClickHouseUser:     v.GetString("clickhouse-user"),
		ClickHousePassword: v.GetString("clickhouse-password"),
		PGDSN:              v.GetString("pg-dsn"),
		OutDir:             v.GetString("out-dir"),
		ConnectAttempts:    v.GetUint("connect-attempts"),
	}

	addr, err := NormalizeClickHouseAddr(v.GetString("clickhouse-addr"))
	if err != nil {
		return StorageConfig{}, err
	}
	cfg.ClickHouseAddr = addr

	return cfg, cfg.Validate()
}

// Validate checks that the selected backend has what it needs.
func (c StorageConfig) Validate() error {
	switch c.Backend {
	case "clickhouse":
		if c.ClickHouseAddr == "" {
			return fmt.Errorf("clickhouse-addr is required")
		}
	case "postgres":
		if c.PGDSN == "" {
			return fmt.Errorf("pg-dsn is required for postgres storage")
		}
	case "jsonl":
		if c.OutDir == "" {
			return fmt.Errorf("out-dir is required for jsonl storage")
		}
	default:
		return fmt.Errorf("unsupported storage %q (want clickhouse, postgres or jsonl)", c.Backend)
	}
	if c.ConnectAttempts == 0 {
		return fmt.Errorf("connect-attempts must be greater than zero")
	}
	return nil
}

// NormalizeClickHouseAddr accepts host:port or a URL and returns the host:port
// of the native protocol endpoint. A missing port defaults to 9000.
func NormalizeClickHouseAddr(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}

	host := input
	if strings.Contains(input, "://") {
		u, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("invalid clickhouse address %s: %w", input, err)
		}
		host = u.Host
	}
	if host == "" {
		return "", fmt.Errorf("invalid clickhouse address %s", input)
	}

	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "9000")
	}
	return host, nil
}
