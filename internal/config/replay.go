package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// ReplayConfig holds configuration for loading a JSONL capture into storage.
type ReplayConfig struct {
	InputDir  string
	BatchSize int
	Storage   StorageConfig
	LogLevel  string
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	defaults := map[string]any{"batch-size": 1000}
	for k, val := range storageDefaults {
		defaults[k] = val
	}

	v, err := newViper(cfgFile, flags, defaults)
	if err != nil {
		return ReplayConfig{}, err
	}

	storage, err := loadStorage(v)
	if err != nil {
		return ReplayConfig{}, err
	}

	cfg := ReplayConfig{
		InputDir:  v.GetString("in-dir"),
		BatchSize: v.GetInt("batch-size"),
		Storage:   storage,
		LogLevel:  v.GetString("log-level"),
	}
	if cfg.InputDir == "" {
		return ReplayConfig{}, fmt.Errorf("in-dir is required")
	}
	if cfg.BatchSize <= 0 {
		return ReplayConfig{}, fmt.Errorf("batch-size must be greater than zero")
	}
	if storage.Backend == "jsonl" && storage.OutDir == cfg.InputDir {
		return ReplayConfig{}, fmt.Errorf("replay target out-dir must differ from in-dir")
	}
	return cfg, nil
}
