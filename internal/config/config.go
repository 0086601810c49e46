package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"solanaScope/internal/dex"
)

// Config holds configuration for the run command.
type Config struct {
	GeyserEndpoint string
	GeyserToken    string
	GeyserInsecure bool
	Accounts       []string
	Programs       []string
	IncludeFailed  bool

	Storage StorageConfig

	ChannelCapacity int
	BatchSize       int
	FlushInterval   time.Duration
	MaxBuffered     int
	BackoffInitial  time.Duration
	BackoffMax      time.Duration

	MetricsAddr string
	LogLevel    string
}

// Load merges config file, environment variables, and flags into Config and
// validates the result. Accounts and programs default to the built-in DEX set.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	defaults := map[string]any{
		"channel-capacity": 10000,
		"batch-size":       1000,
		"flush-interval":   5 * time.Second,
		"max-buffered":     50000,
		"backoff-initial":  time.Second,
		"backoff-max":      60 * time.Second,
		"metrics-addr":     ":9102",
	}
	for k, val := range storageDefaults {
		defaults[k] = val
	}

	v, err := newViper(cfgFile, flags, defaults)
	if err != nil {
		return Config{}, err
	}

	storage, err := loadStorage(v)
	if err != nil {
		return Config{}, err
	}

	accounts, err := dex.ParsePublicKeys(getStringSlice(v, "accounts"))
	if err != nil {
		return Config{}, fmt.Errorf("accounts: %w", err)
	}
	if len(accounts) == 0 {
		accounts = dex.DefaultProgramIDs()
	}
	programs, err := dex.ParsePublicKeys(getStringSlice(v, "programs"))
	if err != nil {
		return Config{}, fmt.Errorf("programs: %w", err)
	}
	if len(programs) == 0 {
		programs = dex.DefaultProgramIDs()
	}

	cfg := Config{
		GeyserEndpoint:  v.GetString("geyser-endpoint"),
		GeyserToken:     v.GetString("geyser-token"),
		GeyserInsecure:  v.GetBool("geyser-insecure"),
		Accounts:        accounts,
		Programs:        programs,
		IncludeFailed:   v.GetBool("include-failed"),
		Storage:         storage,
		ChannelCapacity: v.GetInt("channel-capacity"),
		BatchSize:       v.GetInt("batch-size"),
		FlushInterval:   v.GetDuration("flush-interval"),
		MaxBuffered:     v.GetInt("max-buffered"),
		BackoffInitial:  v.GetDuration("backoff-initial"),
		BackoffMax:      v.GetDuration("backoff-max"),
		MetricsAddr:     v.GetString("metrics-addr"),
		LogLevel:        v.GetString("log-level"),
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.GeyserEndpoint == "" {
		return fmt.Errorf("geyser-endpoint is required")
	}
	if c.ChannelCapacity <= 0 {
		return fmt.Errorf("channel-capacity must be greater than zero")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than zero")
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush-interval must be positive")
	}
	if c.MaxBuffered < 0 {
		return fmt.Errorf("max-buffered must not be negative")
	}
	if c.MaxBuffered > 0 && c.MaxBuffered < c.BatchSize {
		return fmt.Errorf("max-buffered (%d) must be 0 or at least batch-size (%d)", c.MaxBuffered, c.BatchSize)
	}
	if c.BackoffInitial <= 0 {
		return fmt.Errorf("backoff-initial must be positive")
	}
	if c.BackoffMax < c.BackoffInitial {
		return fmt.Errorf("backoff-max must be >= backoff-initial")
	}
	return nil
}
