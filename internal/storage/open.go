package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"

	"solanaScope/internal/storage/clickhouse"
	"solanaScope/internal/storage/postgres"
)

const (
	BackendClickHouse = "clickhouse"
	BackendPostgres   = "postgres"
	BackendJSONL      = "jsonl"
)

var (
	_ Sink = (*clickhouse.Store)(nil)
	_ Sink = (*postgres.Store)(nil)
	_ Sink = (*JSONLStore)(nil)
)

// Config selects and configures a backend.
type Config struct {
	Backend         string
	ClickHouse      clickhouse.Config
	PostgresDSN     string
	OutDir          string
	ConnectAttempts uint
	ConnectDelay    time.Duration
}

// Open connects to the configured backend, retrying the connection up to
// ConnectAttempts times.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Sink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ConnectAttempts == 0 {
		cfg.ConnectAttempts = 1
	}
	if cfg.ConnectDelay <= 0 {
		cfg.ConnectDelay = time.Second
	}

	var sink Sink
	err := retry.Do(
		func() error {
			var err error
			sink, err = open(ctx, cfg)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(cfg.ConnectAttempts),
		retry.Delay(cfg.ConnectDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("storage connect failed", zap.String("backend", cfg.Backend), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Backend, err)
	}
	logger.Info("storage ready", zap.String("backend", cfg.Backend))
	return sink, nil
}

func open(ctx context.Context, cfg Config) (Sink, error) {
	switch cfg.Backend {
	case BackendClickHouse:
		return clickhouse.NewStore(ctx, cfg.ClickHouse)
	case BackendPostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	case BackendJSONL:
		return NewJSONLStore(cfg.OutDir)
	default:
		return nil, retry.Unrecoverable(fmt.Errorf("unsupported storage backend %q", cfg.Backend))
	}
}
