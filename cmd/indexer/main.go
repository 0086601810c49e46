package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"solanaScope/internal/config"
	"solanaScope/internal/dex"
	"solanaScope/internal/geyser"
	"solanaScope/internal/indexer"
	"solanaScope/internal/metrics"
	"solanaScope/internal/storage"
	"solanaScope/internal/storage/clickhouse"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Solana geyser stream indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Stream geyser updates into storage",
		RunE:  runIndexer,
	}

	runCmd.Flags().String("geyser-endpoint", "", "geyser gRPC endpoint (https://host[:port] or host:port)")
	runCmd.Flags().String("geyser-token", "", "geyser x-token")
	runCmd.Flags().Bool("geyser-insecure", false, "disable TLS to the geyser endpoint")
	runCmd.Flags().StringSlice("accounts", nil, "account public keys to stream (default: built-in DEX programs)")
	runCmd.Flags().StringSlice("programs", nil, "program ids whose transactions are streamed (default: built-in DEX programs)")
	runCmd.Flags().Bool("include-failed", false, "include transactions that failed")
	runCmd.Flags().Int("channel-capacity", 10000, "event channel capacity")
	runCmd.Flags().Int("batch-size", 1000, "rows per table that trigger a flush")
	runCmd.Flags().Duration("flush-interval", 5*time.Second, "periodic flush interval")
	runCmd.Flags().Int("max-buffered", 50000, "rows per table after which a failing flush stops consumption (0 disables)")
	runCmd.Flags().Duration("backoff-initial", time.Second, "initial reconnect delay")
	runCmd.Flags().Duration("backoff-max", 60*time.Second, "maximum reconnect delay")
	runCmd.Flags().String("metrics-addr", ":9102", "metrics listen address (empty disables)")
	addStorageFlags(runCmd)
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create storage tables",
		RunE:  runMigrate,
	}

	addStorageFlags(migrateCmd)
	migrateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd)

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Load a JSONL capture into storage",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("in-dir", "", "directory holding transactions/accounts/slots .jsonl files")
	replayCmd.Flags().Int("batch-size", 1000, "rows per write")
	addStorageFlags(replayCmd)
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addStorageFlags(cmd *cobra.Command) {
	cmd.Flags().String("storage", "clickhouse", "storage backend (clickhouse, postgres, jsonl)")
	cmd.Flags().String("clickhouse-addr", "localhost:9000", "ClickHouse native address")
	cmd.Flags().String("clickhouse-database", "indexer", "ClickHouse database")
	cmd.Flags().String("clickhouse-user", "default", "ClickHouse user")
	cmd.Flags().String("clickhouse-password", "", "ClickHouse password")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("out-dir", "./data", "JSONL output directory")
	cmd.Flags().Uint("connect-attempts", 5, "storage connection attempts")
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := openStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer closeStorage(sink, logger)

	if err := sink.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	if cfg.MetricsAddr != "" {
		server := metrics.NewServer(cfg.MetricsAddr, registry, logger.Named("metrics"))
		server.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown", zap.Error(err))
			}
		}()
	}

	connector := geyser.NewConnector(
		geyser.NewDialer(geyser.Config{
			Endpoint: cfg.GeyserEndpoint,
			Token:    cfg.GeyserToken,
			Insecure: cfg.GeyserInsecure,
		}),
		subscriptionFilters(cfg),
		m,
		logger.Named("geyser"),
	)

	pipeline := indexer.NewPipeline(indexer.PipelineConfig{
		ChannelCapacity: cfg.ChannelCapacity,
		Supervisor: indexer.SupervisorConfig{
			BackoffInitial: cfg.BackoffInitial,
			BackoffMax:     cfg.BackoffMax,
		},
		Processor: indexer.ProcessorConfig{
			BatchSize:     cfg.BatchSize,
			FlushInterval: cfg.FlushInterval,
			MaxBuffered:   cfg.MaxBuffered,
			RetryInitial:  cfg.BackoffInitial,
			RetryMax:      cfg.BackoffMax,
		},
	}, connector, sink, m, logger)

	logger.Info("indexer start",
		zap.String("endpoint", cfg.GeyserEndpoint),
		zap.Bool("token", cfg.GeyserToken != ""),
		zap.Strings("accounts", cfg.Accounts),
		zap.Strings("programs", programLabels(cfg.Programs)),
		zap.Bool("include_failed", cfg.IncludeFailed),
		zap.String("storage", cfg.Storage.Backend),
		zap.Int("channel_capacity", cfg.ChannelCapacity),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Duration("flush_interval", cfg.FlushInterval),
		zap.Int("max_buffered", cfg.MaxBuffered),
	)

	return pipeline.Run(ctx)
}

func openStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.Sink, error) {
	logger.Info("connect storage",
		zap.String("backend", cfg.Backend),
		zap.String("clickhouse_addr", cfg.ClickHouseAddr),
		zap.String("clickhouse_database", cfg.ClickHouseDatabase),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("out_dir", cfg.OutDir),
	)
	return storage.Open(ctx, storage.Config{
		Backend: cfg.Backend,
		ClickHouse: clickhouse.Config{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUser,
			Password: cfg.ClickHousePassword,
		},
		PostgresDSN:     cfg.PGDSN,
		OutDir:          cfg.OutDir,
		ConnectAttempts: cfg.ConnectAttempts,
	}, logger.Named("storage"))
}

func closeStorage(sink storage.Sink, logger *zap.Logger) {
	if err := sink.Close(); err != nil {
		logger.Warn("close storage", zap.Error(err))
	}
}

// programLabels renders ids as name=id for known DEX programs.
func subscriptionFilters(cfg config.Config) geyser.Filters {
	return geyser.Filters{
		Accounts:      cfg.Accounts,
		Programs:      cfg.Programs,
		IncludeFailed: cfg.IncludeFailed,
	}
}

func programLabels(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := dex.ProgramName(id); ok {
			out = append(out, name+"="+id)
			continue
		}
		out = append(out, id)
	}
	return out
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
