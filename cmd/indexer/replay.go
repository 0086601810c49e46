package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solanaScope/internal/config"
	"solanaScope/internal/indexer"
	"solanaScope/internal/storage"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if _, err := os.Stat(cfg.InputDir); err != nil {
		return fmt.Errorf("input dir: %w", err)
	}
	capture, err := storage.NewJSONLStore(cfg.InputDir)
	if err != nil {
		return err
	}

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

	logger.Info("replay start",
		zap.String("in_dir", cfg.InputDir),
		zap.String("storage", cfg.Storage.Backend),
		zap.Int("batch_size", cfg.BatchSize),
	)

	stats, err := indexer.Replay(ctx, capture, sink, cfg.BatchSize, logger)
	if err != nil {
		return err
	}

	logger.Info("replay complete",
		zap.Int("transactions", stats.Transactions),
		zap.Int("accounts", stats.Accounts),
		zap.Int("slots", stats.Slots),
	)
	return nil
}
