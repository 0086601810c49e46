package indexer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"solanaScope/internal/geyser"
	"solanaScope/internal/metrics"
	"solanaScope/internal/model"
)

// Streamer runs one stream session, pushing events to out, and reports how
// many events it delivered before the session ended.
type Streamer interface {
	Stream(ctx context.Context, out chan<- model.IndexEvent) (int, error)
}

// SupervisorConfig holds reconnect settings.
type SupervisorConfig struct {
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// Supervisor keeps a Streamer connected for the lifetime of ctx.
type Supervisor struct {
	streamer Streamer
	out      chan<- model.IndexEvent
	backoff  *Backoff
	clock    clock.Clock
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewSupervisor(cfg SupervisorConfig, streamer Streamer, out chan<- model.IndexEvent, m *metrics.Metrics, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = DefaultBackoffInitial
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = DefaultBackoffMax
	}
	return &Supervisor{
		streamer: streamer,
		out:      out,
		backoff:  NewBackoff(cfg.BackoffInitial, cfg.BackoffMax),
		clock:    clock.RealClock{},
		metrics:  m,
		logger:   logger,
	}
}

// Run reconnects after every session end, clean or failed, waiting with
// exponential backoff in between. The delay starts over after a session that
// delivered at least one event. Run returns ctx.Err() once ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) error {
	attempt := 0
	for {
		attempt++
		delivered, err := s.streamer.Stream(ctx, s.out)
		if ctx.Err() != nil {
			s.logger.Info("stream supervisor stopped", zap.Int("delivered", delivered))
			return ctx.Err()
		}

		if delivered > 0 {
			s.backoff.Reset()
			attempt = 1
		}
		delay := s.backoff.Next()

		fields := []zap.Field{
			zap.Int("attempt", attempt),
			zap.Int("delivered", delivered),
			zap.Duration("delay", delay),
			zap.Error(err),
		}
		if errors.Is(err, geyser.ErrStreamEnded) {
			s.logger.Warn("stream ended, reconnecting", fields...)
		} else {
			s.logger.Error("stream failed, reconnecting", fields...)
		}
		s.metrics.RecordReconnect(delay.Seconds())

		if err := sleep(ctx, s.clock, delay); err != nil {
			s.logger.Info("stream supervisor stopped during backoff")
			return err
		}
	}
}
