package geyser

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"solanaScope/internal/metrics"
	"solanaScope/internal/model"
)

// ErrStreamEnded reports that the server closed the stream without an error.
var ErrStreamEnded = errors.New("geyser stream ended by server")

// Connector runs one subscription session at a time and pushes decoded
// events to the pipeline channel.
type Connector struct {
	dial    Dialer
	filters Filters
	clock   clock.PassiveClock
	metrics *metrics.Metrics
	logger  *zap.Logger
	pingID  int32
}

func NewConnector(dial Dialer, filters Filters, m *metrics.Metrics, logger *zap.Logger) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{
		dial:    dial,
		filters: filters,
		clock:   clock.RealClock{},
		metrics: m,
		logger:  logger,
	}
}

// Stream opens a session and reads it until the stream fails, the server
// ends it, or ctx is cancelled. It returns the number of events delivered to
// out. A clean end of stream is reported as ErrStreamEnded. Sending to a full
// out blocks until the consumer catches up or ctx is cancelled.
func (c *Connector) Stream(ctx context.Context, out chan<- model.IndexEvent) (int, error) {
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub, err := c.dial(sessionCtx)
	if err != nil {
		return 0, fmt.Errorf("dial geyser: %w", err)
	}
	defer func() {
		if err := sub.Close(); err != nil {
			c.logger.Debug("close geyser connection", zap.Error(err))
		}
	}()

	stream, err := sub.Subscribe(sessionCtx)
	if err != nil {
		return 0, fmt.Errorf("open subscription: %w", err)
	}

	req := BuildSubscribeRequest(c.filters)
	if err := stream.Send(req); err != nil {
		return 0, fmt.Errorf("send subscribe request: %w", err)
	}

	c.logger.Info("subscribed",
		zap.Int("accounts", len(c.filters.Accounts)),
		zap.Int("programs", len(c.filters.Programs)),
		zap.Bool("include_failed", c.filters.IncludeFailed),
	)

	delivered := 0
	for {
		update, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return delivered, ErrStreamEnded
		}
		if err != nil {
			if ctx.Err() != nil {
				return delivered, ctx.Err()
			}
			return delivered, fmt.Errorf("receive update: %w", err)
		}

		if update.GetPing() != nil {
			c.pingID++
			if err := stream.Send(pingRequest(c.filters, c.pingID)); err != nil {
				return delivered, fmt.Errorf("answer ping: %w", err)
			}
			continue
		}

		event, ok := DecodeUpdate(update, c.clock.Now())
		if !ok {
			c.metrics.RecordSkippedUpdate()
			continue
		}

		select {
		case out <- event:
			delivered++
			c.metrics.RecordEvent(string(event.Kind()))
			c.metrics.SetChannelDepth(len(out))
		case <-ctx.Done():
			return delivered, ctx.Err()
		}
	}
}
