package indexer

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solanaScope/internal/metrics"
	"solanaScope/internal/model"
	"solanaScope/internal/storage"
)

const DefaultChannelCapacity = 10000

// PipelineConfig wires the producer and consumer halves.
type PipelineConfig struct {
	ChannelCapacity int
	Supervisor      SupervisorConfig
	Processor       ProcessorConfig
}

// Pipeline joins a reconnecting stream producer to a batching consumer
// through one bounded channel.
type Pipeline struct {
	events     chan model.IndexEvent
	supervisor *Supervisor
	processor  *Processor
	logger     *zap.Logger
}

func NewPipeline(cfg PipelineConfig, streamer Streamer, writer storage.BatchWriter, m *metrics.Metrics, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ChannelCapacity <= 0 {
		cfg.ChannelCapacity = DefaultChannelCapacity
	}
	events := make(chan model.IndexEvent, cfg.ChannelCapacity)
	return &Pipeline{
		events:     events,
		supervisor: NewSupervisor(cfg.Supervisor, streamer, events, m, logger.Named("supervisor")),
		processor:  NewProcessor(cfg.Processor, writer, m, logger.Named("processor")),
		logger:     logger,
	}
}

// Run blocks until ctx is cancelled and the processor has drained. The
// channel is closed only after the supervisor returned, so the connector
// never sends on a closed channel. Cancellation is not reported as an error.
func (p *Pipeline) Run(ctx context.Context) error {
	var g errgroup.Group

	g.Go(func() error {
		defer close(p.events)
		err := p.supervisor.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		return p.processor.Run(ctx, p.events)
	})

	err := g.Wait()
	if err != nil {
		p.logger.Error("pipeline stopped with error", zap.Error(err))
		return err
	}
	p.logger.Info("pipeline stopped")
	return nil
}
