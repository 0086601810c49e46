package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"solanaScope/internal/metrics"
	"solanaScope/internal/model"
	"solanaScope/internal/storage"
)

const (
	DefaultBatchSize     = 1000
	DefaultFlushInterval = 5 * time.Second
	DefaultMaxBuffered   = 50 * DefaultBatchSize
)

// ProcessorConfig controls batching.
type ProcessorConfig struct {
	// BatchSize is the per-table buffer length that triggers an immediate flush.
	BatchSize int
	// FlushInterval is the period of the flush-all timer.
	FlushInterval time.Duration
	// MaxBuffered is the per-table buffer length above which a failed flush is
	// retried in place, which stops consumption until storage recovers. Zero
	// disables the limit.
	MaxBuffered int
	// RetryInitial and RetryMax bound the backoff of in-place retries.
	RetryInitial time.Duration
	RetryMax     time.Duration
}

// Processor buffers events per table and writes them in batches. All buffer
// state is owned by the goroutine running Run.
type Processor struct {
	cfg     ProcessorConfig
	writer  storage.BatchWriter
	clock   clock.WithTicker
	metrics *metrics.Metrics
	logger  *zap.Logger

	transactions []model.TransactionEvent
	accounts     []model.AccountEvent
	slots        []model.SlotEvent
}

func NewProcessor(cfg ProcessorConfig, writer storage.BatchWriter, m *metrics.Metrics, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.MaxBuffered < 0 {
		cfg.MaxBuffered = 0
	}
	if cfg.RetryInitial <= 0 {
		cfg.RetryInitial = DefaultBackoffInitial
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = DefaultBackoffMax
	}
	return &Processor{
		cfg:     cfg,
		writer:  writer,
		clock:   clock.RealClock{},
		metrics: m,
		logger:  logger,
	}
}

// Run consumes events until the channel is closed, then flushes every
// non-empty buffer once and returns the joined flush errors. Cancelling ctx
// does not stop Run; it only aborts in-place retries. Storage writes are not
// bound to ctx cancellation so the final drain runs during shutdown.
func (p *Processor) Run(ctx context.Context, events <-chan model.IndexEvent) error {
	writeCtx := context.WithoutCancel(ctx)

	ticker := p.clock.NewTicker(p.cfg.FlushInterval)
	defer ticker.Stop()

	p.logger.Info("processor start",
		zap.Int("batch_size", p.cfg.BatchSize),
		zap.Duration("flush_interval", p.cfg.FlushInterval),
		zap.Int("max_buffered", p.cfg.MaxBuffered),
	)

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.logger.Info("event channel closed, draining buffers",
					zap.Int("transactions", len(p.transactions)),
					zap.Int("accounts", len(p.accounts)),
					zap.Int("slots", len(p.slots)),
				)
				return p.FlushAll(writeCtx)
			}
			p.handle(ctx, writeCtx, ev)
		case <-ticker.C():
			for _, table := range tables {
				p.flushWithPolicy(ctx, writeCtx, table)
			}
		}
	}
}

var tables = []string{model.TableTransactions, model.TableAccounts, model.TableSlots}

func (p *Processor) handle(ctx, writeCtx context.Context, ev model.IndexEvent) {
	var table string
	switch e := ev.(type) {
	case model.TransactionEvent:
		p.transactions = append(p.transactions, e)
		table = model.TableTransactions
	case model.AccountEvent:
		p.accounts = append(p.accounts, e)
		table = model.TableAccounts
	case model.SlotEvent:
		p.slots = append(p.slots, e)
		table = model.TableSlots
	case model.BlockEvent:
		return
	default:
		p.logger.Warn("unknown event type", zap.String("type", fmt.Sprintf("%T", ev)))
		return
	}

	n := p.buffered(table)
	p.metrics.SetBuffered(table, n)
	if n >= p.cfg.BatchSize {
		p.flushWithPolicy(ctx, writeCtx, table)
	}
}

// flushWithPolicy flushes table once; if that fails while the buffer is at or
// above MaxBuffered it keeps retrying with backoff until success or ctx ends.
func (p *Processor) flushWithPolicy(ctx, writeCtx context.Context, table string) {
	err := p.flush(writeCtx, table)
	if err == nil {
		return
	}
	if p.cfg.MaxBuffered == 0 || p.buffered(table) < p.cfg.MaxBuffered {
		return
	}

	p.logger.Warn("buffer limit reached, holding consumption until storage recovers",
		zap.String("table", table),
		zap.Int("buffered", p.buffered(table)),
		zap.Int("max_buffered", p.cfg.MaxBuffered),
	)
	err = retryUntilSuccess(ctx, p.clock, NewBackoff(p.cfg.RetryInitial, p.cfg.RetryMax), func() error {
		return p.flush(writeCtx, table)
	}, func(err error, delay time.Duration) {
		p.logger.Warn("retry flush", zap.String("table", table), zap.Duration("delay", delay), zap.Error(err))
	})
	if err != nil {
		p.logger.Warn("stopped retrying flush", zap.String("table", table), zap.Error(err))
	}
}

// FlushAll flushes every table and joins the errors.
func (p *Processor) FlushAll(ctx context.Context) error {
	var err error
	for _, table := range tables {
		err = multierr.Append(err, p.flush(ctx, table))
	}
	return err
}

func (p *Processor) buffered(table string) int {
	switch table {
	case model.TableTransactions:
		return len(p.transactions)
	case model.TableAccounts:
		return len(p.accounts)
	case model.TableSlots:
		return len(p.slots)
	}
	return 0
}

func (p *Processor) flush(ctx context.Context, table string) error {
	switch table {
	case model.TableTransactions:
		return p.flushTransactions(ctx)
	case model.TableAccounts:
		return p.flushAccounts(ctx)
	case model.TableSlots:
		return p.flushSlots(ctx)
	}
	return fmt.Errorf("unknown table %q", table)
}

func (p *Processor) flushTransactions(ctx context.Context) error {
	if len(p.transactions) == 0 {
		return nil
	}

	now := p.clock.Now()
	rows := make([]model.TransactionRow, 0, len(p.transactions))
	kept := p.transactions[:0]
	for _, ev := range p.transactions {
		row, err := TransformTransaction(ev, now)
		if err != nil {
			p.metrics.RecordTransformError(model.TableTransactions)
			p.logger.Error("drop transaction", zap.String("signature", ev.Signature), zap.Error(err))
			continue
		}
		rows = append(rows, row)
		kept = append(kept, ev)
	}
	p.transactions = kept
	if len(rows) == 0 {
		p.transactions = nil
		return nil
	}

	if err := p.write(model.TableTransactions, len(rows), func() error {
		return p.writer.InsertTransactions(ctx, rows)
	}); err != nil {
		return err
	}
	p.transactions = nil
	p.metrics.SetBuffered(model.TableTransactions, 0)
	return nil
}

func (p *Processor) flushAccounts(ctx context.Context) error {
	if len(p.accounts) == 0 {
		return nil
	}

	rows := make([]model.AccountRow, 0, len(p.accounts))
	for _, ev := range p.accounts {
		rows = append(rows, TransformAccount(ev))
	}

	if err := p.write(model.TableAccounts, len(rows), func() error {
		return p.writer.InsertAccounts(ctx, rows)
	}); err != nil {
		return err
	}
	p.accounts = nil
	p.metrics.SetBuffered(model.TableAccounts, 0)
	return nil
}

func (p *Processor) flushSlots(ctx context.Context) error {
	if len(p.slots) == 0 {
		return nil
	}

	now := p.clock.Now()
	rows := make([]model.SlotRow, 0, len(p.slots))
	for _, ev := range p.slots {
		rows = append(rows, TransformSlot(ev, now))
	}

	if err := p.write(model.TableSlots, len(rows), func() error {
		return p.writer.InsertSlots(ctx, rows)
	}); err != nil {
		return err
	}
	p.slots = nil
	p.metrics.SetBuffered(model.TableSlots, 0)
	return nil
}

func (p *Processor) write(table string, n int, insert func() error) error {
	start := p.clock.Now()
	if err := insert(); err != nil {
		p.metrics.RecordFlushError(table)
		p.logger.Error("flush failed, keeping buffer",
			zap.String("table", table),
			zap.Int("rows", n),
			zap.Error(err),
		)
		return fmt.Errorf("insert %s: %w", table, err)
	}

	elapsed := p.clock.Since(start)
	p.metrics.RecordFlush(table, n, elapsed.Seconds())
	p.logger.Info("flush complete",
		zap.String("table", table),
		zap.Int("rows", n),
		zap.Duration("duration", elapsed),
	)
	return nil
}
