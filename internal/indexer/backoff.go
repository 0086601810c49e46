package indexer

import (
	"context"
	"time"

	"k8s.io/utils/clock"
)

const (
	DefaultBackoffInitial = time.Second
	DefaultBackoffMax     = 60 * time.Second
)

// Backoff is a doubling delay capped at a maximum.
type Backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

func NewBackoff(initial, max time.Duration) *Backoff {
	if initial <= 0 {
		initial = DefaultBackoffInitial
	}
	if max < initial {
		max = initial
	}
	return &Backoff{initial: initial, max: max, current: initial}
}

// Next returns the delay to wait now and doubles the following one.
func (b *Backoff) Next() time.Duration {
	delay := b.current
	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return delay
}

// Reset restores the initial delay.
func (b *Backoff) Reset() {
	b.current = b.initial
}

// sleep waits for delay on clk or returns ctx.Err() if ctx ends first.
func sleep(ctx context.Context, clk clock.Clock, delay time.Duration) error {
	timer := clk.NewTimer(delay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}

// retryUntilSuccess calls fn until it succeeds, waiting with backoff between
// attempts. It gives up only when ctx is cancelled.
func retryUntilSuccess(ctx context.Context, clk clock.Clock, backoff *Backoff, fn func() error, onErr func(error, time.Duration)) error {
	for {
		err := fn()
		if err == nil {
			return nil
		}
		delay := backoff.Next()
		if onErr != nil {
			onErr(err, delay)
		}
		if err := sleep(ctx, clk, delay); err != nil {
			return err
		}
	}
}
