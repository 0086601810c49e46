package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	clocktesting "k8s.io/utils/clock/testing"

	"solanaScope/internal/geyser"
	"solanaScope/internal/model"
)

type sessionResult struct {
	delivered int
	err       error
}

// scriptedStreamer replays results in order, then blocks until ctx ends.
type scriptedStreamer struct {
	mu      sync.Mutex
	clock   *clocktesting.FakeClock
	results []sessionResult
	events  []model.IndexEvent
	sent    int
	starts  []time.Time
}

func (s *scriptedStreamer) Stream(ctx context.Context, out chan<- model.IndexEvent) (int, error) {
	s.mu.Lock()
	if s.clock != nil {
		s.starts = append(s.starts, s.clock.Now())
	}
	if len(s.results) > 0 {
		r := s.results[0]
		s.results = s.results[1:]
		s.mu.Unlock()
		return r.delivered, r.err
	}
	events := s.events
	s.events = nil
	s.mu.Unlock()

	delivered := 0
	for _, ev := range events {
		select {
		case out <- ev:
			delivered++
			s.mu.Lock()
			s.sent++
			s.mu.Unlock()
		case <-ctx.Done():
			return delivered, ctx.Err()
		}
	}
	<-ctx.Done()
	return delivered, ctx.Err()
}

func (s *scriptedStreamer) sessionStarts() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.starts...)
}

func (s *scriptedStreamer) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

func seconds(values ...int) []time.Duration {
	out := make([]time.Duration, 0, len(values))
	for _, v := range values {
		out = append(out, time.Duration(v)*time.Second)
	}
	return out
}

func gaps(starts []time.Time) []time.Duration {
	var out []time.Duration
	for i := 1; i < len(starts); i++ {
		out = append(out, starts[i].Sub(starts[i-1]))
	}
	return out
}

// runSupervisorScript steps the fake clock through delays and returns the
// observed waits between sessions.
func runSupervisorScript(t *testing.T, results []sessionResult, delays []time.Duration) []time.Duration {
	t.Helper()

	clk := clocktesting.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	streamer := &scriptedStreamer{clock: clk, results: results}
	sup := NewSupervisor(SupervisorConfig{}, streamer, make(chan model.IndexEvent, 1), nil, zap.NewNop())
	sup.clock = clk

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	for _, d := range delays {
		waitForWaiters(t, clk)
		clk.Step(d)
	}
	require.Eventually(t, func() bool { return len(streamer.sessionStarts()) == len(delays)+1 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not stop")
	}
	return gaps(streamer.sessionStarts())
}

func TestSupervisorBackoffSequence(t *testing.T) {
	var results []sessionResult
	for i := 0; i < 8; i++ {
		results = append(results, sessionResult{err: fmt.Errorf("dial failed %d", i)})
	}
	want := seconds(1, 2, 4, 8, 16, 32, 60, 60)

	assert.Equal(t, want, runSupervisorScript(t, results, want))
}

func TestSupervisorReconnectsAfterCleanEnd(t *testing.T) {
	results := []sessionResult{
		{err: geyser.ErrStreamEnded},
		{err: geyser.ErrStreamEnded},
	}
	want := seconds(1, 2)

	assert.Equal(t, want, runSupervisorScript(t, results, want))
}

func TestSupervisorResetsAfterProductiveSession(t *testing.T) {
	results := []sessionResult{
		{err: errors.New("refused")},
		{err: errors.New("refused")},
		{delivered: 5, err: errors.New("reset by peer")},
		{err: errors.New("refused")},
	}
	want := seconds(1, 2, 1, 2)

	assert.Equal(t, want, runSupervisorScript(t, results, want))
}

func TestSupervisorStopsDuringBackoff(t *testing.T) {
	clk := clocktesting.NewFakeClock(time.Now())
	streamer := &scriptedStreamer{results: []sessionResult{{err: errors.New("refused")}}}
	sup := NewSupervisor(SupervisorConfig{}, streamer, make(chan model.IndexEvent), nil, nil)
	sup.clock = clk

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	waitForWaiters(t, clk)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not stop")
	}
}
