package indexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func TestBackoffSequence(t *testing.T) {
	b := NewBackoff(time.Second, 60*time.Second)

	var got []time.Duration
	for i := 0; i < 9; i++ {
		got = append(got, b.Next())
	}

	want := []time.Duration{1, 2, 4, 8, 16, 32, 60, 60, 60}
	for i := range want {
		want[i] *= time.Second
	}
	assert.Equal(t, want, got)

	b.Reset()
	assert.Equal(t, time.Second, b.Next())
}

func TestBackoffDefaults(t *testing.T) {
	b := NewBackoff(0, 0)
	assert.Equal(t, DefaultBackoffInitial, b.Next())
	assert.Equal(t, DefaultBackoffInitial, b.Next())
}

func TestRetryUntilSuccess(t *testing.T) {
	clk := clocktesting.NewFakeClock(time.Now())
	attempts := 0
	var delays []time.Duration

	done := make(chan error, 1)
	go func() {
		done <- retryUntilSuccess(context.Background(), clk, NewBackoff(time.Second, 4*time.Second), func() error {
			attempts++
			if attempts < 3 {
				return errors.New("unavailable")
			}
			return nil
		}, func(_ error, d time.Duration) { delays = append(delays, d) })
	}()

	for i := 0; i < 2; i++ {
		waitForWaiters(t, clk)
		clk.Step(4 * time.Second)
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not finish")
	}
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestRetryUntilSuccessCancelled(t *testing.T) {
	clk := clocktesting.NewFakeClock(time.Now())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- retryUntilSuccess(ctx, clk, NewBackoff(time.Second, time.Second), func() error {
			return errors.New("down")
		}, nil)
	}()

	waitForWaiters(t, clk)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("retry ignored cancellation")
	}
}

func waitForWaiters(t *testing.T, clk *clocktesting.FakeClock) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !clk.HasWaiters() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for clock waiters")
		}
		time.Sleep(time.Millisecond)
	}
}
