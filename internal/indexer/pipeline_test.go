package indexer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solanaScope/internal/model"
)

func TestPipelineShutdownDrainsBuffers(t *testing.T) {
	streamer := &scriptedStreamer{events: []model.IndexEvent{
		account("abc", 1),
		model.SlotEvent{Slot: 42},
		account("abc", 2),
	}}
	w := newRecordingWriter()
	pipeline := NewPipeline(PipelineConfig{
		ChannelCapacity: 16,
		Processor:       ProcessorConfig{BatchSize: 10, FlushInterval: time.Hour},
	}, streamer, w, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pipeline.Run(ctx) }()

	require.Eventually(t, func() bool { return streamer.sentCount() == 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not stop")
	}

	accounts := w.accountBatches()
	require.Len(t, accounts, 1)
	assert.Equal(t, []uint64{1, 2}, writeVersions(accounts[0]))

	slots := w.slotBatches()
	require.Len(t, slots, 1)
	require.Len(t, slots[0], 1)
	assert.Equal(t, uint64(42), slots[0][0].Slot)

	assert.Empty(t, w.transactionBatches())
	assert.Zero(t, w.attemptCount(model.TableTransactions))
}

func TestPipelineReportsDrainFailure(t *testing.T) {
	streamer := &scriptedStreamer{events: []model.IndexEvent{model.SlotEvent{Slot: 1}}}
	w := newRecordingWriter()
	w.failNext(model.TableSlots, 1)
	pipeline := NewPipeline(PipelineConfig{
		Processor: ProcessorConfig{BatchSize: 10, FlushInterval: time.Hour},
	}, streamer, w, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pipeline.Run(ctx) }()

	require.Eventually(t, func() bool { return streamer.sentCount() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, errStorageDown)
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not stop")
	}
}
