package indexer

import (
	"context"
	"errors"
	"sync"

	"solanaScope/internal/model"
)

var errStorageDown = errors.New("storage unavailable")

// recordingWriter keeps every successful batch and fails the next failN[table]
// calls for a table.
type recordingWriter struct {
	mu           sync.Mutex
	transactions [][]model.TransactionRow
	accounts     [][]model.AccountRow
	slots        [][]model.SlotRow
	attempts     map[string]int
	failN        map[string]int
	cancelled    int
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{attempts: map[string]int{}, failN: map[string]int{}}
}

func (w *recordingWriter) failNext(table string, n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failN[table] = n
}

func (w *recordingWriter) begin(ctx context.Context, table string) error {
	w.attempts[table]++
	if ctx.Err() != nil {
		w.cancelled++
	}
	if w.failN[table] > 0 {
		w.failN[table]--
		return errStorageDown
	}
	return nil
}

func (w *recordingWriter) InsertTransactions(ctx context.Context, rows []model.TransactionRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.begin(ctx, model.TableTransactions); err != nil {
		return err
	}
	w.transactions = append(w.transactions, append([]model.TransactionRow(nil), rows...))
	return nil
}

func (w *recordingWriter) InsertAccounts(ctx context.Context, rows []model.AccountRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.begin(ctx, model.TableAccounts); err != nil {
		return err
	}
	w.accounts = append(w.accounts, append([]model.AccountRow(nil), rows...))
	return nil
}

func (w *recordingWriter) InsertSlots(ctx context.Context, rows []model.SlotRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.begin(ctx, model.TableSlots); err != nil {
		return err
	}
	w.slots = append(w.slots, append([]model.SlotRow(nil), rows...))
	return nil
}

func (w *recordingWriter) accountBatches() [][]model.AccountRow {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([][]model.AccountRow(nil), w.accounts...)
}

func (w *recordingWriter) slotBatches() [][]model.SlotRow {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([][]model.SlotRow(nil), w.slots...)
}

func (w *recordingWriter) transactionBatches() [][]model.TransactionRow {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([][]model.TransactionRow(nil), w.transactions...)
}

func (w *recordingWriter) attemptCount(table string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.attempts[table]
}

func account(pubkey string, writeVersion uint64) model.AccountEvent {
	return model.AccountEvent{Pubkey: pubkey, Owner: "owner", WriteVersion: writeVersion}
}

func writeVersions(rows []model.AccountRow) []uint64 {
	out := make([]uint64, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.WriteVersion)
	}
	return out
}
