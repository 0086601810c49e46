package storage

import (
	"context"

	"solanaScope/internal/model"
)

// BatchWriter writes rows in batches. A batch is written in slice order.
type BatchWriter interface {
	InsertTransactions(ctx context.Context, rows []model.TransactionRow) error
	InsertAccounts(ctx context.Context, rows []model.AccountRow) error
	InsertSlots(ctx context.Context, rows []model.SlotRow) error
}

// Sink is a storage backend for indexed rows.
type Sink interface {
	BatchWriter

	// EnsureSchema creates the transactions, accounts and slots tables if
	// they do not exist. It is safe to call repeatedly.
	EnsureSchema(ctx context.Context) error

	InsertTransaction(ctx context.Context, row model.TransactionRow) error
	InsertAccount(ctx context.Context, row model.AccountRow) error
	InsertSlot(ctx context.Context, row model.SlotRow) error

	Close() error
}
