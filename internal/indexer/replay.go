package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"solanaScope/internal/model"
	"solanaScope/internal/storage"
)

// CaptureReader reads rows previously written by a capture sink.
type CaptureReader interface {
	ReadTransactions() ([]model.TransactionRow, error)
	ReadAccounts() ([]model.AccountRow, error)
	ReadSlots() ([]model.SlotRow, error)
}

// ReplayStats counts rows written per table.
type ReplayStats struct {
	Transactions int
	Accounts     int
	Slots        int
}

// Replay copies captured rows into dst in batches of batchSize, preserving
// capture order within each table.
func Replay(ctx context.Context, src CaptureReader, dst storage.BatchWriter, batchSize int, logger *zap.Logger) (ReplayStats, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		return ReplayStats{}, fmt.Errorf("batch size must be greater than zero")
	}

	var stats ReplayStats

	txs, err := src.ReadTransactions()
	if err != nil {
		return stats, err
	}
	if stats.Transactions, err = replayTable(ctx, model.TableTransactions, txs, batchSize, dst.InsertTransactions, logger); err != nil {
		return stats, err
	}

	accounts, err := src.ReadAccounts()
	if err != nil {
		return stats, err
	}
	if stats.Accounts, err = replayTable(ctx, model.TableAccounts, accounts, batchSize, dst.InsertAccounts, logger); err != nil {
		return stats, err
	}

	slots, err := src.ReadSlots()
	if err != nil {
		return stats, err
	}
	if stats.Slots, err = replayTable(ctx, model.TableSlots, slots, batchSize, dst.InsertSlots, logger); err != nil {
		return stats, err
	}

	return stats, nil
}

func replayTable[T any](ctx context.Context, table string, rows []T, batchSize int, insert func(context.Context, []T) error, logger *zap.Logger) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	ranges, err := SplitRange(0, uint64(len(rows)-1), uint64(batchSize))
	if err != nil {
		return 0, err
	}

	written := 0
	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		chunk := rows[r.From : r.To+1]
		if err := insert(ctx, chunk); err != nil {
			return written, fmt.Errorf("replay %s rows %d-%d: %w", table, r.From, r.To, err)
		}
		written += len(chunk)
		logger.Info("replay batch complete", zap.String("table", table), zap.Int("rows", len(chunk)), zap.Int("written", written))
	}
	return written, nil
}
