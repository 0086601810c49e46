package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"solanaScope/internal/model"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Store provides Postgres persistence for indexed rows.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// EnsureSchema applies the embedded migrations.
func (s *Store) EnsureSchema(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(embeddedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil && !errors.Is(err, goose.ErrNoNextVersion) {
		return fmt.Errorf("run postgres migrations: %w", err)
	}
	return nil
}

// InsertTransactions inserts rows, skipping ones already stored.
func (s *Store) InsertTransactions(ctx context.Context, rows []model.TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, row := range rows {
		slot, err := bigint(row.Slot)
		if err != nil {
			return fmt.Errorf("transaction %s slot: %w", row.Signature, err)
		}
		index, err := bigint(row.TxIndex)
		if err != nil {
			return fmt.Errorf("transaction %s tx_index: %w", row.Signature, err)
		}
		fee, err := nullableInt64(row.Fee)
		if err != nil {
			return fmt.Errorf("transaction %s fee: %w", row.Signature, err)
		}
		units, err := nullableInt64(row.ComputeUnitsConsumed)
		if err != nil {
			return fmt.Errorf("transaction %s compute units: %w", row.Signature, err)
		}
		batch.Queue(`
			INSERT INTO transactions (
				signature, slot, is_vote, tx_index, success, fee, compute_units_consumed, timestamp,
				pre_balances, post_balances, log_messages, account_keys, instructions
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			ON CONFLICT DO NOTHING
		`,
			row.Signature,
			slot,
			row.IsVote,
			index,
			row.Success,
			fee,
			units,
			row.Timestamp,
			row.PreBalances,
			row.PostBalances,
			row.LogMessages,
			row.AccountKeys,
			row.Instructions,
		)
	}
	return s.send(ctx, batch, len(rows))
}

// InsertAccounts inserts rows, skipping ones already stored.
func (s *Store) InsertAccounts(ctx context.Context, rows []model.AccountRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, row := range rows {
		lamports, err := bigint(row.Lamports)
		if err != nil {
			return fmt.Errorf("account %s lamports: %w", row.Pubkey, err)
		}
		batch.Queue(`
			INSERT INTO accounts (
				pubkey, lamports, owner, executable, rent_epoch, data, write_version, txn_signature, timestamp
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			ON CONFLICT DO NOTHING
		`,
			row.Pubkey,
			lamports,
			row.Owner,
			row.Executable,
			numeric(row.RentEpoch),
			row.Data,
			numeric(row.WriteVersion),
			row.TxnSignature,
			row.Timestamp,
		)
	}
	return s.send(ctx, batch, len(rows))
}

// InsertSlots inserts rows, skipping ones already stored.
func (s *Store) InsertSlots(ctx context.Context, rows []model.SlotRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, row := range rows {
		slot, err := bigint(row.Slot)
		if err != nil {
			return fmt.Errorf("slot: %w", err)
		}
		batch.Queue(`INSERT INTO slots (slot, timestamp) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			slot,
			row.Timestamp,
		)
	}
	return s.send(ctx, batch, len(rows))
}

func (s *Store) InsertTransaction(ctx context.Context, row model.TransactionRow) error {
	return s.InsertTransactions(ctx, []model.TransactionRow{row})
}

func (s *Store) InsertAccount(ctx context.Context, row model.AccountRow) error {
	return s.InsertAccounts(ctx, []model.AccountRow{row})
}

func (s *Store) InsertSlot(ctx context.Context, row model.SlotRow) error {
	return s.InsertSlots(ctx, []model.SlotRow{row})
}

func (s *Store) send(ctx context.Context, batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// numeric keeps the full uint64 range; rent_epoch is u64::MAX for rent-exempt
// accounts.
func numeric(v uint64) pgtype.Numeric {
	return pgtype.Numeric{Int: new(big.Int).SetUint64(v), Valid: true}
}

// bigint converts v for a BIGINT column, rejecting values that would wrap.
func bigint(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("value %d overflows bigint", v)
	}
	return int64(v), nil
}

func nullableInt64(v *uint64) (*int64, error) {
	if v == nil {
		return nil, nil
	}
	out, err := bigint(*v)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
