package clickhouse

import (
	"context"
	"embed"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"solanaScope/internal/model"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const (
	DefaultAddr     = "localhost:9000"
	DefaultDatabase = "default"
	DefaultUser     = "default"
)

// Config holds ClickHouse connection settings.
type Config struct {
	Addr        string
	Database    string
	Username    string
	Password    string
	DialTimeout time.Duration
}

func (c Config) options() *clickhouse.Options {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Username == "" {
		c.Username = DefaultUser
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	return &clickhouse.Options{
		Addr: []string{c.Addr},
		Auth: clickhouse.Auth{
			Database: c.Database,
			Username: c.Username,
			Password: c.Password,
		},
		DialTimeout: c.DialTimeout,
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
	}
}

// Store writes rows to ClickHouse over the native protocol.
type Store struct {
	cfg  Config
	conn clickhouse.Conn
}

func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	opts := cfg.options()
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, errors.WithMessagef(err, "could not connect to clickhouse on %s", opts.Addr[0])
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.WithMessagef(err, "failed to ping clickhouse at %s", opts.Addr[0])
	}
	return &Store{cfg: cfg, conn: conn}, nil
}

// EnsureSchema applies the embedded migrations. Already applied versions are
// skipped and every table is created with IF NOT EXISTS.
func (s *Store) EnsureSchema(ctx context.Context) error {
	db := clickhouse.OpenDB(s.cfg.options())
	defer db.Close()

	goose.SetBaseFS(embeddedMigrations)
	if err := goose.SetDialect("clickhouse"); err != nil {
		return errors.WithMessage(err, "failed to set goose dialect")
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil && !errors.Is(err, goose.ErrNoNextVersion) {
		return errors.WithMessage(err, "failed to run clickhouse migrations")
	}
	return nil
}

func (s *Store) InsertTransactions(ctx context.Context, rows []model.TransactionRow) error {
	return insertBatch(ctx, s.conn, model.TableTransactions, rows)
}

func (s *Store) InsertAccounts(ctx context.Context, rows []model.AccountRow) error {
	return insertBatch(ctx, s.conn, model.TableAccounts, rows)
}

func (s *Store) InsertSlots(ctx context.Context, rows []model.SlotRow) error {
	return insertBatch(ctx, s.conn, model.TableSlots, rows)
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

func (s *Store) Close() error {
	return s.conn.Close()
}

// insertBatch sends rows as one block. Columns are matched by the ch tags of T.
func insertBatch[T any](ctx context.Context, conn clickhouse.Conn, table string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := conn.PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return errors.WithMessagef(err, "prepare batch for %s failed", table)
	}
	for i := range rows {
		if err := batch.AppendStruct(&rows[i]); err != nil {
			_ = batch.Abort()
			return errors.WithMessagef(err, "appending row %d to %s failed", i, table)
		}
	}
	if err := batch.Send(); err != nil {
		return errors.WithMessagef(err, "sending batch of %d rows to %s failed", len(rows), table)
	}
	return nil
}
