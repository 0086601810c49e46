package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"solanaScope/internal/model"
)

const maxJSONLLine = 64 << 20

// JSONLStore appends rows as JSON lines, one file per table under a directory.
type JSONLStore struct {
	dir string
	mu  sync.Mutex
}

func NewJSONLStore(dir string) (*JSONLStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("output dir is required")
	}
	return &JSONLStore{dir: dir}, nil
}

// Path returns the capture file of table.
func (s *JSONLStore) Path(table string) string {
	return filepath.Join(s.dir, table+".jsonl")
}

func (s *JSONLStore) EnsureSchema(context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

func (s *JSONLStore) InsertTransactions(_ context.Context, rows []model.TransactionRow) error {
	return appendLines(s, model.TableTransactions, rows)
}

func (s *JSONLStore) InsertAccounts(_ context.Context, rows []model.AccountRow) error {
	return appendLines(s, model.TableAccounts, rows)
}

func (s *JSONLStore) InsertSlots(_ context.Context, rows []model.SlotRow) error {
	return appendLines(s, model.TableSlots, rows)
}

func (s *JSONLStore) InsertTransaction(ctx context.Context, row model.TransactionRow) error {
	return s.InsertTransactions(ctx, []model.TransactionRow{row})
}

func (s *JSONLStore) InsertAccount(ctx context.Context, row model.AccountRow) error {
	return s.InsertAccounts(ctx, []model.AccountRow{row})
}

func (s *JSONLStore) InsertSlot(ctx context.Context, row model.SlotRow) error {
	return s.InsertSlots(ctx, []model.SlotRow{row})
}

func (s *JSONLStore) Close() error {
	return nil
}

// ReadTransactions returns every captured transaction row in file order.
// A missing file yields no rows.
func (s *JSONLStore) ReadTransactions() ([]model.TransactionRow, error) {
	return readLines[model.TransactionRow](s.Path(model.TableTransactions))
}

// ReadAccounts returns every captured account row in file order.
func (s *JSONLStore) ReadAccounts() ([]model.AccountRow, error) {
	return readLines[model.AccountRow](s.Path(model.TableAccounts))
}

// ReadSlots returns every captured slot row in file order.
func (s *JSONLStore) ReadSlots() ([]model.SlotRow, error) {
	return readLines[model.SlotRow](s.Path(model.TableSlots))
}

func appendLines[T any](s *JSONLStore, table string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	file, err := os.OpenFile(s.Path(table), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s file: %w", table, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, row := range rows {
		line, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshal %s row: %w", table, err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write %s row: %w", table, err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush %s file: %w", table, err)
	}
	return file.Sync()
}

func readLines[T any](path string) ([]T, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var rows []T
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJSONLLine)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var row T
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
