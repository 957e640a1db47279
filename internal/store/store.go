// Package store persists the purchase order register in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"poclerk/constants"
)

// ErrDuplicatePO is returned when a non-sentinel identifier is inserted a
// second time. The first record wins; nothing is overwritten.
var ErrDuplicatePO = errors.New("po number already recorded")

// Record is one row of the purchase order register.
type Record struct {
	ID        string    `json:"id"`
	PONumber  string    `json:"po_number"`
	PDFPath   string    `json:"pdf_path"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct {
	conn   *sql.DB
	logger *slog.Logger
}

// The unique index is partial: the sentinel may recur, one row per failed
// document, while real identifiers stay unique.
const schema = `
CREATE TABLE IF NOT EXISTS purchase_orders (
  id TEXT PRIMARY KEY,
  po_number TEXT NOT NULL,
  pdf_path TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_purchase_orders_po_number
  ON purchase_orders(po_number) WHERE po_number <> 'UNKNOWN';
CREATE INDEX IF NOT EXISTS idx_purchase_orders_created_at
  ON purchase_orders(created_at);
`

func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// single pooled connection: sqlite takes one writer anyway, and the
	// pragmas below stay in effect for every query
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := conn.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Store{conn: conn, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// Insert records one document under poNumber. Inserting a non-sentinel
// identifier twice fails with ErrDuplicatePO; the sentinel recurs freely.
func (s *Store) Insert(ctx context.Context, poNumber, pdfPath string) (Record, error) {
	rec := Record{
		ID:        uuid.New().String(),
		PONumber:  poNumber,
		PDFPath:   pdfPath,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.conn.ExecContext(ctx, `
INSERT INTO purchase_orders (id, po_number, pdf_path, created_at)
VALUES (?, ?, ?, ?)`,
		rec.ID, rec.PONumber, rec.PDFPath, rec.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return Record{}, fmt.Errorf("%w: %s", ErrDuplicatePO, poNumber)
		}
		return Record{}, fmt.Errorf("insert purchase order: %w", err)
	}

	s.logger.Info("store.insert.ok", "id", rec.ID, "po_number", rec.PONumber)
	return rec, nil
}

// Lookup returns the newest record for poNumber, or (nil, nil) when the
// register has no such entry.
func (s *Store) Lookup(ctx context.Context, poNumber string) (*Record, error) {
	row := s.conn.QueryRowContext(ctx, `
SELECT id, po_number, pdf_path, created_at
FROM purchase_orders
WHERE po_number = ?
ORDER BY created_at DESC, rowid DESC
LIMIT 1`, poNumber)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListUnknown returns the sentinel backlog, newest first.
func (s *Store) ListUnknown(ctx context.Context) ([]Record, error) {
	return s.list(ctx, `
SELECT id, po_number, pdf_path, created_at
FROM purchase_orders
WHERE po_number = ?
ORDER BY created_at DESC, rowid DESC`, constants.UnknownPO)
}

// List returns the full register in insertion order.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	return s.list(ctx, `
SELECT id, po_number, pdf_path, created_at
FROM purchase_orders
ORDER BY created_at ASC, rowid ASC`)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var createdAt string
	if err := row.Scan(&rec.ID, &rec.PONumber, &rec.PDFPath, &createdAt); err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	rec.CreatedAt = ts
	return &rec, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
