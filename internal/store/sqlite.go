package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/specscrape/internal/model"
)

// sqliteSchema creates the products table. product_link is UNIQUE so the
// database itself rejects duplicates.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	brand TEXT NOT NULL,
	product_name TEXT NOT NULL,
	product_link TEXT NOT NULL UNIQUE,
	attributes TEXT NOT NULL,
	run_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand);
`

// SQLiteStore keeps rows in a SQLite database.
type SQLiteStore struct {
	// mu serializes writers; SQLite supports a single writer.
	mu sync.Mutex

	db     *sql.DB
	runID  string
	count  int
	logger *slog.Logger
}

// OpenSQLite opens or creates the SQLite database at path.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	o := newOptions(opts)

	if !o.createIfNotExists {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, path)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc creates it.
	dsn := path + "?mode=rwc"
	if !o.createIfNotExists {
		dsn = path + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		runID:  o.runID,
		logger: o.logger,
	}

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&s.count); err != nil {
		_ = db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	s.logger.Debug("opened sqlite store", "path", path, "rows", s.count)
	return s, nil
}

// HasProductLink implements Store.
func (s *SQLiteStore) HasProductLink(ctx context.Context, link string) (bool, error) {
	return s.exists(ctx, "SELECT 1 FROM products WHERE product_link = ? LIMIT 1", link)
}

// HasBrand implements Store.
func (s *SQLiteStore) HasBrand(ctx context.Context, brand string) (bool, error) {
	return s.exists(ctx, "SELECT 1 FROM products WHERE brand = ? LIMIT 1", brand)
}

func (s *SQLiteStore) exists(ctx context.Context, query, arg string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query products: %w", err)
	}
	return true, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, row model.Row) error {
	if row.ProductLink == "" {
		return ErrEmptyProductLink
	}

	attrs, err := encodeAttributes(row.Attributes)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
	INSERT INTO products (brand, product_name, product_link, attributes, run_id)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(product_link) DO NOTHING
	`,
		row.Brand,
		row.ProductName,
		row.ProductLink,
		attrs,
		s.runID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check insert result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateProduct, row.ProductLink)
	}

	s.count++
	return nil
}

// Rows implements Store.
func (s *SQLiteStore) Rows(ctx context.Context) ([]model.Row, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT brand, product_name, product_link, attributes FROM products ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	result := make([]model.Row, 0)
	for rows.Next() {
		var row model.Row
		var attrs string
		if err := rows.Scan(&row.Brand, &row.ProductName, &row.ProductLink, &attrs); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if row.Attributes, err = decodeAttributes(attrs); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return result, nil
}

// Len implements Store.
func (s *SQLiteStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.count
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
