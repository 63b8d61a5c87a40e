package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nao1215/specscrape/internal/model"
)

// postgresSchema mirrors the SQLite schema with native types.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS products (
	id BIGSERIAL PRIMARY KEY,
	brand TEXT NOT NULL,
	product_name TEXT NOT NULL,
	product_link TEXT NOT NULL UNIQUE,
	attributes JSONB NOT NULL,
	run_id TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand);
`

// postgresMaxConns bounds the pool. Writes are serialized anyway.
const postgresMaxConns = 4

// PostgresStore keeps rows in a PostgreSQL table.
type PostgresStore struct {
	mu sync.Mutex

	pool   *pgxpool.Pool
	runID  string
	count  int
	logger *slog.Logger
}

// OpenPostgres connects to the database at dsn and ensures the schema.
// With WithCreateIfNotExists(false) a missing products table is reported
// as ErrStoreNotFound.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	o := newOptions(opts)

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	cfg.MaxConns = postgresMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if o.createIfNotExists {
		if _, err := pool.Exec(ctx, postgresSchema); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	} else {
		var exists bool
		if err := pool.QueryRow(ctx, "SELECT to_regclass('products') IS NOT NULL").Scan(&exists); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to check products table: %w", err)
		}
		if !exists {
			pool.Close()
			return nil, fmt.Errorf("%w: products table", ErrStoreNotFound)
		}
	}

	s := &PostgresStore{
		pool:   pool,
		runID:  o.runID,
		logger: o.logger,
	}

	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM products").Scan(&s.count); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	s.logger.Debug("opened postgres store", "host", cfg.ConnConfig.Host, "rows", s.count)
	return s, nil
}

// HasProductLink implements Store.
func (s *PostgresStore) HasProductLink(ctx context.Context, link string) (bool, error) {
	return s.exists(ctx, "SELECT 1 FROM products WHERE product_link = $1 LIMIT 1", link)
}

// HasBrand implements Store.
func (s *PostgresStore) HasBrand(ctx context.Context, brand string) (bool, error) {
	return s.exists(ctx, "SELECT 1 FROM products WHERE brand = $1 LIMIT 1", brand)
}

func (s *PostgresStore) exists(ctx context.Context, query, arg string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, query, arg).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query products: %w", err)
	}
	return true, nil
}

// Append implements Store.
func (s *PostgresStore) Append(ctx context.Context, row model.Row) error {
	if row.ProductLink == "" {
		return ErrEmptyProductLink
	}

	attrs, err := encodeAttributes(row.Attributes)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tag, err := s.pool.Exec(ctx, `
	INSERT INTO products (brand, product_name, product_link, attributes, run_id)
	VALUES ($1, $2, $3, $4::jsonb, $5)
	ON CONFLICT (product_link) DO NOTHING
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
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateProduct, row.ProductLink)
	}

	s.count++
	return nil
}

// Rows implements Store.
func (s *PostgresStore) Rows(ctx context.Context) ([]model.Row, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT brand, product_name, product_link, attributes::text FROM products ORDER BY id")
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
func (s *PostgresStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.count
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
