package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/nao1215/specscrape/internal/model"
)

// Store is an append-only product table with dedup lookups.
type Store interface {
	// HasProductLink reports whether a row with exactly this product link
	// exists.
	HasProductLink(ctx context.Context, link string) (bool, error)

	// HasBrand reports whether any row with exactly this brand exists.
	HasBrand(ctx context.Context, brand string) (bool, error)

	// Append adds row and persists it before returning.
	Append(ctx context.Context, row model.Row) error

	// Rows returns every stored row in insertion order.
	Rows(ctx context.Context) ([]model.Row, error)

	// Len returns the number of stored rows.
	Len() int

	// Close releases the store.
	Close() error
}

// Backend identifies a store implementation.
type Backend string

// Supported backends.
const (
	BackendXLSX     Backend = "xlsx"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// BackendFor picks the backend for a store target.
// postgres:// and postgresql:// URLs select PostgreSQL, .db, .sqlite and
// .sqlite3 files select SQLite, and anything else is a spreadsheet.
func BackendFor(target string) Backend {
	lower := strings.ToLower(target)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return BackendPostgres
	}
	switch filepath.Ext(lower) {
	case ".db", ".sqlite", ".sqlite3":
		return BackendSQLite
	default:
		return BackendXLSX
	}
}

// options holds the settings shared by all backends.
type options struct {
	runID             string
	createIfNotExists bool
	logger            *slog.Logger
}

// Option configures a store.
type Option func(*options)

// WithRunID tags rows appended by this process. Only the SQL backends
// persist it.
func WithRunID(id string) Option {
	return func(o *options) {
		o.runID = id
	}
}

// WithCreateIfNotExists controls whether a missing store is created.
// It defaults to true; read-only users such as reports pass false.
func WithCreateIfNotExists(create bool) Option {
	return func(o *options) {
		o.createIfNotExists = create
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		createIfNotExists: true,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open opens the store at target with the backend chosen by BackendFor.
func Open(ctx context.Context, target string, opts ...Option) (Store, error) {
	switch BackendFor(target) {
	case BackendPostgres:
		return OpenPostgres(ctx, target, opts...)
	case BackendSQLite:
		return OpenSQLite(ctx, target, opts...)
	default:
		return OpenXLSX(target, opts...)
	}
}

// encodeAttributes serializes attributes for the SQL backends.
func encodeAttributes(attrs model.Attributes) (string, error) {
	data, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("failed to serialize attributes: %w", err)
	}
	return string(data), nil
}

// decodeAttributes is the inverse of encodeAttributes.
func decodeAttributes(data string) (model.Attributes, error) {
	var attrs model.Attributes
	if data == "" {
		return attrs, nil
	}
	if err := json.Unmarshal([]byte(data), &attrs); err != nil {
		return attrs, fmt.Errorf("failed to parse attributes: %w", err)
	}
	return attrs, nil
}
