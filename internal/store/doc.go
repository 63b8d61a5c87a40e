// Package store persists extracted products and answers the dedup queries
// that let a rerun skip work done before.
//
// Three backends implement Store:
//
//   - XLSX (default): a plain spreadsheet. The
//     header is Brand, Product Name, Product Link; every row then carries
//     one "Name: Value" column per attribute, so row widths differ.
//   - SQLite (.db, .sqlite, .sqlite3): one products table with the
//     attributes serialized as a JSON array.
//   - PostgreSQL (postgres:// or postgresql:// URLs): the same schema with
//     a JSONB attributes column.
//
// Every Append is persisted before it returns. A product link is stored at
// most once; appending a known link returns ErrDuplicateProduct. All
// backends are safe for concurrent use.
package store
