package store

import "errors"

var (
	// ErrDuplicateProduct is returned by Append when the product link is
	// already stored. Nothing is written.
	ErrDuplicateProduct = errors.New("product link already stored")

	// ErrStoreNotFound is returned when a store opened with
	// WithCreateIfNotExists(false) does not exist.
	ErrStoreNotFound = errors.New("store not found")

	// ErrHeaderMismatch is returned when an existing spreadsheet does not
	// start with the expected header row.
	ErrHeaderMismatch = errors.New("spreadsheet header mismatch")

	// ErrEmptyProductLink is returned by Append for rows without a link.
	ErrEmptyProductLink = errors.New("product link is empty")
)
