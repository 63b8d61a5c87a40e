package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/specscrape/internal/model"
)

// defaultSheet is the sheet created for new spreadsheets.
const defaultSheet = "Sheet1"

// defaultFileMode is the permission of newly created spreadsheets.
const defaultFileMode = 0644

// XLSXStore keeps rows in a spreadsheet. The whole workbook is held in
// memory and rewritten after every append.
type XLSXStore struct {
	mu sync.Mutex

	path  string
	file  *excelize.File
	sheet string

	// nextRow is the 1-based spreadsheet row the next append goes to.
	nextRow int

	// links and brands index the stored rows for the dedup lookups.
	links  map[string]struct{}
	brands map[string]struct{}
	count  int

	logger *slog.Logger
}

// OpenXLSX loads the spreadsheet at path, or creates it with the header row.
func OpenXLSX(path string, opts ...Option) (*XLSXStore, error) {
	o := newOptions(opts)

	s := &XLSXStore{
		path:   path,
		links:  make(map[string]struct{}),
		brands: make(map[string]struct{}),
		logger: o.logger,
	}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err := s.load(); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist):
		if !o.createIfNotExists {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, path)
		}
		if err := s.create(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to check store path: %w", err)
	}

	return s, nil
}

// load reads an existing workbook and builds the indexes.
func (s *XLSXStore) load() error {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to open spreadsheet %s: %w", s.path, err)
	}

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		_ = f.Close() //nolint:errcheck // already failing
		return fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	s.file = f
	s.sheet = sheet

	if len(rows) == 0 {
		if err := s.writeRow(1, model.Header); err != nil {
			_ = f.Close() //nolint:errcheck // already failing
			return err
		}
		s.nextRow = 2
		return nil
	}

	if len(rows[0]) < len(model.Header) || !slices.Equal(rows[0][:len(model.Header)], model.Header) {
		_ = f.Close() //nolint:errcheck // already failing
		return fmt.Errorf("%w: %s starts with %v", ErrHeaderMismatch, s.path, rows[0])
	}

	for _, cells := range rows[1:] {
		if len(cells) == 0 {
			continue
		}
		s.index(model.RowFromCells(cells))
	}
	s.nextRow = len(rows) + 1

	s.logger.Debug("loaded spreadsheet store", "path", s.path, "rows", s.count)
	return nil
}

// create starts a new workbook holding only the header and saves it.
func (s *XLSXStore) create() error {
	s.file = excelize.NewFile()
	s.sheet = defaultSheet

	if err := s.writeRow(1, model.Header); err != nil {
		return err
	}
	s.nextRow = 2

	if err := s.save(); err != nil {
		_ = s.file.Close() //nolint:errcheck // already failing
		return err
	}

	s.logger.Debug("created spreadsheet store", "path", s.path)
	return nil
}

// index records a stored row in the lookup maps.
func (s *XLSXStore) index(row model.Row) {
	s.links[row.ProductLink] = struct{}{}
	s.brands[row.Brand] = struct{}{}
	s.count++
}

// writeRow writes cells into the given 1-based row.
func (s *XLSXStore) writeRow(rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", rowNum, err)
	}

	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := s.file.SetSheetRow(s.sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

// save writes the workbook to a temporary file next to the target and
// renames it over the target, so the file on disk is always complete.
// The permissions of an existing target are kept.
func (s *XLSXStore) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	mode := os.FileMode(defaultFileMode)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, ".specscrape-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()        //nolint:errcheck // already failing
		_ = os.Remove(tmpName) //nolint:errcheck // best effort cleanup
		return fmt.Errorf("failed to set spreadsheet permissions: %w", err)
	}

	if err := s.file.Write(tmp); err != nil {
		_ = tmp.Close()        //nolint:errcheck // already failing
		_ = os.Remove(tmpName) //nolint:errcheck // best effort cleanup
		return fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // best effort cleanup
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // best effort cleanup
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// HasProductLink implements Store.
func (s *XLSXStore) HasProductLink(_ context.Context, link string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.links[link]
	return ok, nil
}

// HasBrand implements Store.
func (s *XLSXStore) HasBrand(_ context.Context, brand string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.brands[brand]
	return ok, nil
}

// Append implements Store. The workbook is saved before Append returns.
func (s *XLSXStore) Append(_ context.Context, row model.Row) error {
	if row.ProductLink == "" {
		return ErrEmptyProductLink
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[row.ProductLink]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProduct, row.ProductLink)
	}

	if err := s.writeRow(s.nextRow, row.Cells()); err != nil {
		return err
	}
	if err := s.save(); err != nil {
		// Drop the unsaved row so memory matches the file.
		_ = s.file.RemoveRow(s.sheet, s.nextRow) //nolint:errcheck // already failing
		return err
	}

	s.nextRow++
	s.index(row)
	return nil
}

// Rows implements Store.
func (s *XLSXStore) Rows(_ context.Context) ([]model.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cells, err := s.file.GetRows(s.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", s.sheet, err)
	}

	rows := make([]model.Row, 0, len(cells))
	for i, c := range cells {
		if i == 0 || len(c) == 0 {
			continue
		}
		rows = append(rows, model.RowFromCells(c))
	}
	return rows, nil
}

// Len implements Store.
func (s *XLSXStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.count
}

// Close implements Store.
func (s *XLSXStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.file.Close()
}
