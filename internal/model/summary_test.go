package model

import (
	"testing"
	"time"
)

// TestNewStoreSummary tests aggregation over stored rows.
func TestNewStoreSummary(t *testing.T) {
	t.Parallel()

	rows := []Row{
		NewRow(Product{Brand: "Acme", Name: "A1", Link: "1"}, NewAttributes(Attribute{Name: "Weight", Value: "1"})),
		NewRow(Product{Brand: "Acme", Name: "A2", Link: "2"}, NewAttributes(Attribute{Name: "Weight", Value: "2"}, Attribute{Name: "Color", Value: "red"})),
		NewRow(Product{Brand: "Beta", Name: "B1", Link: "3"}, Attributes{}),
		NewRow(Product{Brand: "Cool", Name: "C1", Link: "4"}, Attributes{}),
	}

	s := NewStoreSummary("test.xlsx", rows)

	if s.TotalRows != 4 {
		t.Errorf("expected 4 rows, got %d", s.TotalRows)
	}
	if s.RowsWithoutAttributes != 2 {
		t.Errorf("expected 2 rows without attributes, got %d", s.RowsWithoutAttributes)
	}
	if len(s.Brands) != 3 {
		t.Fatalf("expected 3 brands, got %d", len(s.Brands))
	}
	if s.Brands[0] != (BrandCount{Brand: "Acme", Products: 2}) {
		t.Errorf("expected Acme first, got %+v", s.Brands[0])
	}
	// Ties are alphabetical.
	if s.Brands[1].Brand != "Beta" || s.Brands[2].Brand != "Cool" {
		t.Errorf("unexpected tie order: %+v", s.Brands)
	}
	if len(s.TopAttributes) != 2 || s.TopAttributes[0] != (AttributeCount{Name: "Weight", Rows: 2}) {
		t.Errorf("unexpected top attributes: %+v", s.TopAttributes)
	}
}

// TestSummaryElapsed tests run duration reporting.
func TestSummaryElapsed(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &Summary{StartedAt: start, FinishedAt: start.Add(90 * time.Second)}
	if s.Elapsed() != 90*time.Second {
		t.Errorf("expected 90s, got %s", s.Elapsed())
	}
}
