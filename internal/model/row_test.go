package model

import (
	"reflect"
	"testing"
)

// TestRowCells tests the variable-width spreadsheet layout of a row.
func TestRowCells(t *testing.T) {
	t.Parallel()

	t.Run("row without attributes has three cells", func(t *testing.T) {
		t.Parallel()

		r := NewRow(Product{Brand: "Acme", Name: "Rocket", Link: "https://example.com/rocket"}, Attributes{})
		want := []string{"Acme", "Rocket", "https://example.com/rocket"}
		if got := r.Cells(); !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("attributes become trailing columns", func(t *testing.T) {
		t.Parallel()

		attrs := NewAttributes(Attribute{Name: "Speed", Value: "fast"}, Attribute{Name: "Color", Value: "red"})
		r := NewRow(Product{Brand: "Acme", Name: "Rocket", Link: "u"}, attrs)
		want := []string{"Acme", "Rocket", "u", "Speed: fast", "Color: red"}
		if got := r.Cells(); !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})
}

// TestRowFromCells tests reading rows back from spreadsheet cells.
func TestRowFromCells(t *testing.T) {
	t.Parallel()

	t.Run("round trips Cells", func(t *testing.T) {
		t.Parallel()

		attrs := NewAttributes(Attribute{Name: "Speed", Value: "fast; faster"})
		r := NewRow(Product{Brand: "Acme", Name: "Rocket", Link: "u"}, attrs)
		got := RowFromCells(r.Cells())
		if got.Brand != "Acme" || got.ProductName != "Rocket" || got.ProductLink != "u" {
			t.Errorf("unexpected row: %+v", got)
		}
		if v, _ := got.Attributes.Get("Speed"); v != "fast; faster" {
			t.Errorf("expected merged value, got %q", v)
		}
	})

	t.Run("short rows leave fields empty", func(t *testing.T) {
		t.Parallel()

		got := RowFromCells([]string{"OnlyBrand"})
		if got.Brand != "OnlyBrand" || got.ProductName != "" || got.ProductLink != "" {
			t.Errorf("unexpected row: %+v", got)
		}
	})
}
