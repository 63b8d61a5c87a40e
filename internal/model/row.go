package model

// Header is the fixed header row of the spreadsheet store.
var Header = []string{"Brand", "Product Name", "Product Link"}

// Row is one persisted record. ProductLink is the primary dedup key and is
// unique across the store.
type Row struct {
	Brand       string     `json:"brand"`
	ProductName string     `json:"product_name"`
	ProductLink string     `json:"product_link"`
	Attributes  Attributes `json:"attributes"`
}

// NewRow builds a Row for a product and its extracted attributes.
func NewRow(p Product, attrs Attributes) Row {
	return Row{
		Brand:       p.Brand,
		ProductName: p.Name,
		ProductLink: p.Link,
		Attributes:  attrs,
	}
}

// Cells returns the spreadsheet cells for the row: brand, product name,
// product link, then one "Name: Value" column per attribute. Rows therefore
// have different widths.
func (r Row) Cells() []string {
	cells := make([]string, 0, len(Header)+r.Attributes.Len())
	cells = append(cells, r.Brand, r.ProductName, r.ProductLink)
	return append(cells, r.Attributes.Columns()...)
}

// RowFromCells is the inverse of Cells. Missing leading cells are left empty.
func RowFromCells(cells []string) Row {
	var r Row
	if len(cells) > 0 {
		r.Brand = cells[0]
	}
	if len(cells) > 1 {
		r.ProductName = cells[1]
	}
	if len(cells) > 2 {
		r.ProductLink = cells[2]
	}
	if len(cells) > len(Header) {
		r.Attributes = AttributesFromColumns(cells[len(Header):])
	}
	return r
}
