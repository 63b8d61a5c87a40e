package config

// Selectors are the CSS selectors describing the catalog markup.
// The defaults match the GSMArena catalog layout.
type Selectors struct {
	// BrandCell selects the cells on the root page; the first anchor of each
	// cell is a brand.
	BrandCell string `yaml:"brandCell,omitempty"`

	// ProductEntry selects the product entry elements on a listing page.
	// Every anchor inside an entry is one product.
	ProductEntry string `yaml:"productEntry,omitempty"`

	// Pagination selects the pagination control on a listing page.
	// Empty disables pagination.
	Pagination string `yaml:"pagination,omitempty"`

	// DetailContainer selects the attribute table container on a detail page.
	DetailContainer string `yaml:"detailContainer,omitempty"`

	// DetailRow selects the rows inside the container.
	DetailRow string `yaml:"detailRow,omitempty"`

	// DetailCell selects the cells inside a row.
	DetailCell string `yaml:"detailCell,omitempty"`
}

// DefaultSelectors returns the selectors of the default catalog.
func DefaultSelectors() Selectors {
	return Selectors{
		BrandCell:       "td",
		ProductEntry:    "div.makers",
		Pagination:      "div.nav-pages",
		DetailContainer: "div#specs-list",
		DetailRow:       "tr",
		DetailCell:      "td",
	}
}

// Merge returns s with every non-empty field of override applied.
func (s Selectors) Merge(override Selectors) Selectors {
	if override.BrandCell != "" {
		s.BrandCell = override.BrandCell
	}
	if override.ProductEntry != "" {
		s.ProductEntry = override.ProductEntry
	}
	if override.Pagination != "" {
		s.Pagination = override.Pagination
	}
	if override.DetailContainer != "" {
		s.DetailContainer = override.DetailContainer
	}
	if override.DetailRow != "" {
		s.DetailRow = override.DetailRow
	}
	if override.DetailCell != "" {
		s.DetailCell = override.DetailCell
	}
	return s
}

// Validate reports ErrEmptySelector when a required selector is blank.
// Pagination may be empty.
func (s Selectors) Validate() error {
	if s.BrandCell == "" || s.ProductEntry == "" || s.DetailContainer == "" ||
		s.DetailRow == "" || s.DetailCell == "" {
		return ErrEmptySelector
	}
	return nil
}
