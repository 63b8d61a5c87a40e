package model

import (
	"sort"
	"time"
)

// Summary collects the counters of one crawl run.
type Summary struct {
	// RunID identifies the run in logs and in SQL stores.
	RunID string `json:"run_id"`

	// RootURL is the catalog root page the run started from.
	RootURL string `json:"root_url"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	BrandsSeen    int `json:"brands_seen"`
	BrandsSkipped int `json:"brands_skipped"`
	BrandsFailed  int `json:"brands_failed"`

	ProductsSeen    int `json:"products_seen"`
	ProductsSkipped int `json:"products_skipped"`
	ProductsStored  int `json:"products_stored"`
	ProductsFailed  int `json:"products_failed"`
}

// Elapsed returns the wall time of the run.
func (s *Summary) Elapsed() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// BrandCount is the number of stored rows for one brand.
type BrandCount struct {
	Brand    string `json:"brand"`
	Products int    `json:"products"`
}

// AttributeCount is the number of rows carrying a given attribute name.
type AttributeCount struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// StoreSummary is an aggregated view over the rows of a store.
type StoreSummary struct {
	// Source is the store location the summary was built from.
	Source string `json:"source"`

	// GeneratedAt is when the summary was computed.
	GeneratedAt time.Time `json:"generated_at"`

	// TotalRows is the number of persisted products.
	TotalRows int `json:"total_rows"`

	// RowsWithoutAttributes counts products whose detail page had no specs.
	RowsWithoutAttributes int `json:"rows_without_attributes"`

	// Brands lists row counts per brand, largest first.
	Brands []BrandCount `json:"brands"`

	// TopAttributes lists the most frequent attribute names, most common first.
	TopAttributes []AttributeCount `json:"top_attributes"`
}

// MaxTopAttributes bounds StoreSummary.TopAttributes.
const MaxTopAttributes = 20

// NewStoreSummary aggregates rows into a StoreSummary.
// Ties are broken alphabetically so the output is stable.
func NewStoreSummary(source string, rows []Row) *StoreSummary {
	s := &StoreSummary{
		Source:      source,
		GeneratedAt: time.Now(),
		TotalRows:   len(rows),
	}

	brandCounts := make(map[string]int)
	attrCounts := make(map[string]int)
	for _, r := range rows {
		brandCounts[r.Brand]++
		if r.Attributes.Len() == 0 {
			s.RowsWithoutAttributes++
		}
		for _, name := range r.Attributes.Names() {
			attrCounts[name]++
		}
	}

	s.Brands = make([]BrandCount, 0, len(brandCounts))
	for brand, n := range brandCounts {
		s.Brands = append(s.Brands, BrandCount{Brand: brand, Products: n})
	}
	sort.Slice(s.Brands, func(i, j int) bool {
		if s.Brands[i].Products != s.Brands[j].Products {
			return s.Brands[i].Products > s.Brands[j].Products
		}
		return s.Brands[i].Brand < s.Brands[j].Brand
	})

	s.TopAttributes = make([]AttributeCount, 0, len(attrCounts))
	for name, n := range attrCounts {
		s.TopAttributes = append(s.TopAttributes, AttributeCount{Name: name, Rows: n})
	}
	sort.Slice(s.TopAttributes, func(i, j int) bool {
		if s.TopAttributes[i].Rows != s.TopAttributes[j].Rows {
			return s.TopAttributes[i].Rows > s.TopAttributes[j].Rows
		}
		return s.TopAttributes[i].Name < s.TopAttributes[j].Name
	})
	if len(s.TopAttributes) > MaxTopAttributes {
		s.TopAttributes = s.TopAttributes[:MaxTopAttributes]
	}

	return s
}
