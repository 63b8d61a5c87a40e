package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/specscrape/internal/model"
)

// timeLayout formats timestamps in every text report.
const timeLayout = "2006-01-02 15:04:05 MST"

// SimpleWriter outputs human-readable text reports.
type SimpleWriter struct {
	baseWriter

	// maxBrands limits the brand table. 0 shows every brand.
	maxBrands int
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithMaxBrands limits the number of brands listed. 0 lists all of them.
func WithMaxBrands(n int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.maxBrands = n
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteRun outputs the run counters.
func (w *SimpleWriter) WriteRun(s *model.Summary) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "CRAWL SUMMARY")

	fmt.Fprintf(&sb, "Run ID:     %s\n", s.RunID)
	fmt.Fprintf(&sb, "Root URL:   %s\n", s.RootURL)
	fmt.Fprintf(&sb, "Started:    %s\n", s.StartedAt.Format(timeLayout))
	fmt.Fprintf(&sb, "Elapsed:    %s\n", s.Elapsed().Round(time.Second))
	sb.WriteString("\n")

	writeSection(&sb, "BRANDS")
	fmt.Fprintf(&sb, "  seen:     %d\n", s.BrandsSeen)
	fmt.Fprintf(&sb, "  skipped:  %d\n", s.BrandsSkipped)
	fmt.Fprintf(&sb, "  failed:   %d\n", s.BrandsFailed)
	sb.WriteString("\n")

	writeSection(&sb, "PRODUCTS")
	fmt.Fprintf(&sb, "  seen:     %d\n", s.ProductsSeen)
	fmt.Fprintf(&sb, "  skipped:  %d\n", s.ProductsSkipped)
	fmt.Fprintf(&sb, "  stored:   %d\n", s.ProductsStored)
	fmt.Fprintf(&sb, "  failed:   %d\n", s.ProductsFailed)
	sb.WriteString("\n")

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

// WriteStore outputs the store overview.
func (w *SimpleWriter) WriteStore(s *model.StoreSummary) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "STORE REPORT")

	fmt.Fprintf(&sb, "Store:          %s\n", s.Source)
	fmt.Fprintf(&sb, "Generated:      %s\n", s.GeneratedAt.Format(timeLayout))
	fmt.Fprintf(&sb, "Products:       %d\n", s.TotalRows)
	fmt.Fprintf(&sb, "Without specs:  %d\n", s.RowsWithoutAttributes)
	fmt.Fprintf(&sb, "Brands:         %d\n", len(s.Brands))
	sb.WriteString("\n")

	writeSection(&sb, "PRODUCTS PER BRAND")
	brands := s.Brands
	if w.maxBrands > 0 && len(brands) > w.maxBrands {
		brands = brands[:w.maxBrands]
	}
	if len(brands) == 0 {
		sb.WriteString("  No products stored\n")
	}
	for _, b := range brands {
		fmt.Fprintf(&sb, "  %-40s %6d\n", truncateString(b.Brand, 40), b.Products)
	}
	if hidden := len(s.Brands) - len(brands); hidden > 0 {
		fmt.Fprintf(&sb, "  ... and %d more\n", hidden)
	}
	sb.WriteString("\n")

	if len(s.TopAttributes) > 0 {
		writeSection(&sb, "MOST COMMON ATTRIBUTES")
		for _, a := range s.TopAttributes {
			fmt.Fprintf(&sb, "  %-40s %6d\n", truncateString(a.Name, 40), a.Rows)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func writeBanner(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "%*s\n", 35+len(title)/2, title)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}
