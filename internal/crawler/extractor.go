package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/specscrape/internal/config"
	"github.com/nao1215/specscrape/internal/model"
)

// Extractor reads the attribute table of product detail pages.
type Extractor struct {
	fetcher   Fetcher
	selectors config.Selectors
	logger    *slog.Logger
}

// NewExtractor creates an Extractor that fetches pages through f.
func NewExtractor(f Fetcher, opts ...Option) *Extractor {
	o := newOptions(opts)
	return &Extractor{
		fetcher:   f,
		selectors: o.selectors,
		logger:    o.logger,
	}
}

// ExtractProductDetails fetches the detail page at link and returns its
// attributes. A page without a detail container yields empty attributes.
func (e *Extractor) ExtractProductDetails(ctx context.Context, link string) (model.Attributes, error) {
	body, err := e.fetcher.Fetch(ctx, link)
	if err != nil {
		return model.Attributes{}, fmt.Errorf("failed to fetch product page %s: %w", link, err)
	}

	attrs, err := ParseDetails(strings.NewReader(body), e.selectors)
	if err != nil {
		return model.Attributes{}, fmt.Errorf("failed to parse product page %s: %w", link, err)
	}

	e.logger.Debug("extracted product details", "url", link, "attributes", attrs.Len())
	return attrs, nil
}

// ParseDetails reads the attribute table from a detail page.
//
// Inside the first element matching the container selector, every row with
// exactly two cells contributes one attribute: the trimmed text of the first
// cell is the name, the trimmed text of the second the value. Rows with any
// other cell count are ignored. A repeated name merges its values with "; ".
func ParseDetails(r io.Reader, sel config.Selectors) (model.Attributes, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return model.Attributes{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	attrs := model.NewAttributes()

	container := doc.Find(sel.DetailContainer).First()
	if container.Length() == 0 {
		return attrs, nil
	}

	container.Find(sel.DetailRow).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find(sel.DetailCell)
		if cells.Length() != 2 {
			return
		}
		name := strings.TrimSpace(cells.Eq(0).Text())
		value := strings.TrimSpace(cells.Eq(1).Text())
		attrs.Add(name, value)
	})

	return attrs, nil
}
