package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/specscrape/internal/config"
	"github.com/nao1215/specscrape/internal/model"
)

// ListingEntry is one product entry element of a listing page.
type ListingEntry struct {
	// PageURL is the listing page the entry was found on. Product links
	// inside the entry are resolved against it.
	PageURL *url.URL

	// Selection is the entry element.
	Selection *goquery.Selection
}

// Walker enumerates the catalog: brands, listing entries and products.
// It keeps no state between calls and is safe for concurrent use.
type Walker struct {
	fetcher   Fetcher
	selectors config.Selectors
	logger    *slog.Logger
}

// NewWalker creates a Walker that fetches pages through f.
func NewWalker(f Fetcher, opts ...Option) *Walker {
	o := newOptions(opts)
	return &Walker{
		fetcher:   f,
		selectors: o.selectors,
		logger:    o.logger,
	}
}

// WalkListing returns the brands on the root page, in document order.
// For every brand cell, the first anchor gives the brand name (its text)
// and the brand's first listing page (its href, resolved against rootURL).
func (w *Walker) WalkListing(ctx context.Context, rootURL string) ([]model.Brand, error) {
	base, err := url.Parse(rootURL)
	if err != nil {
		return nil, fmt.Errorf("invalid root URL %q: %w", rootURL, err)
	}

	doc, err := fetchDocument(ctx, w.fetcher, rootURL)
	if err != nil {
		return nil, err
	}

	brands := make([]model.Brand, 0)
	doc.Find(w.selectors.BrandCell).Each(func(i int, cell *goquery.Selection) {
		anchor := cell.Find("a").First()
		if anchor.Length() == 0 {
			w.logger.Warn("skipping brand cell without anchor", "index", i)
			return
		}

		name := strings.TrimSpace(anchor.Text())
		resolved, href, ok := resolveHref(base, anchor)
		if !ok {
			w.logger.Warn("skipping brand without usable link", "brand", name, "href", href)
			return
		}

		brands = append(brands, model.Brand{Name: name, URL: resolved.String()})
	})

	return brands, nil
}

// ListingEntries returns every product entry of a brand listing, following
// pagination until no unseen page remains. Entries of the first page come
// first, followed by the entries of each further page in discovery order.
func (w *Walker) ListingEntries(ctx context.Context, listingURL string) ([]ListingEntry, error) {
	start, err := url.Parse(listingURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listing URL %q: %w", listingURL, err)
	}

	visited := map[string]bool{pageKey(start): true}
	queue := []*url.URL{start}
	entries := make([]ListingEntry, 0)

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := queue[0]
		queue = queue[1:]

		w.logger.Info("processing listing page", "url", page.String())

		doc, err := fetchDocument(ctx, w.fetcher, page.String())
		if err != nil {
			return nil, err
		}

		doc.Find(w.selectors.ProductEntry).Each(func(_ int, s *goquery.Selection) {
			entries = append(entries, ListingEntry{PageURL: page, Selection: s})
		})

		for _, next := range w.paginationLinks(doc, page) {
			key := pageKey(next)
			if visited[key] {
				continue
			}
			visited[key] = true
			queue = append(queue, next)
		}
	}

	return entries, nil
}

// paginationLinks returns the resolved links of the pagination control.
func (w *Walker) paginationLinks(doc *goquery.Document, page *url.URL) []*url.URL {
	if w.selectors.Pagination == "" {
		return nil
	}

	links := make([]*url.URL, 0)
	doc.Find(w.selectors.Pagination).Find("a").Each(func(_ int, anchor *goquery.Selection) {
		resolved, href, ok := resolveHref(page, anchor)
		if !ok {
			w.logger.Warn("skipping pagination link", "page", page.String(), "href", href)
			return
		}
		links = append(links, resolved)
	})
	return links
}

// WalkProducts returns the products of a brand. Every anchor inside every
// listing entry is one product, so one entry may yield several products.
// No deduplication happens here.
func (w *Walker) WalkProducts(ctx context.Context, brand model.Brand) ([]model.Product, error) {
	entries, err := w.ListingEntries(ctx, brand.URL)
	if err != nil {
		return nil, err
	}

	products := make([]model.Product, 0)
	for _, entry := range entries {
		entry.Selection.Find("a").Each(func(_ int, anchor *goquery.Selection) {
			name := strings.TrimSpace(anchor.Text())
			resolved, href, ok := resolveHref(entry.PageURL, anchor)
			if !ok {
				w.logger.Warn("skipping product without usable link",
					"brand", brand.Name, "product", name, "href", href)
				return
			}
			products = append(products, model.Product{
				Brand: brand.Name,
				Name:  name,
				Link:  resolved.String(),
			})
		})
	}

	return products, nil
}
