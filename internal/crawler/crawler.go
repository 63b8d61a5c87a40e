package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/specscrape/internal/config"
)

// Fetcher retrieves the text of a page.
// *fetcher.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// options holds the settings shared by Walker and Extractor.
type options struct {
	selectors config.Selectors
	logger    *slog.Logger
}

// Option configures a Walker or an Extractor.
type Option func(*options)

// WithSelectors sets the CSS selectors describing the catalog markup.
// Empty fields keep their defaults.
func WithSelectors(sel config.Selectors) Option {
	return func(o *options) {
		o.selectors = o.selectors.Merge(sel)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		selectors: config.DefaultSelectors(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// fetchDocument fetches rawURL and parses it.
func fetchDocument(ctx context.Context, f Fetcher, rawURL string) (*goquery.Document, error) {
	body, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", rawURL, err)
	}
	return doc, nil
}

// resolveHref resolves the href attribute of anchor against base.
// ok is false when the anchor has no href or the href cannot be parsed.
func resolveHref(base *url.URL, anchor *goquery.Selection) (resolved *url.URL, href string, ok bool) {
	href, exists := anchor.Attr("href")
	if !exists {
		return nil, "", false
	}

	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, href, false
	}
	return base.ResolveReference(ref), href, true
}

// pageKey identifies a page in the visited set.
func pageKey(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	return c.String()
}
