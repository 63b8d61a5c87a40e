package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/specscrape/internal/config"
	"github.com/nao1215/specscrape/internal/metrics"
	"github.com/nao1215/specscrape/internal/model"
	"github.com/nao1215/specscrape/internal/store"
)

// Walker enumerates the catalog. *crawler.Walker satisfies it.
type Walker interface {
	WalkListing(ctx context.Context, rootURL string) ([]model.Brand, error)
	WalkProducts(ctx context.Context, brand model.Brand) ([]model.Product, error)
}

// Extractor reads product details. *crawler.Extractor satisfies it.
type Extractor interface {
	ExtractProductDetails(ctx context.Context, link string) (model.Attributes, error)
}

// Pipeline orchestrates a crawl.
type Pipeline struct {
	walker    Walker
	extractor Extractor
	store     store.Store

	// workers is the number of brands processed concurrently.
	workers int

	// resumeMode is config.ResumeBrand or config.ResumeProduct.
	resumeMode string

	// runID tags log lines and the summary.
	runID string

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithWorkers sets how many brands are processed concurrently.
// Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithResumeMode selects config.ResumeBrand or config.ResumeProduct.
// Unknown modes are ignored.
func WithResumeMode(mode string) Option {
	return func(p *Pipeline) {
		if mode == config.ResumeBrand || mode == config.ResumeProduct {
			p.resumeMode = mode
		}
	}
}

// WithRunID sets the run identifier reported in logs and the summary.
func WithRunID(id string) Option {
	return func(p *Pipeline) {
		p.runID = id
	}
}

// WithMetrics records brand and product outcomes into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// New creates a Pipeline reading the catalog with w and e and writing to s.
func New(w Walker, e Extractor, s store.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		walker:     w,
		extractor:  e,
		store:      s,
		workers:    1,
		resumeMode: config.ResumeBrand,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.runID != "" {
		p.logger = p.logger.With("run_id", p.runID)
	}

	return p
}

// run holds the counters of one Run call.
type run struct {
	mu      sync.Mutex
	summary *model.Summary
}

// add applies fn to the summary under the lock.
func (r *run) add(fn func(s *model.Summary)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.summary)
}

// Run crawls the catalog rooted at rootURL. The returned summary is never
// nil, also when the run is aborted.
func (p *Pipeline) Run(ctx context.Context, rootURL string) (*model.Summary, error) {
	r := &run{summary: &model.Summary{
		RunID:     p.runID,
		RootURL:   rootURL,
		StartedAt: time.Now(),
	}}

	p.logger.Info("starting crawl",
		"root_url", rootURL,
		"workers", p.workers,
		"resume", p.resumeMode,
		"stored_rows", p.store.Len(),
	)

	brands, err := p.walker.WalkListing(ctx, rootURL)
	if err != nil {
		r.summary.FinishedAt = time.Now()
		return r.summary, fmt.Errorf("failed to walk root listing: %w", err)
	}
	r.summary.BrandsSeen = len(brands)
	p.logger.Info("found brands", "count", len(brands))

	err = p.processBrands(ctx, brands, func(ctx context.Context, brand model.Brand) error {
		return p.processBrand(ctx, r, brand)
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.summary
	s.FinishedAt = time.Now()

	if err != nil {
		p.logger.Warn("crawl aborted",
			"error", err,
			"products_stored", s.ProductsStored,
			"elapsed", s.Elapsed(),
		)
		return s, err
	}

	p.logger.Info("crawl complete",
		"brands", s.BrandsSeen,
		"brands_skipped", s.BrandsSkipped,
		"brands_failed", s.BrandsFailed,
		"products", s.ProductsSeen,
		"products_skipped", s.ProductsSkipped,
		"products_stored", s.ProductsStored,
		"products_failed", s.ProductsFailed,
		"elapsed", s.Elapsed(),
	)
	return s, nil
}

// processBrand handles one brand. Only errors that must stop the whole run
// are returned.
func (p *Pipeline) processBrand(ctx context.Context, r *run, brand model.Brand) error {
	logger := p.logger.With("brand", brand.Name)

	if p.resumeMode == config.ResumeBrand {
		stored, err := p.store.HasBrand(ctx, brand.Name)
		if err != nil {
			return fmt.Errorf("failed to look up brand %q: %w", brand.Name, err)
		}
		if stored {
			logger.Info("skipping brand, already stored")
			r.add(func(s *model.Summary) { s.BrandsSkipped++ })
			p.metrics.IncBrand(metrics.OutcomeSkipped)
			return nil
		}
	}

	logger.Info("processing brand", "url", brand.URL)

	products, err := p.walker.WalkProducts(ctx, brand)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.Error("failed to walk brand listing", "error", err)
		r.add(func(s *model.Summary) { s.BrandsFailed++ })
		p.metrics.IncBrand(metrics.OutcomeFailed)
		return nil
	}
	r.add(func(s *model.Summary) { s.ProductsSeen += len(products) })

	for _, product := range products {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.processProduct(ctx, r, logger, product); err != nil {
			return err
		}
	}

	p.metrics.IncBrand(metrics.OutcomeProcessed)
	logger.Info("brand done", "products", len(products))
	return nil
}

// processProduct extracts and stores one product unless it is stored.
func (p *Pipeline) processProduct(ctx context.Context, r *run, logger *slog.Logger, product model.Product) error {
	stored, err := p.store.HasProductLink(ctx, product.Link)
	if err != nil {
		return fmt.Errorf("failed to look up product %s: %w", product.Link, err)
	}
	if stored {
		logger.Debug("skipping product, already stored", "product", product.Name)
		r.add(func(s *model.Summary) { s.ProductsSkipped++ })
		p.metrics.IncProduct(metrics.OutcomeSkipped)
		return nil
	}

	logger.Info("processing product", "product", product.Name, "url", product.Link)

	attrs, err := p.extractor.ExtractProductDetails(ctx, product.Link)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.Error("failed to extract product", "product", product.Name, "error", err)
		r.add(func(s *model.Summary) { s.ProductsFailed++ })
		p.metrics.IncProduct(metrics.OutcomeFailed)
		return nil
	}

	if err := p.store.Append(ctx, model.NewRow(product, attrs)); err != nil {
		if errors.Is(err, store.ErrDuplicateProduct) {
			// Another worker stored the same link first.
			r.add(func(s *model.Summary) { s.ProductsSkipped++ })
			p.metrics.IncProduct(metrics.OutcomeSkipped)
			return nil
		}
		return fmt.Errorf("failed to store product %s: %w", product.Link, err)
	}

	r.add(func(s *model.Summary) { s.ProductsStored++ })
	p.metrics.IncProduct(metrics.OutcomeStored)
	logger.Debug("stored product", "product", product.Name, "attributes", attrs.Len())
	return nil
}
