// Package pipeline drives one crawl: catalog walk, detail extraction and
// persistence.
//
// For every brand on the root page the Pipeline decides whether work is
// already done (see config.ResumeBrand and config.ResumeProduct), walks
// the brand's products, extracts the details of every product not yet stored and
// appends one row per product.
//
// Failures are split in two groups. A brand whose listing cannot be walked
// or a product whose page cannot be extracted is logged, counted and
// skipped. A failure to read the root page, a store error or context
// cancellation stops the run; rows persisted so far stay intact.
//
// Brands are processed by a bounded errgroup. With one worker, the default,
// the crawl is strictly sequential in page order.
package pipeline
