// Package crawler walks a hierarchical catalog and extracts product details.
//
// # Components
//
//   - Walker: enumerates brands on the root page, product entries on every
//     brand listing page (following pagination), and products inside entries.
//   - Extractor: turns a product detail page into ordered attributes.
//
// Both fetch pages through a Fetcher, which owns politeness and retries,
// and query the markup with goquery using configurable CSS selectors.
//
// # Pagination
//
// Listing pages are walked with a work queue. Every fetched page is checked
// for pagination links, and every link not seen before is queued, so pages
// that are only reachable from other paginated pages are still found.
//
// # Missing markup
//
// Absent containers yield empty results. A brand cell, product anchor or
// pagination anchor without a usable href is skipped with a warning.
//
// # Usage
//
//	walker := crawler.NewWalker(f, crawler.WithLogger(logger))
//	brands, err := walker.WalkListing(ctx, rootURL)
//	products, err := walker.WalkProducts(ctx, brands[0])
//
//	extractor := crawler.NewExtractor(f)
//	attrs, err := extractor.ExtractProductDetails(ctx, products[0].Link)
package crawler
