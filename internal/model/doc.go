// Package model defines the core data structures used throughout specscrape.
//
// This package contains the following main types:
//   - Brand and Product: catalog coordinates discovered by the walker
//   - Attributes: the ordered attribute mapping extracted from a detail page
//   - Row: one persisted record in the store
//   - Summary: counters describing a single crawl run
//   - StoreSummary: an aggregated view over every row in a store
//
// Models live in their own package so that the crawler, store, pipeline and
// report packages can share them without import cycles.
package model
