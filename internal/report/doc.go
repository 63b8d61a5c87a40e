// Package report renders crawl results for people and tools.
//
// Two views are supported: the Summary of one crawl run, printed when a
// crawl ends, and the StoreSummary of a whole store, produced by the report
// command. Each view can be written as plain text, Markdown or JSON.
package report
