// Package metrics exposes crawl counters in the Prometheus text format.
//
// Every Metrics value owns its registry, so tests and multiple crawls in one
// process never collide on the global registerer. A nil *Metrics is valid
// and records nothing, which lets components take metrics as an option.
package metrics
