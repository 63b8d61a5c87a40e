// Package config provides configuration structures and utilities for specscrape.
// It defines the crawl target, politeness and retry settings, store location,
// and the CSS selectors describing the catalog markup.
//
// Values are layered from lowest to highest priority: built-in defaults,
// the YAML configuration file, SPECSCRAPE_* environment variables (a .env file
// is loaded first when present), and finally command line flags.
package config
