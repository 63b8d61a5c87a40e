// Package main provides the entry point for the specscrape CLI.
//
// specscrape walks a product catalog (brands, paginated product listings and
// product detail pages), extracts the attribute table of every product and
// appends one row per product to a spreadsheet or database. Reruns skip work
// that is already stored.
//
// Usage:
//
//	specscrape crawl [root-url]
//	specscrape report --store extracted_info.xlsx
//
// See --help for all available options.
package main

// main is the entry point for specscrape.
func main() {
	Execute()
}
