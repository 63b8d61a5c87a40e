package model

// Brand is one brand cell on the catalog root page.
type Brand struct {
	// Name is the trimmed anchor text.
	Name string `json:"name"`

	// URL is the brand's first listing page, resolved against the root URL.
	URL string `json:"url"`
}

// Product is one product anchor found inside a listing entry.
type Product struct {
	// Brand is the name of the brand whose listing contained the product.
	Brand string `json:"brand"`

	// Name is the trimmed anchor text.
	Name string `json:"name"`

	// Link is the absolute URL of the product's detail page.
	Link string `json:"link"`
}
