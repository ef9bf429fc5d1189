package models

// PricedItem is a purchasable item as supplied by the catalog provider,
// already priced. The core never fetches or filters catalog data itself.
type PricedItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    Money  `json:"price"`
	Category string `json:"category,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}
