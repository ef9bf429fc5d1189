package models

// CartLine is one selected item in the cart. Name, price and image are
// snapshotted from the catalog item at the time of the first add and are
// never re-fetched.
type CartLine struct {
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	UnitPrice Money  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"image_url,omitempty"`
}

// Subtotal returns unit price times quantity for this line.
func (l CartLine) Subtotal() Money {
	return l.UnitPrice * Money(l.Quantity)
}
