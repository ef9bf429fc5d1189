// Package catalog defines the provider interface the core consumes for
// purchasable items. Items arrive already priced; the core never fetches or
// filters catalog data itself.
package catalog

import (
	"context"

	"tiffin/internal/models"
)

// Provider supplies purchasable items. An empty filter returns everything;
// otherwise filter matches the item category.
type Provider interface {
	ListPurchasableItems(ctx context.Context, filter string) ([]models.PricedItem, error)
}
