package catalog

import (
	"context"

	"tiffin/internal/models"
)

type staticProvider struct {
	items []models.PricedItem
}

// NewStaticProvider returns a provider backed by a fixed menu.
func NewStaticProvider() Provider {
	return &staticProvider{items: defaultMenu}
}

func (p *staticProvider) ListPurchasableItems(_ context.Context, filter string) ([]models.PricedItem, error) {
	if filter == "" {
		out := make([]models.PricedItem, len(p.items))
		copy(out, p.items)
		return out, nil
	}
	var out []models.PricedItem
	for _, item := range p.items {
		if item.Category == filter {
			out = append(out, item)
		}
	}
	return out, nil
}

var defaultMenu = []models.PricedItem{
	{ID: "52772", Name: "Chicken Biryani", Price: 249, Category: "Chicken"},
	{ID: "52874", Name: "Beef Stroganoff", Price: 299, Category: "Beef"},
	{ID: "52844", Name: "Lasagne", Price: 229, Category: "Pasta"},
	{ID: "52893", Name: "Apple Crumble", Price: 149, Category: "Dessert"},
	{ID: "52965", Name: "Breakfast Potatoes", Price: 99, Category: "Breakfast"},
	{ID: "52977", Name: "Corba", Price: 119, Category: "Side"},
	{ID: "52807", Name: "Baingan Bharta", Price: 159, Category: "Vegetarian"},
	{ID: "53026", Name: "Tamiya", Price: 109, Category: "Vegetarian"},
	{ID: "52951", Name: "Fresh Coffee", Price: 79, Category: "Breakfast"},
	{ID: "52855", Name: "Banana Pancakes", Price: 129, Category: "Dessert"},
}
