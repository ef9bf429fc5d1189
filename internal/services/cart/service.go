// Package cart holds the session's selected items and computes the subtotal.
// Lines are keyed by item id, ordered by insertion, and written through to
// the store on every mutation.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tiffin/internal/models"
	"tiffin/internal/repositories"
)

// Service is the cart owned by the current session.
type Service interface {
	Add(ctx context.Context, item models.PricedItem, quantity int) error
	SetQuantity(ctx context.Context, itemID string, quantity int) error
	Remove(ctx context.Context, itemID string) error
	Clear(ctx context.Context) error
	Items() []models.CartLine
	Total() models.Money
}

type service struct {
	store repositories.Store
	key   string
	lines []models.CartLine
}

// NewService creates a cart for the session, rehydrating any persisted lines.
// A missing snapshot means an empty cart, not an error.
func NewService(ctx context.Context, store repositories.Store, sessionID string) (Service, error) {
	if store == nil {
		panic("store is required")
	}

	s := &service{store: store, key: repositories.CartKey(sessionID)}

	raw, err := store.Get(ctx, s.key)
	if errors.Is(err, repositories.ErrKeyNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if err := json.Unmarshal(raw, &s.lines); err != nil {
		return nil, fmt.Errorf("failed to decode cart snapshot: %w", err)
	}
	return s, nil
}

// Add merges quantity into the existing line for the item, or inserts a new
// line snapshotting the item's name, price and image as of now.
func (s *service) Add(ctx context.Context, item models.PricedItem, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	if line := s.find(item.ID); line != nil {
		line.Quantity += quantity
	} else {
		s.lines = append(s.lines, models.CartLine{
			ItemID:    item.ID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  quantity,
			ImageURL:  item.ImageURL,
		})
	}
	return s.persist(ctx)
}

// SetQuantity replaces the line's quantity. Zero or negative removes the
// line. An absent item id is a no-op.
func (s *service) SetQuantity(ctx context.Context, itemID string, quantity int) error {
	line := s.find(itemID)
	if line == nil {
		return nil
	}
	if quantity <= 0 {
		s.drop(itemID)
	} else {
		line.Quantity = quantity
	}
	return s.persist(ctx)
}

// Remove deletes the line if present. Idempotent.
func (s *service) Remove(ctx context.Context, itemID string) error {
	if s.find(itemID) == nil {
		return nil
	}
	s.drop(itemID)
	return s.persist(ctx)
}

// Clear empties the cart and removes the persisted snapshot.
func (s *service) Clear(ctx context.Context) error {
	s.lines = nil
	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Items returns a copy of the current lines in insertion order.
func (s *service) Items() []models.CartLine {
	out := make([]models.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Total recomputes the subtotal from the current lines on every call so it
// can never drift from them.
func (s *service) Total() models.Money {
	var total models.Money
	for _, line := range s.lines {
		total += line.Subtotal()
	}
	return total
}

func (s *service) find(itemID string) *models.CartLine {
	for i := range s.lines {
		if s.lines[i].ItemID == itemID {
			return &s.lines[i]
		}
	}
	return nil
}

func (s *service) drop(itemID string) {
	kept := s.lines[:0]
	for _, line := range s.lines {
		if line.ItemID != itemID {
			kept = append(kept, line)
		}
	}
	s.lines = kept
}

func (s *service) persist(ctx context.Context) error {
	raw, err := json.Marshal(s.lines)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}
	if err := s.store.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}
