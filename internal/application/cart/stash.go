package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
)

// Key layout in the durable store. Two logical keys per session scope: the
// anonymous item list, and the bundle overlay (bundles persist for both
// anonymous and authenticated sessions since the commerce platform has no
// bundle concept).
const (
	itemsKeyPrefix   = "cart:items:"
	bundlesKeyPrefix = "cart:bundles:"
)

// Stash persists cart state across reloads through a generic key/value
// store. It owns the key layout and the JSON encoding; the store itself is
// cart-agnostic.
type Stash struct {
	store shared.KeyValueStore
}

// NewStash creates a stash over the given key/value store
func NewStash(store shared.KeyValueStore) *Stash {
	return &Stash{store: store}
}

// LoadItems returns the stashed anonymous items for scope, or nil when absent
func (s *Stash) LoadItems(ctx context.Context, scope string) ([]cart.Item, error) {
	data, ok, err := s.store.Get(ctx, itemsKeyPrefix+scope)
	if err != nil {
		return nil, fmt.Errorf("load stashed items: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var items []cart.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode stashed items: %w", err)
	}
	return items, nil
}

// SaveItems stores the anonymous item list for scope. An empty list removes
// the key so an emptied cart leaves nothing behind.
func (s *Stash) SaveItems(ctx context.Context, scope string, items []cart.Item) error {
	if len(items) == 0 {
		return s.RemoveItems(ctx, scope)
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode stashed items: %w", err)
	}
	return s.store.Set(ctx, itemsKeyPrefix+scope, data)
}

// RemoveItems deletes the stashed item list for scope
func (s *Stash) RemoveItems(ctx context.Context, scope string) error {
	return s.store.Remove(ctx, itemsKeyPrefix+scope)
}

// LoadBundles returns the stashed bundle overlay for scope, or nil when absent
func (s *Stash) LoadBundles(ctx context.Context, scope string) ([]cart.Bundle, error) {
	data, ok, err := s.store.Get(ctx, bundlesKeyPrefix+scope)
	if err != nil {
		return nil, fmt.Errorf("load stashed bundles: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var bundles []cart.Bundle
	if err := json.Unmarshal(data, &bundles); err != nil {
		return nil, fmt.Errorf("decode stashed bundles: %w", err)
	}
	return bundles, nil
}

// SaveBundles stores the bundle overlay for scope, removing the key when empty
func (s *Stash) SaveBundles(ctx context.Context, scope string, bundles []cart.Bundle) error {
	if len(bundles) == 0 {
		return s.RemoveBundles(ctx, scope)
	}
	data, err := json.Marshal(bundles)
	if err != nil {
		return fmt.Errorf("encode stashed bundles: %w", err)
	}
	return s.store.Set(ctx, bundlesKeyPrefix+scope, data)
}

// RemoveBundles deletes the stashed bundle overlay for scope
func (s *Stash) RemoveBundles(ctx context.Context, scope string) error {
	return s.store.Remove(ctx, bundlesKeyPrefix+scope)
}
