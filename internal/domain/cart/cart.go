package cart

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Item represents a line in the cart. UnitPrice is a snapshot of the
// product's standalone price at the time it was added, never the bundle
// price. Variant is informational only and does not affect pricing.
type Item struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Variant   string          `json:"variant,omitempty"`
	BundleID  *int64          `json:"bundle_id,omitempty"`
	RemoteID  *int64          `json:"remote_id,omitempty"`
}

// Bundle is the cart-local tracking record of a multi-product collection
// sold at a combined discounted price. The commerce platform has no bundle
// concept; bundles are a client-side pricing overlay derived from the
// catalog at the moment the bundle is added.
type Bundle struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	SalePrice        decimal.Decimal `json:"sale_price"`
	OriginalPrice    decimal.Decimal `json:"original_price"`
	MemberProductIDs []int64         `json:"member_product_ids"`
}

// HasMember reports whether productID is part of this bundle
func (b Bundle) HasMember(productID int64) bool {
	for _, id := range b.MemberProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// IsComplete reports whether every member product is present in items with
// quantity >= 1. Completeness is re-derived on every call, never cached.
func (b Bundle) IsComplete(items map[int64]Item) bool {
	for _, id := range b.MemberProductIDs {
		item, ok := items[id]
		if !ok || item.Quantity < 1 {
			return false
		}
	}
	return true
}

// Cart is the in-memory aggregate owning items and bundle records.
// All state transitions are pure in-memory operations; the cart never
// performs I/O. Invalid input (unknown product, non-positive quantity on
// add) is a silent no-op rather than an error.
//
// Cart is not safe for concurrent use; the owning coordinator serializes
// access per session.
type Cart struct {
	items   map[int64]Item
	bundles []Bundle
}

// NewCart creates an empty cart
func NewCart() *Cart {
	return &Cart{items: make(map[int64]Item)}
}

// AddItem inserts a new item or increments the quantity of an existing one.
// An existing item keeps its bundle membership when the new call supplies
// none. Quantity < 1 is an explicit non-mutation.
func (c *Cart) AddItem(productID int64, quantity int, unitPrice decimal.Decimal, variant string, bundleID *int64) {
	if quantity < 1 {
		return
	}
	if existing, ok := c.items[productID]; ok {
		existing.Quantity += quantity
		if bundleID != nil {
			existing.BundleID = bundleID
		}
		c.items[productID] = existing
		return
	}
	c.items[productID] = Item{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Variant:   variant,
		BundleID:  bundleID,
	}
}

// RemoveItem deletes the item and prunes every bundle that is no longer
// complete. An incomplete bundle is dropped rather than kept in a partial
// state; its discount is only valid while every member is in the cart.
func (c *Cart) RemoveItem(productID int64) {
	if _, ok := c.items[productID]; !ok {
		return
	}
	delete(c.items, productID)
	c.pruneIncompleteBundles()
}

// UpdateQuantity sets the quantity to an absolute value. A quantity <= 0
// removes the item entirely.
func (c *Cart) UpdateQuantity(productID int64, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}
	item, ok := c.items[productID]
	if !ok {
		return
	}
	item.Quantity = quantity
	c.items[productID] = item
}

// Clear empties both items and bundles
func (c *Cart) Clear() {
	c.items = make(map[int64]Item)
	c.bundles = nil
}

// AddBundle records the bundle and adds one of each member product.
// Idempotent by bundle id: a bundle already in the cart is not duplicated
// and its members are not re-added. Members already present as individual
// items have their quantity incremented, not reset.
func (c *Cart) AddBundle(b Bundle, members []Item) {
	if c.HasBundle(b.ID) {
		return
	}
	c.bundles = append(c.bundles, b)
	for _, m := range members {
		bundleID := b.ID
		c.AddItem(m.ProductID, 1, m.UnitPrice, m.Variant, &bundleID)
	}
}

// RemoveBundle removes every member item of the bundle and then drops the
// bundle record itself. Unknown bundle ids are a no-op.
func (c *Cart) RemoveBundle(bundleID int64) {
	var target *Bundle
	for i := range c.bundles {
		if c.bundles[i].ID == bundleID {
			target = &c.bundles[i]
			break
		}
	}
	if target == nil {
		return
	}
	for _, productID := range target.MemberProductIDs {
		delete(c.items, productID)
	}
	remaining := c.bundles[:0]
	for _, b := range c.bundles {
		if b.ID != bundleID {
			remaining = append(remaining, b)
		}
	}
	c.bundles = remaining
	c.pruneIncompleteBundles()
}

// HasBundle reports whether a bundle with the given id is tracked
func (c *Cart) HasBundle(bundleID int64) bool {
	for _, b := range c.bundles {
		if b.ID == bundleID {
			return true
		}
	}
	return false
}

// ReplaceItems swaps the full item set, used when the commerce platform's
// cart is reloaded after a remote mutation. Bundle records survive the
// reload but are pruned if the reload no longer contains all their members.
func (c *Cart) ReplaceItems(items []Item) {
	c.items = make(map[int64]Item, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			continue
		}
		c.items[item.ProductID] = item
	}
	c.pruneIncompleteBundles()
}

// SetBundles replaces the bundle records, used when rehydrating the local
// bundle overlay from durable storage at session start.
func (c *Cart) SetBundles(bundles []Bundle) {
	c.bundles = append([]Bundle(nil), bundles...)
	c.pruneIncompleteBundles()
}

// Items returns a copy of the items ordered by ascending product id
func (c *Cart) Items() []Item {
	items := make([]Item, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items
}

// ItemsByProduct returns a copy of the item map keyed by product id
func (c *Cart) ItemsByProduct() map[int64]Item {
	items := make(map[int64]Item, len(c.items))
	for id, item := range c.items {
		items[id] = item
	}
	return items
}

// Item returns the item for productID, if present
func (c *Cart) Item(productID int64) (Item, bool) {
	item, ok := c.items[productID]
	return item, ok
}

// Bundles returns a copy of the tracked bundle records
func (c *Cart) Bundles() []Bundle {
	return append([]Bundle(nil), c.bundles...)
}

// IsEmpty reports whether the cart has no items and no bundles
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0 && len(c.bundles) == 0
}

func (c *Cart) pruneIncompleteBundles() {
	remaining := c.bundles[:0]
	for _, b := range c.bundles {
		if b.IsComplete(c.items) {
			remaining = append(remaining, b)
		}
	}
	if len(remaining) == 0 {
		c.bundles = nil
		return
	}
	c.bundles = remaining
}
