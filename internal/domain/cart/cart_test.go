package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func price(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func testBundle() (Bundle, []Item) {
	b := Bundle{
		ID:               10,
		Name:             "Starter Kit",
		SalePrice:        price(900),
		OriginalPrice:    price(1100),
		MemberProductIDs: []int64{1, 2},
	}
	members := []Item{
		{ProductID: 1, UnitPrice: price(500)},
		{ProductID: 2, UnitPrice: price(600)},
	}
	return b, members
}

// ============================================
// Item Tests
// ============================================

func TestCart_AddItem_MergesQuantity(t *testing.T) {
	c := NewCart()
	c.AddItem(5, 1, price(19.99), "", nil)
	c.AddItem(5, 1, price(19.99), "", nil)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(5), items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestCart_AddItem_NonPositiveQuantityIsNoOp(t *testing.T) {
	c := NewCart()
	c.AddItem(5, 0, price(19.99), "", nil)
	c.AddItem(5, -3, price(19.99), "", nil)
	assert.True(t, c.IsEmpty())
}

func TestCart_AddItem_PreservesBundleMembership(t *testing.T) {
	c := NewCart()
	bundleID := int64(10)
	c.AddItem(1, 1, price(500), "", &bundleID)

	// A later add without a bundle id must not detach the item
	c.AddItem(1, 1, price(500), "", nil)

	item, ok := c.Item(1)
	require.True(t, ok)
	require.NotNil(t, item.BundleID)
	assert.Equal(t, bundleID, *item.BundleID)
	assert.Equal(t, 2, item.Quantity)
}

func TestCart_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		removed  bool
		want     int
	}{
		{"absolute set", 7, false, 7},
		{"zero removes", 0, true, 0},
		{"negative removes", -1, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCart()
			c.AddItem(3, 2, price(10), "", nil)
			c.UpdateQuantity(3, tt.quantity)

			item, ok := c.Item(3)
			assert.Equal(t, !tt.removed, ok)
			if !tt.removed {
				assert.Equal(t, tt.want, item.Quantity)
			}
		})
	}
}

func TestCart_UpdateQuantity_UnknownProductIsNoOp(t *testing.T) {
	c := NewCart()
	c.UpdateQuantity(99, 5)
	assert.True(t, c.IsEmpty())
}

func TestCart_RemoveItem_UnknownProductIsNoOp(t *testing.T) {
	c := NewCart()
	c.AddItem(1, 1, price(5), "", nil)
	c.RemoveItem(99)
	assert.Len(t, c.Items(), 1)
}

// ============================================
// Bundle Tests
// ============================================

func TestCart_AddBundle_AddsAllMembers(t *testing.T) {
	c := NewCart()
	b, members := testBundle()
	c.AddBundle(b, members)

	items := c.Items()
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, 1, item.Quantity)
		require.NotNil(t, item.BundleID)
		assert.Equal(t, b.ID, *item.BundleID)
	}
	require.Len(t, c.Bundles(), 1)
}

func TestCart_AddBundle_Idempotent(t *testing.T) {
	c := NewCart()
	b, members := testBundle()
	c.AddBundle(b, members)
	c.AddBundle(b, members)

	assert.Len(t, c.Bundles(), 1)
	item, _ := c.Item(1)
	assert.Equal(t, 1, item.Quantity, "second add must not re-add members")
}

func TestCart_AddBundle_IncrementsExistingItems(t *testing.T) {
	c := NewCart()
	c.AddItem(1, 2, price(500), "", nil)

	b, members := testBundle()
	c.AddBundle(b, members)

	item, ok := c.Item(1)
	require.True(t, ok)
	assert.Equal(t, 3, item.Quantity, "existing quantity is incremented, not reset")
}

func TestCart_RemoveItem_PrunesIncompleteBundle(t *testing.T) {
	c := NewCart()
	b, members := testBundle()
	c.AddBundle(b, members)

	c.RemoveItem(1)

	assert.Empty(t, c.Bundles(), "bundle missing a member must be dropped")
	_, ok := c.Item(2)
	assert.True(t, ok, "remaining member stays as an individual item")
}

func TestCart_RemoveBundle_RemovesMembersAndRecord(t *testing.T) {
	c := NewCart()
	b, members := testBundle()
	c.AddBundle(b, members)
	c.AddItem(7, 1, price(30), "", nil)

	c.RemoveBundle(b.ID)

	assert.Empty(t, c.Bundles())
	_, ok := c.Item(1)
	assert.False(t, ok)
	_, ok = c.Item(2)
	assert.False(t, ok)
	_, ok = c.Item(7)
	assert.True(t, ok, "unrelated item survives")
}

func TestCart_RemoveBundle_UnknownIDIsNoOp(t *testing.T) {
	c := NewCart()
	b, members := testBundle()
	c.AddBundle(b, members)

	c.RemoveBundle(999)

	assert.Len(t, c.Bundles(), 1)
	assert.Len(t, c.Items(), 2)
}

func TestCart_Clear(t *testing.T) {
	c := NewCart()
	b, members := testBundle()
	c.AddBundle(b, members)
	c.AddItem(7, 1, price(30), "", nil)

	c.Clear()

	assert.True(t, c.IsEmpty())
}

// ============================================
// Reload / Rehydration Tests
// ============================================

func TestCart_ReplaceItems_KeepsCompleteBundles(t *testing.T) {
	c := NewCart()
	b, members := testBundle()
	c.AddBundle(b, members)

	remoteID1, remoteID2 := int64(101), int64(102)
	c.ReplaceItems([]Item{
		{ProductID: 1, Quantity: 2, UnitPrice: price(500), RemoteID: &remoteID1},
		{ProductID: 2, Quantity: 1, UnitPrice: price(600), RemoteID: &remoteID2},
	})

	assert.Len(t, c.Bundles(), 1, "bundle overlay survives a server reload")
	item, _ := c.Item(1)
	assert.Equal(t, 2, item.Quantity, "server quantities are authoritative")
}

func TestCart_ReplaceItems_PrunesBrokenBundles(t *testing.T) {
	c := NewCart()
	b, members := testBundle()
	c.AddBundle(b, members)

	c.ReplaceItems([]Item{{ProductID: 2, Quantity: 1, UnitPrice: price(600)}})

	assert.Empty(t, c.Bundles())
}

func TestCart_SetBundles_DropsBundlesWithoutItems(t *testing.T) {
	c := NewCart()
	c.AddItem(1, 1, price(500), "", nil)
	c.AddItem(2, 1, price(600), "", nil)

	b, _ := testBundle()
	orphan := Bundle{ID: 20, Name: "Orphan", SalePrice: price(50), MemberProductIDs: []int64{8, 9}}
	c.SetBundles([]Bundle{b, orphan})

	bundles := c.Bundles()
	require.Len(t, bundles, 1)
	assert.Equal(t, b.ID, bundles[0].ID)
}

func TestBundle_IsComplete(t *testing.T) {
	b, _ := testBundle()

	complete := map[int64]Item{
		1: {ProductID: 1, Quantity: 1},
		2: {ProductID: 2, Quantity: 3},
	}
	assert.True(t, b.IsComplete(complete))

	missing := map[int64]Item{1: {ProductID: 1, Quantity: 1}}
	assert.False(t, b.IsComplete(missing))

	zeroQty := map[int64]Item{
		1: {ProductID: 1, Quantity: 1},
		2: {ProductID: 2, Quantity: 0},
	}
	assert.False(t, b.IsComplete(zeroQty))
}
