package cart

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Totals is the computed view over a cart's items and bundles
type Totals struct {
	TotalItems int
	TotalPrice valueobject.Money
}

// ComputeTotals derives the item count and the bundle-discounted total from
// the current cart state. It is a pure function: completeness is checked
// against the quantities passed in, not against anything recorded when a
// bundle was added, so a stale bundle record can never leak a discount.
//
// A complete bundle contributes its sale price exactly once, covering all
// of its members regardless of their individual unit price or quantity.
// Members of an incomplete or already-counted bundle are priced
// individually at unitPrice * quantity.
//
// Items are walked in ascending product id order so the result is
// deterministic. When two bundles share a member product the first bundle
// in slice order claims it; overlapping bundles are not expected from the
// catalog.
func ComputeTotals(items map[int64]Item, bundles []Bundle) Totals {
	totalItems := 0
	price := decimal.Zero
	processed := make(map[int64]bool, len(bundles))

	productIDs := make([]int64, 0, len(items))
	for id := range items {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	for _, id := range productIDs {
		item := items[id]
		totalItems += item.Quantity

		if b, ok := findBundleForProduct(bundles, id); ok {
			if processed[b.ID] {
				continue
			}
			if b.IsComplete(items) {
				price = price.Add(b.SalePrice)
				processed[b.ID] = true
				continue
			}
		}
		price = price.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return Totals{
		TotalItems: totalItems,
		TotalPrice: valueobject.NewMoneyUSD(price),
	}
}

func findBundleForProduct(bundles []Bundle, productID int64) (Bundle, bool) {
	for _, b := range bundles {
		if b.HasMember(productID) {
			return b, true
		}
	}
	return Bundle{}, false
}
