package cart

import (
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/cart"
)

// AuthState is the per-request authentication signal supplied by the auth
// subsystem. Credential is the raw bearer token forwarded to the commerce
// platform on authenticated calls.
type AuthState struct {
	Authenticated bool
	UserID        string
	Credential    string
}

// AddItemRequest carries a product snapshot from the storefront UI. The
// unit price is the standalone price shown at add time; it is never the
// bundle price.
type AddItemRequest struct {
	ProductID int64           `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Variant   string          `json:"variant"`
}

// ItemView is the presentation shape of a cart line
type ItemView struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Variant   string `json:"variant,omitempty"`
	BundleID  *int64 `json:"bundle_id,omitempty"`
}

// BundleView is the presentation shape of a tracked bundle
type BundleView struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	SalePrice        string  `json:"sale_price"`
	OriginalPrice    string  `json:"original_price"`
	MemberProductIDs []int64 `json:"member_product_ids"`
}

// CartView is the full cart as exposed to the presentation layer. Totals
// are recomputed on every read, never cached.
type CartView struct {
	Items      []ItemView   `json:"items"`
	Bundles    []BundleView `json:"bundles"`
	TotalItems int          `json:"total_items"`
	TotalPrice string       `json:"total_price"`
	Currency   string       `json:"currency"`
}

// ToCartView builds the presentation view from current cart state
func ToCartView(c *cart.Cart) *CartView {
	items := c.Items()
	bundles := c.Bundles()
	totals := cart.ComputeTotals(c.ItemsByProduct(), bundles)

	view := &CartView{
		Items:      make([]ItemView, 0, len(items)),
		Bundles:    make([]BundleView, 0, len(bundles)),
		TotalItems: totals.TotalItems,
		TotalPrice: totals.TotalPrice.StringFixed(2),
		Currency:   string(totals.TotalPrice.Currency()),
	}
	for _, item := range items {
		view.Items = append(view.Items, ItemView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Variant:   item.Variant,
			BundleID:  item.BundleID,
		})
	}
	for _, b := range bundles {
		view.Bundles = append(view.Bundles, BundleView{
			ID:               b.ID,
			Name:             b.Name,
			SalePrice:        b.SalePrice.StringFixed(2),
			OriginalPrice:    b.OriginalPrice.StringFixed(2),
			MemberProductIDs: b.MemberProductIDs,
		})
	}
	return view
}
