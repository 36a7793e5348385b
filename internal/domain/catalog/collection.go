package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is a collection member with its standalone price
type Product struct {
	ID      int64
	Name    string
	Price   decimal.Decimal
	Variant string
}

// Collection is a read-only snapshot of a multi-product bundle as resolved
// from the catalog at lookup time. Later catalog price changes do not
// retroactively alter a bundle already added to a cart.
type Collection struct {
	ID        int64
	Name      string
	SalePrice decimal.Decimal
	Products  []Product
}

// OriginalPrice returns the sum of the members' standalone prices
func (c *Collection) OriginalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, p := range c.Products {
		total = total.Add(p.Price)
	}
	return total
}

// MemberProductIDs returns the ids of the collection's member products
func (c *Collection) MemberProductIDs() []int64 {
	ids := make([]int64, 0, len(c.Products))
	for _, p := range c.Products {
		ids = append(ids, p.ID)
	}
	return ids
}

// Catalog resolves collection identifiers to their member products and
// sale price
type Catalog interface {
	GetCollection(ctx context.Context, id int64) (*Collection, error)
}
