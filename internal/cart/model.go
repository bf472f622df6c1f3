// Package cart reads shopping carts for checkout and removes them once an
// order is paid. Cart editing lives in the storefront, not here.
package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Total is the line price times quantity.
func (i Item) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	ID                      string           `json:"id"`
	UserID                  string           `json:"user_id"`
	Items                   []Item           `json:"items"`
	TotalPrice              decimal.Decimal  `json:"total_price"`
	TotalPriceAfterDiscount *decimal.Decimal `json:"total_price_after_discount,omitempty"`
	CreatedAt               time.Time        `json:"created_at"`
	UpdatedAt               time.Time        `json:"updated_at"`
}

// Payable is the discounted total when one is set and positive, else the list total.
func (c *Cart) Payable() decimal.Decimal {
	if d := c.TotalPriceAfterDiscount; d != nil && d.IsPositive() {
		return *d
	}
	return c.TotalPrice
}

// LineTotal sums the items at their list price.
func (c *Cart) LineTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(it.Total())
	}
	return sum
}
