package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPayable(t *testing.T) {
	discounted := dec("20")
	zero := decimal.Zero

	cases := []struct {
		name string
		cart Cart
		want string
	}{
		{"list price", Cart{TotalPrice: dec("25")}, "25"},
		{"discounted", Cart{TotalPrice: dec("25"), TotalPriceAfterDiscount: &discounted}, "20"},
		{"zero discount ignored", Cart{TotalPrice: dec("25"), TotalPriceAfterDiscount: &zero}, "25"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.cart.Payable().Equal(dec(tc.want)), "got %s", tc.cart.Payable())
		})
	}
}

func TestLineTotal(t *testing.T) {
	c := Cart{Items: []Item{
		{ProductID: "p1", Quantity: 2, Price: dec("10")},
		{ProductID: "p2", Quantity: 1, Price: dec("5")},
	}}
	assert.True(t, c.LineTotal().Equal(dec("25")))
}
