package klarna

import (
	"fmt"

	"github.com/MikeMC777/ordenes-ecom/internal/payment"
)

type orderLine struct {
	Type           string `json:"type,omitempty"`
	Reference      string `json:"reference,omitempty"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPrice      int64  `json:"unit_price"`
	TaxRate        int64  `json:"tax_rate"`
	TotalAmount    int64  `json:"total_amount"`
	TotalTaxAmount int64  `json:"total_tax_amount"`
}

type merchantURLs struct {
	Confirmation string `json:"confirmation"`
	Notification string `json:"notification,omitempty"`
}

type orderRequest struct {
	PurchaseCountry    string           `json:"purchase_country"`
	PurchaseCurrency   string           `json:"purchase_currency"`
	Locale             string           `json:"locale"`
	OrderAmount        int64            `json:"order_amount"`
	OrderTaxAmount     int64            `json:"order_tax_amount"`
	OrderLines         []orderLine      `json:"order_lines"`
	ShippingAddress    *payment.Address `json:"shipping_address,omitempty"`
	MerchantURLs       merchantURLs     `json:"merchant_urls"`
	MerchantReference1 string           `json:"merchant_reference1,omitempty"`
}

// buildOrder prices every line in minor units. When the payable total is below
// the line sum the difference goes in as a discount line so that order_amount
// equals the sum of total_amount, which Klarna enforces.
func (c *Client) buildOrder(co payment.Checkout) (*orderRequest, error) {
	total, err := payment.MinorUnits(co.Total)
	if err != nil {
		return nil, fmt.Errorf("order total: %w", err)
	}

	lines := make([]orderLine, 0, len(co.Lines)+1)
	var sum int64
	for _, l := range co.Lines {
		unit, err := payment.MinorUnits(l.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("line %s: %w", l.ProductID, err)
		}
		amount := unit * int64(l.Quantity)
		sum += amount
		lines = append(lines, orderLine{
			Type:        "physical",
			Reference:   l.ProductID,
			Name:        l.Name,
			Quantity:    l.Quantity,
			UnitPrice:   unit,
			TotalAmount: amount,
		})
	}
	if discount := sum - total; discount > 0 {
		lines = append(lines, orderLine{
			Type:        "discount",
			Reference:   "cart-discount",
			Name:        "Cart discount",
			Quantity:    1,
			UnitPrice:   -discount,
			TotalAmount: -discount,
		})
	}

	var addr *payment.Address
	if co.ShippingAddress != (payment.Address{}) {
		a := co.ShippingAddress
		addr = &a
	}
	return &orderRequest{
		PurchaseCountry:    c.opts.Country,
		PurchaseCurrency:   c.opts.Currency,
		Locale:             c.opts.Locale,
		OrderAmount:        total,
		OrderLines:         lines,
		ShippingAddress:    addr,
		MerchantURLs:       merchantURLs{Confirmation: c.opts.ConfirmationURL, Notification: c.opts.NotificationURL},
		MerchantReference1: co.Reference,
	}, nil
}
