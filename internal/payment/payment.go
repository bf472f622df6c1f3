// Package payment defines what the order service needs from a hosted checkout
// provider and the error every provider failure is reported as.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/ordenes-ecom/internal/apperr"
)

// ErrFractionalAmount means a price has sub-cent precision, which is a catalog
// configuration problem rather than something to round away.
var ErrFractionalAmount = errors.New("amount has fractional minor units")

// Address is the shipping address forwarded to the provider.
// swagger:model Address
type Address struct {
	GivenName     string `json:"given_name,omitempty"     example:"Jane"`
	FamilyName    string `json:"family_name,omitempty"    example:"Doe"`
	Email         string `json:"email,omitempty"          binding:"omitempty,email" example:"jane@example.com"`
	Phone         string `json:"phone,omitempty"`
	StreetAddress string `json:"street_address"           binding:"required" example:"1 Main St"`
	PostalCode    string `json:"postal_code,omitempty"    example:"10001"`
	City          string `json:"city"                     binding:"required" example:"New York"`
	Region        string `json:"region,omitempty"         example:"NY"`
	Country       string `json:"country"                  binding:"required,len=2" example:"US"`
}

// Line is one priced cart line.
type Line struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Checkout is everything a provider needs to open a session.
type Checkout struct {
	// Reference is the local order id, echoed back by the provider.
	Reference       string
	Lines           []Line
	Total           decimal.Decimal
	ShippingAddress Address
}

// Session is the provider's answer to a new checkout.
type Session struct {
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirect_url,omitempty"`
	HTMLSnippet string `json:"html_snippet,omitempty"`
}

type Gateway interface {
	// Name identifies the provider and is stored as the order's payment method.
	Name() string
	CreateOrder(ctx context.Context, co Checkout) (*Session, error)
}

// GatewayError is a failed provider call after retries. Status is the HTTP
// status the provider returned, or 0 when it was never reached.
type GatewayError struct {
	Provider  string
	Status    int
	Code      string
	Message   string
	Retryable bool
	Err       error
}

func (e *GatewayError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, msg)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, msg)
}

func (e *GatewayError) Unwrap() error { return e.Err }

func (e *GatewayError) Is(target error) bool { return target == apperr.ErrUpstream }

// MinorUnits converts an amount to integer cents.
func MinorUnits(d decimal.Decimal) (int64, error) {
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("%w: %s", ErrFractionalAmount, d)
	}
	return cents.IntPart(), nil
}
