package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/ordenes-ecom/internal/payment"
	"github.com/MikeMC777/ordenes-ecom/internal/product"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// EventCheckoutCompleted is the only webhook event that moves an order forward.
const EventCheckoutCompleted = "checkout_order_completion"

// EventOrderPaid is the outbox event type written on confirmation.
const EventOrderPaid = "order.paid"

var transitions = map[Status][]Status{
	StatusPending: {StatusPaid},
	StatusPaid:    {},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Item is a line copied from the cart at checkout. It never changes afterwards.
type Item struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	// Product is the current catalog entry, attached on reads only.
	Product *product.Ref `json:"product,omitempty"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	CartID          string          `json:"cart_id"`
	Items           []Item          `json:"items"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	ShippingAddress payment.Address `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	GatewayOrderID  string          `json:"gateway_order_id"`
	Status          Status          `json:"status"`
	IsPaid          bool            `json:"is_paid"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// MarkPaid moves a pending order to paid.
func (o *Order) MarkPaid(at time.Time) error {
	if !o.Status.CanTransitionTo(StatusPaid) {
		return fmt.Errorf("order %s: cannot move from %s to %s", o.ID, o.Status, StatusPaid)
	}
	o.Status = StatusPaid
	o.IsPaid = true
	o.PaidAt = &at
	return nil
}

// SaleLines is the inventory movement for the snapshot.
func (o *Order) SaleLines() []product.SaleLine {
	lines := make([]product.SaleLine, len(o.Items))
	for i, it := range o.Items {
		lines[i] = product.SaleLine{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return lines
}

// PaidEvent is the payload of EventOrderPaid.
type PaidEvent struct {
	OrderID        string     `json:"order_id"`
	UserID         string     `json:"user_id"`
	GatewayOrderID string     `json:"gateway_order_id"`
	PaymentMethod  string     `json:"payment_method"`
	TotalPrice     string     `json:"total_price"`
	PaidAt         time.Time  `json:"paid_at"`
	Items          []PaidItem `json:"items"`
}

type PaidItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func paidEvent(o *Order) PaidEvent {
	ev := PaidEvent{
		OrderID:        o.ID,
		UserID:         o.UserID,
		GatewayOrderID: o.GatewayOrderID,
		PaymentMethod:  o.PaymentMethod,
		TotalPrice:     o.TotalPrice.StringFixed(2),
		Items:          make([]PaidItem, len(o.Items)),
	}
	if o.PaidAt != nil {
		ev.PaidAt = *o.PaidAt
	}
	for i, it := range o.Items {
		ev.Items[i] = PaidItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return ev
}
