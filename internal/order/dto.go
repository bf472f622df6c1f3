package order

import "github.com/MikeMC777/ordenes-ecom/internal/payment"

// CheckoutRequest payload of checkout and order creation.
// swagger:model CheckoutRequest
type CheckoutRequest struct {
	ShippingAddress payment.Address `json:"shippingAddress" binding:"required"`
}

// WebhookRequest is the provider notification.
// swagger:model WebhookRequest
type WebhookRequest struct {
	OrderID   string `json:"order_id"   binding:"required" example:"f6e5b3a0-4f7c-4a5e-9d55-3c0e7e1bde1a"`
	EventType string `json:"event_type" binding:"required" example:"checkout_order_completion"`
}

// CheckoutResponse answer of POST /orders/checkOut/{cartId}.
// swagger:model CheckoutResponse
type CheckoutResponse struct {
	Message     string `json:"message"     example:"Checkout session created"`
	RedirectURL string `json:"redirectUrl" example:"https://pay.playground.klarna.com/..."`
}

// CreateOrderResponse answer of POST /orders/{cartId}.
// swagger:model CreateOrderResponse
type CreateOrderResponse struct {
	Message      string           `json:"message"`
	Order        *Order           `json:"order"`
	GatewayOrder *payment.Session `json:"gatewayOrder"`
}

// OrderResponse answer of GET /orders/mine.
// swagger:model OrderResponse
type OrderResponse struct {
	Message string `json:"message" example:"success"`
	Order   *Order `json:"order"`
}

// OrdersResponse answer of GET /orders.
// swagger:model OrdersResponse
type OrdersResponse struct {
	Message string  `json:"message" example:"success"`
	Orders  []Order `json:"orders"`
}

// MessageResponse is a bare acknowledgement or error.
// swagger:model MessageResponse
type MessageResponse struct {
	Message string `json:"message"`
}
