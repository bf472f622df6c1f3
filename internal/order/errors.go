package order

import (
	"errors"
	"fmt"

	"github.com/MikeMC777/ordenes-ecom/internal/apperr"
)

var (
	ErrNotFound  = errors.New("order not found")
	ErrEmptyCart = fmt.Errorf("%w: cart has no items", apperr.ErrValidation)
)

// NotFoundError names the missing resource. The message is safe to show clients.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

func (e *NotFoundError) Is(target error) bool {
	return target == apperr.ErrNotFound || (e.Resource == "Order" && target == ErrNotFound)
}

// UnhandledEventError is a webhook event this service does not act on.
type UnhandledEventError struct {
	EventType string
}

func (e *UnhandledEventError) Error() string { return "Unhandled event type " + e.EventType }

func (e *UnhandledEventError) Is(target error) bool { return target == apperr.ErrValidation }
