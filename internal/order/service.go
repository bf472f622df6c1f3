// Package order turns carts into provider checkouts and reconciles them when
// the provider confirms payment.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/MikeMC777/ordenes-ecom/internal/cart"
	"github.com/MikeMC777/ordenes-ecom/internal/logging"
	"github.com/MikeMC777/ordenes-ecom/internal/metrics"
	"github.com/MikeMC777/ordenes-ecom/internal/outbox"
	"github.com/MikeMC777/ordenes-ecom/internal/payment"
)

type CartReader interface {
	GetByID(ctx context.Context, id string) (*cart.Cart, error)
}

type CheckoutResult struct {
	Order   *Order
	Session *payment.Session
}

type ConfirmResult struct {
	Order       *Order
	AlreadyPaid bool
	// Missing lists products that no longer exist; Oversold lists products whose stock went negative.
	Missing  []string
	Oversold []string
}

type Service struct {
	carts   CartReader
	orders  Repository
	gateway payment.Gateway
	log     *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	now   func() time.Time
	newID func() string
}

// NewService wires the reconciliation flow. m may be nil.
func NewService(carts CartReader, orders Repository, gw payment.Gateway, log *zap.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		carts:   carts,
		orders:  orders,
		gateway: gw,
		log:     log,
		metrics: m,
		tracer:  otel.Tracer("github.com/MikeMC777/ordenes-ecom/internal/order"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// InitiateCheckout opens a provider session for the cart and records the
// pending order under the provider's order id, so the webhook always finds it.
func (s *Service) InitiateCheckout(ctx context.Context, cartID string, addr payment.Address) (*CheckoutResult, error) {
	ctx, span := s.tracer.Start(ctx, "order.InitiateCheckout")
	defer span.End()

	res, err := s.createPending(ctx, cartID, addr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

// CreatePendingOrder is InitiateCheckout for callers that want the order
// itself rather than the redirect.
func (s *Service) CreatePendingOrder(ctx context.Context, cartID string, addr payment.Address) (*CheckoutResult, error) {
	ctx, span := s.tracer.Start(ctx, "order.CreatePendingOrder")
	defer span.End()

	res, err := s.createPending(ctx, cartID, addr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

func (s *Service) createPending(ctx context.Context, cartID string, addr payment.Address) (*CheckoutResult, error) {
	log := logging.FromContext(ctx, s.log).With(zap.String("cart_id", cartID))

	c, err := s.carts.GetByID(ctx, cartID)
	if errors.Is(err, cart.ErrNotFound) {
		s.countCheckout("cart_not_found")
		return nil, &NotFoundError{Resource: "Cart", ID: cartID}
	}
	if err != nil {
		s.countCheckout("error")
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(c.Items) == 0 {
		s.countCheckout("empty_cart")
		return nil, ErrEmptyCart
	}

	o := &Order{
		ID:              s.newID(),
		UserID:          c.UserID,
		CartID:          c.ID,
		Items:           make([]Item, len(c.Items)),
		TotalPrice:      c.Payable(),
		ShippingAddress: addr,
		PaymentMethod:   s.gateway.Name(),
		Status:          StatusPending,
	}
	lines := make([]payment.Line, len(c.Items))
	for i, it := range c.Items {
		o.Items[i] = Item{ProductID: it.ProductID, Title: it.Title, Quantity: it.Quantity, Price: it.Price}
		lines[i] = payment.Line{ProductID: it.ProductID, Name: it.Title, Quantity: it.Quantity, UnitPrice: it.Price}
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("order.id", o.ID),
		attribute.String("cart.id", c.ID),
		attribute.String("order.total", o.TotalPrice.String()),
	)

	// Nothing is persisted unless the provider accepted the checkout.
	sess, err := s.gateway.CreateOrder(ctx, payment.Checkout{
		Reference:       o.ID,
		Lines:           lines,
		Total:           o.TotalPrice,
		ShippingAddress: addr,
	})
	if err != nil {
		s.countCheckout("gateway_error")
		log.Warn("payment gateway rejected checkout", zap.Error(err))
		return nil, fmt.Errorf("create %s order: %w", s.gateway.Name(), err)
	}
	o.GatewayOrderID = sess.OrderID

	if err := s.orders.Create(ctx, o); err != nil {
		s.countCheckout("error")
		// The provider session exists without a local order; it expires on the provider side.
		log.Error("persist pending order",
			zap.String("gateway_order_id", sess.OrderID), zap.Error(err))
		return nil, fmt.Errorf("save order: %w", err)
	}

	s.countCheckout("created")
	log.Info("pending order created",
		zap.String("order_id", o.ID),
		zap.String("gateway_order_id", o.GatewayOrderID),
		zap.String("total", o.TotalPrice.StringFixed(2)))
	return &CheckoutResult{Order: o, Session: sess}, nil
}

// ConfirmPayment applies a provider notification. A completion event marks the
// order paid, moves stock, removes the user's cart and queues an order.paid
// event in one transaction. Replays of an already paid order change nothing.
func (s *Service) ConfirmPayment(ctx context.Context, gatewayOrderID, eventType string) (*ConfirmResult, error) {
	ctx, span := s.tracer.Start(ctx, "order.ConfirmPayment", trace.WithAttributes(
		attribute.String("gateway.order_id", gatewayOrderID),
		attribute.String("gateway.event_type", eventType),
	))
	defer span.End()
	log := logging.FromContext(ctx, s.log).With(
		zap.String("gateway_order_id", gatewayOrderID), zap.String("event_type", eventType))

	res := &ConfirmResult{}
	err := s.orders.InTx(ctx, func(tx TxRepository) error {
		o, err := tx.LockByGatewayID(ctx, gatewayOrderID)
		if errors.Is(err, ErrNotFound) {
			return &NotFoundError{Resource: "Order", ID: gatewayOrderID}
		}
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}
		res.Order = o

		if eventType != EventCheckoutCompleted {
			return &UnhandledEventError{EventType: eventType}
		}
		if o.IsPaid {
			res.AlreadyPaid = true
			return nil
		}

		if err := o.MarkPaid(s.now().UTC()); err != nil {
			return err
		}
		if err := tx.MarkPaid(ctx, o); err != nil {
			return err
		}

		levels, err := tx.ApplySale(ctx, o.SaleLines())
		if err != nil {
			return fmt.Errorf("apply sale: %w", err)
		}
		for _, lvl := range levels {
			switch {
			case lvl.Missing:
				res.Missing = append(res.Missing, lvl.ProductID)
			case lvl.Quantity < 0:
				res.Oversold = append(res.Oversold, lvl.ProductID)
			}
		}

		if _, err := tx.DeleteCartsByUser(ctx, o.UserID); err != nil {
			return err
		}

		ev, err := outbox.NewEvent(o.ID, EventOrderPaid, paidEvent(o))
		if err != nil {
			return err
		}
		return tx.Enqueue(ctx, ev)
	})

	var (
		nf *NotFoundError
		ue *UnhandledEventError
	)
	switch {
	case errors.As(err, &nf):
		s.countWebhook("not_found")
		log.Warn("webhook for unknown order")
		return nil, err
	case errors.As(err, &ue):
		s.countWebhook("unhandled")
		log.Info("webhook event ignored")
		return nil, err
	case err != nil:
		s.countWebhook("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	case res.AlreadyPaid:
		s.countWebhook("duplicate")
		log.Info("order already paid", zap.String("order_id", res.Order.ID))
		return res, nil
	}

	if len(res.Missing) > 0 {
		log.Warn("paid order references deleted products", zap.Strings("product_ids", res.Missing))
	}
	if len(res.Oversold) > 0 {
		log.Warn("paid order oversold stock", zap.Strings("product_ids", res.Oversold))
	}
	s.countWebhook("paid")
	log.Info("order paid", zap.String("order_id", res.Order.ID))
	return res, nil
}

// GetOrder returns the user's most recent order.
func (s *Service) GetOrder(ctx context.Context, userID string) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.GetOrder")
	defer span.End()

	o, err := s.orders.LatestByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, &NotFoundError{Resource: "Order", ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, limit, offset int) ([]Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.ListOrders")
	defer span.End()

	orders, err := s.orders.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *Service) countCheckout(result string) {
	if s.metrics != nil {
		s.metrics.Checkouts.WithLabelValues(result).Inc()
	}
}

func (s *Service) countWebhook(outcome string) {
	if s.metrics != nil {
		s.metrics.WebhookEvents.WithLabelValues(outcome).Inc()
	}
}
