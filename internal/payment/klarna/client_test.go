package klarna

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/ordenes-ecom/internal/apperr"
	"github.com/MikeMC777/ordenes-ecom/internal/payment"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func checkout(total string) payment.Checkout {
	return payment.Checkout{
		Reference: "order-1",
		Lines: []payment.Line{
			{ProductID: "p1", Name: "Keyboard", Quantity: 2, UnitPrice: dec("10")},
			{ProductID: "p2", Name: "Mouse", Quantity: 1, UnitPrice: dec("5")},
		},
		Total:           dec(total),
		ShippingAddress: payment.Address{StreetAddress: "1 Main St", City: "New York", Country: "US"},
	}
}

func newTestClient(url string) *Client {
	return New(Options{
		BaseURL:         url + "/",
		Username:        "PK_test",
		Password:        "secret",
		ConfirmationURL: "https://shop.test/confirm",
		NotificationURL: "https://shop.test/orders/webhook",
		Timeout:         time.Second,
		MaxRetries:      3,
		BaseBackoff:     time.Millisecond,
		MaxBackoff:      2 * time.Millisecond,
	})
}

func okSession(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(`{"order_id":"kl-123","status":"checkout_incomplete","html_snippet":"<div/>","redirect_url":"https://pay.test/kl-123"}`))
}

func TestCreateOrderSendsPayload(t *testing.T) {
	var got orderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/v3/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "PK_test", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		okSession(w)
	}))
	defer srv.Close()

	sess, err := newTestClient(srv.URL).CreateOrder(context.Background(), checkout("25"))
	require.NoError(t, err)
	assert.Equal(t, "kl-123", sess.OrderID)
	assert.Equal(t, "https://pay.test/kl-123", sess.RedirectURL)

	assert.Equal(t, "US", got.PurchaseCountry)
	assert.Equal(t, "USD", got.PurchaseCurrency)
	assert.Equal(t, "en-US", got.Locale)
	assert.EqualValues(t, 2500, got.OrderAmount)
	assert.EqualValues(t, 0, got.OrderTaxAmount)
	assert.Equal(t, "order-1", got.MerchantReference1)
	assert.Equal(t, "https://shop.test/orders/webhook", got.MerchantURLs.Notification)
	require.Len(t, got.OrderLines, 2)
	assert.Equal(t, "Keyboard", got.OrderLines[0].Name)
	assert.EqualValues(t, 1000, got.OrderLines[0].UnitPrice)
	assert.EqualValues(t, 2000, got.OrderLines[0].TotalAmount)
	require.NotNil(t, got.ShippingAddress)
	assert.Equal(t, "New York", got.ShippingAddress.City)
}

func TestCreateOrderAddsDiscountLine(t *testing.T) {
	var got orderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		okSession(w)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateOrder(context.Background(), checkout("20"))
	require.NoError(t, err)

	assert.EqualValues(t, 2000, got.OrderAmount)
	require.Len(t, got.OrderLines, 3)
	last := got.OrderLines[2]
	assert.Equal(t, "discount", last.Type)
	assert.EqualValues(t, -500, last.TotalAmount)

	var sum int64
	for _, l := range got.OrderLines {
		sum += l.TotalAmount
	}
	assert.Equal(t, got.OrderAmount, sum)
}

func TestCreateOrderRejectsFractionalCents(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		okSession(w)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateOrder(context.Background(), checkout("25.001"))
	assert.ErrorIs(t, err, payment.ErrFractionalAmount)
	assert.Zero(t, calls.Load())
}

func TestCreateOrderRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			okSession(w)
		}
	}))
	defer srv.Close()

	sess, err := newTestClient(srv.URL).CreateOrder(context.Background(), checkout("25"))
	require.NoError(t, err)
	assert.Equal(t, "kl-123", sess.OrderID)
	assert.EqualValues(t, 3, calls.Load())
}

func TestCreateOrderDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":"BAD_VALUE","error_messages":["Bad value: order_amount"],"correlation_id":"c1"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateOrder(context.Background(), checkout("25"))
	require.Error(t, err)

	var gerr *payment.GatewayError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, http.StatusBadRequest, gerr.Status)
	assert.Equal(t, "BAD_VALUE", gerr.Code)
	assert.Equal(t, "Bad value: order_amount", gerr.Message)
	assert.False(t, gerr.Retryable)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.EqualValues(t, 1, calls.Load())
}

func TestCreateOrderGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateOrder(context.Background(), checkout("25"))
	var gerr *payment.GatewayError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, http.StatusBadGateway, gerr.Status)
	assert.True(t, gerr.Retryable)
	assert.EqualValues(t, 4, calls.Load())
}

func TestCreateOrderOpensCircuit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var outcomes []string
	c := New(Options{
		BaseURL:         srv.URL,
		Timeout:         time.Second,
		MaxRetries:      0,
		BreakerFailures: 2,
		BreakerCooldown: time.Minute,
		Observe:         func(outcome string, _ time.Duration) { outcomes = append(outcomes, outcome) },
	})

	for i := 0; i < 2; i++ {
		_, err := c.CreateOrder(context.Background(), checkout("25"))
		require.Error(t, err)
	}
	_, err := c.CreateOrder(context.Background(), checkout("25"))

	var gerr *payment.GatewayError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "circuit_open", gerr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, gerr.Status)
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, []string{"error", "error", "circuit_open"}, outcomes)
}

func TestCreateOrderHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, MaxRetries: 5, BaseBackoff: time.Hour, MaxBackoff: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.CreateOrder(ctx, checkout("25"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}
