// Package klarna opens Klarna Checkout (v3) orders.
package klarna

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/MikeMC777/ordenes-ecom/internal/config"
	"github.com/MikeMC777/ordenes-ecom/internal/payment"
)

const (
	Provider = "klarna"

	ordersPath = "/checkout/v3/orders"
	maxBody    = 1 << 20
)

type Options struct {
	BaseURL         string
	Username        string
	Password        string
	ConfirmationURL string
	NotificationURL string
	Country         string
	Currency        string
	Locale          string

	Timeout     time.Duration // per attempt
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration

	// Breaker trips after this many consecutive failed calls and half-opens after BreakerCooldown.
	BreakerFailures uint32
	BreakerCooldown time.Duration

	HTTP    *http.Client
	Log     *zap.Logger
	Observe func(outcome string, d time.Duration)
}

// FromConfig fills Options from the service configuration.
func FromConfig(c config.Klarna) Options {
	return Options{
		BaseURL:         c.BaseURL,
		Username:        c.Username,
		Password:        c.Password,
		ConfirmationURL: c.ConfirmationURL,
		NotificationURL: c.NotificationURL,
		Country:         c.Country,
		Currency:        c.Currency,
		Locale:          c.Locale,
		Timeout:         c.Timeout,
		MaxRetries:      c.MaxRetries,
	}
}

type Client struct {
	opts Options
	http *http.Client
	cb   *gobreaker.CircuitBreaker[*payment.Session]
	log  *zap.Logger
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = 200 * time.Millisecond
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 2 * time.Second
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}
	if opts.Country == "" {
		opts.Country = "US"
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	if opts.Locale == "" {
		opts.Locale = "en-US"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	hc := opts.HTTP
	if hc == nil {
		hc = &http.Client{}
	}
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	traced := *hc
	traced.Transport = otelhttp.NewTransport(base)

	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("provider", Provider))

	c := &Client{opts: opts, http: &traced, log: log}
	c.cb = gobreaker.NewCircuitBreaker[*payment.Session](gobreaker.Settings{
		Name:    Provider,
		Timeout: opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		// A rejected payload says nothing about provider health.
		IsSuccessful: func(err error) bool {
			var gerr *payment.GatewayError
			if errors.As(err, &gerr) {
				return !gerr.Retryable
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return c
}

func (c *Client) Name() string { return Provider }

// CreateOrder posts the checkout to Klarna, retrying transient failures with
// exponential backoff. Every failure is a *payment.GatewayError except a cart
// whose amounts cannot be expressed in minor units.
func (c *Client) CreateOrder(ctx context.Context, co payment.Checkout) (*payment.Session, error) {
	body, err := c.buildOrder(co)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode klarna order: %w", err)
	}

	start := time.Now()
	sess, err := c.cb.Execute(func() (*payment.Session, error) {
		return c.postWithRetry(ctx, raw)
	})
	outcome := "ok"
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		outcome = "circuit_open"
		err = &payment.GatewayError{
			Provider:  Provider,
			Status:    http.StatusServiceUnavailable,
			Code:      "circuit_open",
			Message:   "payment provider temporarily unavailable",
			Retryable: true,
			Err:       err,
		}
	} else if err != nil {
		outcome = "error"
	}
	if c.opts.Observe != nil {
		c.opts.Observe(outcome, time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (c *Client) postWithRetry(ctx context.Context, raw []byte) (*payment.Session, error) {
	for attempt := 0; ; attempt++ {
		sess, gerr := c.post(ctx, raw)
		if gerr == nil {
			return sess, nil
		}
		if !gerr.Retryable || attempt >= c.opts.MaxRetries {
			return nil, gerr
		}
		wait := c.backoff(attempt)
		c.log.Warn("klarna call failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("status", gerr.Status),
			zap.Duration("backoff", wait),
			zap.Error(gerr))
		if err := sleep(ctx, wait); err != nil {
			return nil, &payment.GatewayError{Provider: Provider, Message: "checkout canceled", Err: err}
		}
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.BaseBackoff << attempt
	if d <= 0 || d > c.opts.MaxBackoff {
		return c.opts.MaxBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type apiError struct {
	ErrorCode     string   `json:"error_code"`
	ErrorMessages []string `json:"error_messages"`
	CorrelationID string   `json:"correlation_id"`
}

func (c *Client) post(ctx context.Context, raw []byte) (*payment.Session, *payment.GatewayError) {
	actx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodPost, c.opts.BaseURL+ordersPath, bytes.NewReader(raw))
	if err != nil {
		return nil, &payment.GatewayError{Provider: Provider, Message: "build request", Err: err}
	}
	req.SetBasicAuth(c.opts.Username, c.opts.Password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		// The caller giving up is final; an attempt timing out is not.
		return nil, &payment.GatewayError{Provider: Provider, Err: err, Retryable: ctx.Err() == nil}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, &payment.GatewayError{Provider: Provider, Status: res.StatusCode, Err: err, Retryable: ctx.Err() == nil}
	}

	if res.StatusCode == http.StatusOK || res.StatusCode == http.StatusCreated {
		var sess payment.Session
		if err := json.Unmarshal(data, &sess); err != nil {
			return nil, &payment.GatewayError{Provider: Provider, Status: res.StatusCode, Message: "decode response", Err: err}
		}
		if sess.OrderID == "" {
			return nil, &payment.GatewayError{Provider: Provider, Status: res.StatusCode, Message: "response without order_id"}
		}
		return &sess, nil
	}

	gerr := &payment.GatewayError{
		Provider:  Provider,
		Status:    res.StatusCode,
		Message:   http.StatusText(res.StatusCode),
		Retryable: res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500,
	}
	var ae apiError
	if json.Unmarshal(data, &ae) == nil && ae.ErrorCode != "" {
		gerr.Code = ae.ErrorCode
		if len(ae.ErrorMessages) > 0 {
			gerr.Message = strings.Join(ae.ErrorMessages, "; ")
		}
	}
	return nil, gerr
}
