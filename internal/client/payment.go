package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/infra/httpx"
	"github.com/brail/marketplace/internal/pkg/poll"
)

// ErrPaymentFailed is returned when the payment can no longer succeed.
var ErrPaymentFailed = errors.New("payment failed")

// PaymentSecret creates a PIX payment intent for amountCents.
func (c *Client) PaymentSecret(ctx context.Context, amountCents int64, currency string) (*httpx.PaymentIntentResponse, error) {
	var out httpx.PaymentIntentResponse
	body := httpx.PaymentSecretRequest{Amount: amountCents, Currency: currency}
	if err := c.request(ctx, http.MethodPost, "/pay/secret", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PaymentStatus(ctx context.Context, intentID string) (*httpx.PaymentIntentResponse, error) {
	var out httpx.PaymentIntentResponse
	if err := c.request(ctx, http.MethodGet, "/pay/status/"+url.PathEscape(intentID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PaymentWait tunes WaitForPayment.
type PaymentWait struct {
	Interval    time.Duration
	MaxAttempts int
}

// WaitForPayment polls the intent status once per second, up to 120 times,
// until it succeeds. A failed payment returns ErrPaymentFailed, exhausted
// attempts return poll.ErrTimeout and the first request error is returned
// as is.
func (c *Client) WaitForPayment(ctx context.Context, intentID string) (*httpx.PaymentIntentResponse, error) {
	return c.WaitForPaymentWith(ctx, intentID, PaymentWait{Interval: poll.DefaultInterval, MaxAttempts: poll.DefaultMaxAttempts})
}

func (c *Client) WaitForPaymentWith(ctx context.Context, intentID string, w PaymentWait) (*httpx.PaymentIntentResponse, error) {
	var last *httpx.PaymentIntentResponse
	err := poll.Until(ctx, w.Interval, w.MaxAttempts, func(ctx context.Context, attempt int) (bool, error) {
		in, err := c.PaymentStatus(ctx, intentID)
		if err != nil {
			return false, err
		}
		last = in
		status := entity.PaymentStatus(in.Status)
		c.logger.DebugContext(ctx, "payment status", "intent_id", intentID, "attempt", attempt, "status", status)
		switch {
		case status == entity.PaymentSucceeded:
			return true, nil
		case status.Failed():
			return false, fmt.Errorf("intent %s is %s: %w", intentID, status, ErrPaymentFailed)
		}
		return false, nil
	})
	return last, err
}

// PurchaseSample buys one sample unit with a succeeded payment intent.
func (c *Client) PurchaseSample(ctx context.Context, productID, intentID string) (*httpx.SamplePurchaseResponse, error) {
	var out httpx.SamplePurchaseResponse
	body := httpx.SamplePurchaseRequest{ProductID: productID, PaymentIntentID: intentID}
	if err := c.request(ctx, http.MethodPost, "/sample/purchase", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SamplePurchases(ctx context.Context) ([]httpx.SamplePurchaseResponse, error) {
	var out []httpx.SamplePurchaseResponse
	if err := c.request(ctx, http.MethodGet, "/sample/purchases", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
