package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/infra/httpx"
	"github.com/brail/marketplace/internal/pkg/interceptors/constants"
)

// CreateOrder places an order from explicit items. A non-empty
// idempotencyKey makes retries return the first order.
func (c *Client) CreateOrder(ctx context.Context, in httpx.CreateOrderRequest, idempotencyKey string) (*httpx.OrderResponse, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/order/create", in)
	if err != nil {
		return nil, err
	}
	if idempotencyKey != "" {
		req.Header.Set(constants.HeaderXIdempotencyKey, idempotencyKey)
	}
	var out httpx.OrderResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Checkout turns the selected cart lines into an order.
func (c *Client) Checkout(ctx context.Context, in httpx.CheckoutRequest, idempotencyKey string) (*httpx.OrderResponse, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/order/checkout", in)
	if err != nil {
		return nil, err
	}
	if idempotencyKey != "" {
		req.Header.Set(constants.HeaderXIdempotencyKey, idempotencyKey)
	}
	var out httpx.OrderResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Orders(ctx context.Context) ([]httpx.OrderResponse, error) {
	var out httpx.OrderListResponse
	if err := c.request(ctx, http.MethodPost, "/order/list", httpx.ListOrdersRequest{}, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *Client) Order(ctx context.Context, orderID string) (*httpx.OrderResponse, error) {
	var out httpx.OrderResponse
	if err := c.request(ctx, http.MethodGet, "/order/"+url.PathEscape(orderID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) OrderSaga(ctx context.Context, orderID string) ([]httpx.SagaLogResponse, error) {
	var out []httpx.SagaLogResponse
	if err := c.request(ctx, http.MethodGet, "/order/"+url.PathEscape(orderID)+"/saga", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateReceipt checks a payment receipt before upload: jpg, jpeg, png or
// pdf, at most 5MB.
func ValidateReceipt(name string, size int64) error {
	return entity.ValidateReceipt(name, size)
}

// UploadReceipt attaches a payment receipt to an order. The file is checked
// locally first and never sent when invalid.
func (c *Client) UploadReceipt(ctx context.Context, orderID, name string, content []byte) (*httpx.OrderResponse, error) {
	if err := ValidateReceipt(name, int64(len(content))); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("receipt", name)
	if err != nil {
		return nil, fmt.Errorf("build receipt form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("build receipt form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build receipt form: %w", err)
	}

	req, err := c.newRawRequest(ctx, http.MethodPost, "/order/"+url.PathEscape(orderID)+"/receipt", mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}

	var out httpx.OrderResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminOrders lists an admin tab: pending or processed.
func (c *Client) AdminOrders(ctx context.Context, tab string) ([]httpx.OrderResponse, error) {
	return c.queue(ctx, "/admin/orders?tab=", tab)
}

// LogisticsOrders lists a logistics stage.
func (c *Client) LogisticsOrders(ctx context.Context, stage string) ([]httpx.OrderResponse, error) {
	return c.queue(ctx, "/logistics/orders?stage=", stage)
}

func (c *Client) queue(ctx context.Context, prefix, name string) ([]httpx.OrderResponse, error) {
	var out httpx.OrderListResponse
	if err := c.request(ctx, http.MethodGet, prefix+url.QueryEscape(name), nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// ReviewOrder approves or rejects a pending order.
func (c *Client) ReviewOrder(ctx context.Context, orderID, decision, reason string) (*httpx.OrderResponse, error) {
	var out httpx.OrderResponse
	body := httpx.ReviewRequest{Decision: decision, Reason: reason}
	if err := c.request(ctx, http.MethodPost, "/admin/orders/"+url.PathEscape(orderID)+"/review", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdvanceOrder applies a logistics action such as ship or deliver.
func (c *Client) AdvanceOrder(ctx context.Context, orderID, action, reason string) (*httpx.OrderResponse, error) {
	var out httpx.OrderResponse
	body := httpx.StatusActionRequest{Action: action, Reason: reason}
	if err := c.request(ctx, http.MethodPut, "/logistics/orders/"+url.PathEscape(orderID)+"/status", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
