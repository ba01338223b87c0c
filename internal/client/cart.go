package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/brail/marketplace/internal/marketplace/infra/httpx"
)

// CartID returns the caller's cart id, creating the cart on first use.
func (c *Client) CartID(ctx context.Context) (int64, error) {
	var out httpx.CartIDResponse
	if err := c.request(ctx, http.MethodPost, "/cart/getCartId", httpx.CartIDRequest{}, &out); err != nil {
		return 0, err
	}
	return out.CartID, nil
}

// CartIDForUser falls back to FallbackCartID on error.
func (c *Client) CartIDForUser(ctx context.Context, userID int64) int64 {
	var out httpx.CartIDResponse
	if err := c.request(ctx, http.MethodGet, "/cart/getCartId/"+strconv.FormatInt(userID, 10), nil, &out); err != nil {
		c.logger.WarnContext(ctx, "failed to fetch cart id, using default", "user_id", userID, "error", err)
		return FallbackCartID
	}
	return out.CartID
}

// CartData falls back to a sample cart on error.
func (c *Client) CartData(ctx context.Context, cartID int64) *httpx.CartResponse {
	var out httpx.CartResponse
	if err := c.request(ctx, http.MethodGet, "/cart/get_cart_data/"+strconv.FormatInt(cartID, 10), nil, &out); err != nil {
		c.logger.WarnContext(ctx, "failed to fetch cart data, using defaults", "cart_id", cartID, "error", err)
		return fallbackCart(cartID)
	}
	return &out
}

func (c *Client) AddCartItem(ctx context.Context, cartID int64, productID string, quantity int) (*httpx.CartItemResponse, error) {
	var out httpx.CartItemResponse
	body := httpx.AddItemRequest{CartID: cartID, ProductID: productID, Quantity: quantity}
	if err := c.request(ctx, http.MethodPost, "/cart/add_item", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCartItem(ctx context.Context, cartID, itemID int64, quantity int) (*httpx.CartItemResponse, error) {
	var out httpx.CartItemResponse
	path := "/cart/update_item/" + strconv.FormatInt(cartID, 10) + "/" + strconv.FormatInt(itemID, 10)
	if err := c.request(ctx, http.MethodPut, path, httpx.UpdateItemRequest{Quantity: quantity}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveCartItem(ctx context.Context, cartID, itemID int64) error {
	return c.request(ctx, http.MethodDelete, "/cart/item", httpx.RemoveItemRequest{CartID: cartID, ItemID: itemID}, nil)
}

// RemoveCartItems deletes the given lines; no ids clears the cart.
func (c *Client) RemoveCartItems(ctx context.Context, cartID int64, itemIDs []int64) error {
	return c.request(ctx, http.MethodDelete, "/cart/"+strconv.FormatInt(cartID, 10), httpx.RemoveItemsRequest{ItemIDs: itemIDs}, nil)
}
