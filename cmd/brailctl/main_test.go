package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brail/marketplace/internal/marketplace/infra/httpx"
)

func execute(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--server", srv.URL, "--token", "tok"}, args...))
	err := root.Execute()
	return out.String(), err
}

func reply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestCategoriesCmd_FallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	out, err := execute(t, srv, "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "Electronics")
	assert.Contains(t, out, "Automotive")
}

func TestProductsCmd_PageOutOfRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reply(w, []httpx.ProductResponse{{ID: "p-1", Title: "Yoga Mat", Price: decimal.RequireFromString("11.2"), MOQ: 100}})
	}))
	defer srv.Close()

	out, err := execute(t, srv, "products", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Yoga Mat")
	assert.Contains(t, out, "11.20")
	assert.Contains(t, out, "page 1 of 1 (1 products)")

	_, err = execute(t, srv, "products", "4", "--page", "2")
	assert.EqualError(t, err, "page 2 out of range 1..1")
}

func TestCartSetCmd_RaisesToMOQ(t *testing.T) {
	var updated int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/cart/getCartId", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, httpx.CartIDResponse{CartID: 7})
	})
	mux.HandleFunc("GET /api/cart/get_cart_data/7", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, httpx.CartResponse{CartID: 7, Items: []httpx.CartLineResponse{
			{ID: 3, Name: "Antenna", Quantity: 60, MOQ: 50, UnitPrice: decimal.RequireFromString("13.63")},
		}})
	})
	mux.HandleFunc("PUT /api/cart/update_item/7/3", func(w http.ResponseWriter, r *http.Request) {
		var req httpx.UpdateItemRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		updated = req.Quantity
		reply(w, httpx.CartItemResponse{ID: 3, CartID: 7, Quantity: req.Quantity, UnitPrice: decimal.RequireFromString("13.63")})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out, err := execute(t, srv, "cart", "set", "3", "10")
	require.NoError(t, err)
	assert.Equal(t, 50, updated)
	assert.Contains(t, out, "quantity raised to the MOQ of 50")
	assert.Contains(t, out, "line 3: 50 x 13.63 = 681.50")
}
