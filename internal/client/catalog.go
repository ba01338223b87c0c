package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/brail/marketplace/internal/marketplace/infra/httpx"
)

// Categories never fails: errors are logged and the default categories returned.
func (c *Client) Categories(ctx context.Context) []httpx.CategoryResponse {
	var out []httpx.CategoryResponse
	if err := c.request(ctx, http.MethodGet, "/product/categories", nil, &out); err != nil {
		c.logger.WarnContext(ctx, "failed to fetch categories, using defaults", "error", err)
		return fallbackCategories()
	}
	return out
}

// ProductsByCategory falls back to the built-in product list on error.
func (c *Client) ProductsByCategory(ctx context.Context, categoryID string) []httpx.ProductResponse {
	var out []httpx.ProductResponse
	if err := c.request(ctx, http.MethodGet, "/product/categories/"+url.PathEscape(categoryID), nil, &out); err != nil {
		c.logger.WarnContext(ctx, "failed to fetch products, using defaults", "category_id", categoryID, "error", err)
		return fallbackProducts()
	}
	return out
}

// Product falls back to a sample product detail carrying the requested id.
func (c *Client) Product(ctx context.Context, productID string) *httpx.ProductDetailResponse {
	var out httpx.ProductDetailResponse
	if err := c.request(ctx, http.MethodGet, "/product/get_product/"+url.PathEscape(productID), nil, &out); err != nil {
		c.logger.WarnContext(ctx, "failed to fetch product detail, using defaults", "product_id", productID, "error", err)
		return fallbackProductDetail(productID)
	}
	return &out
}

func (c *Client) Search(ctx context.Context, query string, page, pageSize int) (*httpx.SearchResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	var out httpx.SearchResponse
	if err := c.request(ctx, http.MethodGet, "/product/search?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminProducts(ctx context.Context) ([]httpx.ProductResponse, error) {
	var out []httpx.ProductResponse
	if err := c.request(ctx, http.MethodGet, "/admin/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AdminSuppliers(ctx context.Context) ([]httpx.SupplierResponse, error) {
	var out []httpx.SupplierResponse
	if err := c.request(ctx, http.MethodGet, "/admin/suppliers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
