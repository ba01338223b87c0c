package client

import (
	"strings"

	"github.com/brail/marketplace/internal/marketplace/core/services"
	"github.com/brail/marketplace/internal/marketplace/infra/httpx"
)

// Paginator pages a product list client side, 8 per page by default.
type Paginator struct {
	items    []httpx.ProductResponse
	pageSize int
	page     int
}

func NewPaginator(items []httpx.ProductResponse, pageSize int) *Paginator {
	if pageSize <= 0 {
		pageSize = services.DefaultPageSize
	}
	return &Paginator{items: items, pageSize: pageSize, page: 1}
}

func (p *Paginator) Page() int { return p.page }

// TotalPages is at least 1, even for an empty list.
func (p *Paginator) TotalPages() int { return services.TotalPages(len(p.items), p.pageSize) }

// Items returns the current page.
func (p *Paginator) Items() []httpx.ProductResponse {
	start := (p.page - 1) * p.pageSize
	if start >= len(p.items) {
		return nil
	}
	end := min(start+p.pageSize, len(p.items))
	return p.items[start:end]
}

func (p *Paginator) Next() bool {
	if p.page >= p.TotalPages() {
		return false
	}
	p.page++
	return true
}

func (p *Paginator) Prev() bool {
	if p.page <= 1 {
		return false
	}
	p.page--
	return true
}

// GoTo ignores pages out of range.
func (p *Paginator) GoTo(page int) bool {
	if page < 1 || page > p.TotalPages() {
		return false
	}
	p.page = page
	return true
}

// FilterProducts keeps products whose title or description contains query,
// ignoring case. A blank query keeps everything.
func FilterProducts(items []httpx.ProductResponse, query string) []httpx.ProductResponse {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	var out []httpx.ProductResponse
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Title), q) || strings.Contains(strings.ToLower(it.Description), q) {
			out = append(out, it)
		}
	}
	return out
}
