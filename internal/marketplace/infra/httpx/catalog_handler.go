package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brail/marketplace/internal/marketplace/core/services"
)

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.Categories(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCategories(cats))
}

func (h *Handler) CategoryProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ProductsByCategory(r.Context(), chi.URLParam(r, "categoryId"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProducts(products))
}

func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	d, err := h.catalog.ProductDetail(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProductDetail(d))
}

// Search serves ?q=&page=&page_size=. Paging is 1-based.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.Search(r.Context(),
		r.URL.Query().Get("q"),
		queryInt(r, "page", 1),
		queryInt(r, "page_size", services.DefaultPageSize),
	)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Items:      mapProducts(page.Items),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	})
}

func (h *Handler) AdminProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = mapProduct(p)
		cost := p.CostPrice
		out[i].CostPrice = &cost
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) AdminSuppliers(w http.ResponseWriter, r *http.Request) {
	sups, err := h.catalog.Suppliers(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	out := make([]SupplierResponse, len(sups))
	for i, s := range sups {
		out[i] = mapSupplier(s)
	}
	writeJSON(w, http.StatusOK, out)
}
