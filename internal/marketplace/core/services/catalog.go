package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/ports"
	"github.com/brail/marketplace/internal/pkg/cache"
)

const DefaultPageSize = 8

type CatalogService struct {
	repo  ports.CatalogRepository
	cache cache.Cache
	ttl   time.Duration
}

func NewCatalogService(repo ports.CatalogRepository, c cache.Cache, ttl time.Duration) *CatalogService {
	return &CatalogService{repo: repo, cache: c, ttl: ttl}
}

// ProductDetail is a product with its supplier.
type ProductDetail struct {
	Product  entity.Product
	Supplier *entity.Supplier
}

type ProductPage struct {
	Items      []entity.Product
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Categories serves from the cache and falls back to the repository. Cache
// errors are logged and never fail the call.
func (s *CatalogService) Categories(ctx context.Context) ([]entity.Category, error) {
	key := s.cache.GenerateKey("catalog", "categories")
	if raw, err := s.cache.Get(ctx, key); err != nil {
		slog.WarnContext(ctx, "category cache read failed", "error", err)
	} else if raw != "" {
		var cats []entity.Category
		if err := json.Unmarshal([]byte(raw), &cats); err == nil {
			return cats, nil
		}
	}

	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(cats); err == nil {
		if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
			slog.WarnContext(ctx, "category cache write failed", "error", err)
		}
	}
	return cats, nil
}

func (s *CatalogService) ProductsByCategory(ctx context.Context, categoryID string) ([]entity.Product, error) {
	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	known := false
	for _, c := range cats {
		if c.ID == categoryID {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("category %q: %w", categoryID, entity.ErrNotFound)
	}

	products, _, err := s.repo.ListProducts(ctx, entity.ProductFilter{CategoryID: categoryID})
	return products, err
}

func (s *CatalogService) ProductDetail(ctx context.Context, productID string) (*ProductDetail, error) {
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	sup, err := s.repo.GetSupplier(ctx, p.SupplierID)
	if err != nil {
		// a dangling supplier only degrades the page
		slog.WarnContext(ctx, "product supplier missing", "product_id", p.ID, "supplier_id", p.SupplierID, "error", err)
	}
	return &ProductDetail{Product: *p, Supplier: sup}, nil
}

// Search matches title and description. Pages are 1-based; out of range
// values are clamped.
func (s *CatalogService) Search(ctx context.Context, query string, page, pageSize int) (*ProductPage, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	items, total, err := s.repo.ListProducts(ctx, entity.ProductFilter{
		Query:  strings.TrimSpace(query),
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &ProductPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: TotalPages(total, pageSize),
	}, nil
}

// Products lists the whole catalog for the back office.
func (s *CatalogService) Products(ctx context.Context) ([]entity.Product, error) {
	products, _, err := s.repo.ListProducts(ctx, entity.ProductFilter{})
	return products, err
}

func (s *CatalogService) Suppliers(ctx context.Context) ([]entity.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

// TotalPages is ceil(total/pageSize), and at least 1.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}
