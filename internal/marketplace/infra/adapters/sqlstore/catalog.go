package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
)

const productColumns = `id, title, description, img, category_id, supplier_id, shipping_from, weight,
	dimensions, moq, tags, stock_quantity, reserved_quantity, low_stock_threshold, max_order_quantity,
	user_limit_quantity, cost_price, selling_price, discount_price, price_tiers, variations`

type tierJSON struct {
	Min   int             `json:"min"`
	Max   int             `json:"max,omitempty"`
	Price decimal.Decimal `json:"price"`
}

type variationJSON struct {
	ID      int             `json:"id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Image   string          `json:"image,omitempty"`
	InStock bool            `json:"in_stock"`
}

func (s *Store) ListCategories(ctx context.Context) ([]entity.Category, error) {
	rows, err := s.query(ctx, `SELECT id, name, description, icon FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list categories: %w", err)
	}
	defer rows.Close()

	var out []entity.Category
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Icon); err != nil {
			return nil, fmt.Errorf("sqlstore: scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListProducts(ctx context.Context, f entity.ProductFilter) ([]entity.Product, int, error) {
	var (
		where []string
		args  []any
	)
	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		pattern := "%" + strings.ToLower(q) + "%"
		args = append(args, pattern, pattern)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM products`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlstore: count products: %w", err)
	}

	q := `SELECT ` + productColumns + ` FROM products` + clause + ` ORDER BY title, id`
	if f.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlstore: list products: %w", err)
	}
	defer rows.Close()

	var out []entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (s *Store) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	row := s.queryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("product", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get product %q: %w", id, err)
	}
	return p, nil
}

// InsertProduct is used by seeding and tests.
func (s *Store) InsertProduct(ctx context.Context, p *entity.Product) error {
	tags, err := json.Marshal(nonNil(p.Tags))
	if err != nil {
		return fmt.Errorf("sqlstore: encode tags: %w", err)
	}
	tiers := make([]tierJSON, len(p.PriceTiers))
	for i, t := range p.PriceTiers {
		tiers[i] = tierJSON{Min: t.Min, Max: t.Max, Price: t.Price}
	}
	tiersJSON, err := json.Marshal(tiers)
	if err != nil {
		return fmt.Errorf("sqlstore: encode price tiers: %w", err)
	}
	vars := make([]variationJSON, len(p.Variations))
	for i, v := range p.Variations {
		vars[i] = variationJSON{ID: v.ID, Name: v.Name, Price: v.Price, Image: v.Image, InStock: v.InStock}
	}
	varsJSON, err := json.Marshal(vars)
	if err != nil {
		return fmt.Errorf("sqlstore: encode variations: %w", err)
	}

	moq := p.MOQ
	if moq < 1 {
		moq = 1
	}
	threshold := p.LowStockThreshold
	if threshold == 0 {
		threshold = entity.DefaultLowStockThreshold
	}
	userLimit := p.UserLimitQuantity
	if userLimit == 0 {
		userLimit = entity.DefaultUserLimitQuantity
	}

	_, err = s.exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Description, p.Image, p.CategoryID, p.SupplierID, p.ShippingFrom, p.Weight,
		p.Dimensions, moq, string(tags), p.StockQuantity, p.ReservedQuantity, threshold, p.MaxOrderQuantity,
		userLimit, p.CostPrice, p.SellingPrice, p.DiscountPrice, string(tiersJSON), string(varsJSON),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlstore: product %q: %w", p.ID, entity.ErrConflict)
		}
		return fmt.Errorf("sqlstore: insert product %q: %w", p.ID, err)
	}
	return nil
}

func (s *Store) InsertCategory(ctx context.Context, c entity.Category) error {
	_, err := s.exec(ctx, `INSERT INTO categories (id, name, description, icon) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.Icon)
	if err != nil {
		return fmt.Errorf("sqlstore: insert category %q: %w", c.ID, err)
	}
	return nil
}

func (s *Store) InsertSupplier(ctx context.Context, sup entity.Supplier) error {
	_, err := s.exec(ctx, `INSERT INTO suppliers (id, name, location, rating, reviews) VALUES (?, ?, ?, ?, ?)`,
		sup.ID, sup.Name, sup.Location, sup.Rating, sup.Reviews)
	if err != nil {
		return fmt.Errorf("sqlstore: insert supplier %q: %w", sup.ID, err)
	}
	return nil
}

func (s *Store) GetSupplier(ctx context.Context, id string) (*entity.Supplier, error) {
	var sup entity.Supplier
	err := s.queryRow(ctx, `SELECT id, name, location, rating, reviews FROM suppliers WHERE id = ?`, id).
		Scan(&sup.ID, &sup.Name, &sup.Location, &sup.Rating, &sup.Reviews)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("supplier", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get supplier %q: %w", id, err)
	}
	return &sup, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]entity.Supplier, error) {
	rows, err := s.query(ctx, `SELECT id, name, location, rating, reviews FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list suppliers: %w", err)
	}
	defer rows.Close()

	var out []entity.Supplier
	for rows.Next() {
		var sup entity.Supplier
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.Location, &sup.Rating, &sup.Reviews); err != nil {
			return nil, fmt.Errorf("sqlstore: scan supplier: %w", err)
		}
		out = append(out, sup)
	}
	return out, rows.Err()
}

func (s *Store) ReserveStock(ctx context.Context, productID string, qty int) error {
	res, err := s.exec(ctx, `
		UPDATE products
		SET    reserved_quantity = reserved_quantity + ?
		WHERE  id = ? AND stock_quantity - reserved_quantity >= ?`,
		qty, productID, qty)
	if err != nil {
		return fmt.Errorf("sqlstore: reserve %d of %q: %w", qty, productID, err)
	}
	return s.checkStockUpdate(ctx, res, productID, entity.ErrInsufficientStock)
}

func (s *Store) ReleaseStock(ctx context.Context, productID string, qty int) error {
	res, err := s.exec(ctx, `
		UPDATE products
		SET    reserved_quantity = CASE WHEN reserved_quantity >= ? THEN reserved_quantity - ? ELSE 0 END
		WHERE  id = ?`,
		qty, qty, productID)
	if err != nil {
		return fmt.Errorf("sqlstore: release %d of %q: %w", qty, productID, err)
	}
	return s.checkStockUpdate(ctx, res, productID, nil)
}

func (s *Store) ConsumeStock(ctx context.Context, productID string, qty int) error {
	res, err := s.exec(ctx, `
		UPDATE products
		SET    stock_quantity = stock_quantity - ?,
		       reserved_quantity = reserved_quantity - ?
		WHERE  id = ? AND reserved_quantity >= ? AND stock_quantity >= ?`,
		qty, qty, productID, qty, qty)
	if err != nil {
		return fmt.Errorf("sqlstore: consume %d of %q: %w", qty, productID, err)
	}
	return s.checkStockUpdate(ctx, res, productID, entity.ErrInsufficientStock)
}

// checkStockUpdate turns "no row updated" into not-found or the given guard error.
func (s *Store) checkStockUpdate(ctx context.Context, res sql.Result, productID string, guardErr error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return err
	}
	if guardErr == nil {
		return nil
	}
	return fmt.Errorf("sqlstore: product %q: %w", productID, guardErr)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(sc scanner) (*entity.Product, error) {
	var (
		p                        entity.Product
		tags, tiers, variations string
	)
	err := sc.Scan(&p.ID, &p.Title, &p.Description, &p.Image, &p.CategoryID, &p.SupplierID,
		&p.ShippingFrom, &p.Weight, &p.Dimensions, &p.MOQ, &tags, &p.StockQuantity, &p.ReservedQuantity,
		&p.LowStockThreshold, &p.MaxOrderQuantity, &p.UserLimitQuantity, &p.CostPrice, &p.SellingPrice,
		&p.DiscountPrice, &tiers, &variations)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("sqlstore: decode tags of %q: %w", p.ID, err)
	}
	var tierRows []tierJSON
	if err := json.Unmarshal([]byte(tiers), &tierRows); err != nil {
		return nil, fmt.Errorf("sqlstore: decode price tiers of %q: %w", p.ID, err)
	}
	for _, t := range tierRows {
		p.PriceTiers = append(p.PriceTiers, entity.PriceTier{Min: t.Min, Max: t.Max, Price: t.Price})
	}
	var varRows []variationJSON
	if err := json.Unmarshal([]byte(variations), &varRows); err != nil {
		return nil, fmt.Errorf("sqlstore: decode variations of %q: %w", p.ID, err)
	}
	for _, v := range varRows {
		p.Variations = append(p.Variations, entity.Variation{ID: v.ID, Name: v.Name, Price: v.Price, Image: v.Image, InStock: v.InStock})
	}
	return &p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
