package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
)

const orderColumns = `id, user_id, kind, status, status_step, status_text, status_detail_text, customer_name,
	total_amount, shipping_street, shipping_city, shipping_zipcode, payment_method, notes, reject_reason,
	receipt_path, stock_reserved, order_date, updated_at`

// CreateOrder inserts the order row and its items. Callers that need
// atomicity with other writes run it inside WithTx.
func (s *Store) CreateOrder(ctx context.Context, o *entity.Order) error {
	_, err := s.exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, string(o.Kind), string(o.Status), o.StatusStep, o.StatusText, o.StatusDetailText,
		o.CustomerName, o.TotalAmount, o.Shipping.Street, o.Shipping.City, o.Shipping.Zipcode,
		o.PaymentMethod, o.Notes, o.RejectReason, o.ReceiptPath, o.StockReserved,
		formatTime(o.OrderDate), formatTime(o.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlstore: order %q: %w", o.ID, entity.ErrConflict)
		}
		return fmt.Errorf("sqlstore: insert order %q: %w", o.ID, err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		err := s.queryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, product_image, quantity, price)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id`,
			it.OrderID, it.ProductID, it.ProductName, it.ProductImage, it.Quantity, it.Price).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("sqlstore: insert item %q of order %q: %w", it.ProductID, o.ID, err)
		}
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	o, err := scanOrder(s.queryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("order", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get order %q: %w", id, err)
	}
	if err := s.loadItems(ctx, []*entity.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) ([]entity.Order, error) {
	return s.listOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY order_date DESC, id`, userID)
}

func (s *Store) ListOrders(ctx context.Context, f entity.OrderFilter) ([]entity.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE 1 = 1`
	var args []any
	if len(f.Statuses) > 0 {
		q += ` AND status IN (` + placeholders(len(f.Statuses)) + `)`
		for _, st := range f.Statuses {
			args = append(args, string(st))
		}
	}
	if f.Kind != "" {
		q += ` AND kind = ?`
		args = append(args, string(f.Kind))
	}
	q += ` ORDER BY order_date DESC, id`
	return s.listOrders(ctx, q, args...)
}

// listOrders reads every row before loading items; the sqlite pool has a
// single connection and cannot run a second query while rows are open.
func (s *Store) listOrders(ctx context.Context, q string, args ...any) ([]entity.Order, error) {
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list orders: %w", err)
	}

	var out []*entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("sqlstore: scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("sqlstore: list orders: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("sqlstore: close order rows: %w", err)
	}

	if err := s.loadItems(ctx, out); err != nil {
		return nil, err
	}
	orders := make([]entity.Order, len(out))
	for i, o := range out {
		orders[i] = *o
	}
	return orders, nil
}

func (s *Store) loadItems(ctx context.Context, orders []*entity.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Order, len(orders))
	args := make([]any, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		args = append(args, o.ID)
	}

	rows, err := s.query(ctx, `
		SELECT id, order_id, product_id, product_name, product_image, quantity, price
		FROM   order_items
		WHERE  order_id IN (`+placeholders(len(args))+`)
		ORDER  BY id`, args...)
	if err != nil {
		return fmt.Errorf("sqlstore: load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.ProductImage, &it.Quantity, &it.Price); err != nil {
			return fmt.Errorf("sqlstore: scan order item: %w", err)
		}
		if o := byID[it.OrderID]; o != nil {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func (s *Store) UpdateOrderStatus(ctx context.Context, o *entity.Order, from entity.OrderStatus) error {
	res, err := s.exec(ctx, `
		UPDATE orders
		SET    status = ?, status_step = ?, status_text = ?, status_detail_text = ?,
		       reject_reason = ?, stock_reserved = ?, updated_at = ?
		WHERE  id = ? AND status = ?`,
		string(o.Status), o.StatusStep, o.StatusText, o.StatusDetailText,
		o.RejectReason, o.StockReserved, formatTime(o.UpdatedAt),
		o.ID, string(from))
	if err != nil {
		return fmt.Errorf("sqlstore: update status of order %q: %w", o.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	current, err := s.GetOrder(ctx, o.ID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: order %s moved from %s to %s concurrently", entity.ErrInvalidTransition, o.ID, from, current.Status)
}

func (s *Store) AttachReceipt(ctx context.Context, orderID, path string, at time.Time) error {
	res, err := s.exec(ctx, `UPDATE orders SET receipt_path = ?, updated_at = ? WHERE id = ?`,
		path, formatTime(at), orderID)
	if err != nil {
		return fmt.Errorf("sqlstore: attach receipt to order %q: %w", orderID, err)
	}
	return affectedOne(res, "order", orderID)
}

func scanOrder(sc scanner) (*entity.Order, error) {
	var (
		o                    entity.Order
		kind, status         string
		orderDate, updatedAt string
	)
	err := sc.Scan(&o.ID, &o.UserID, &kind, &status, &o.StatusStep, &o.StatusText, &o.StatusDetailText,
		&o.CustomerName, &o.TotalAmount, &o.Shipping.Street, &o.Shipping.City, &o.Shipping.Zipcode,
		&o.PaymentMethod, &o.Notes, &o.RejectReason, &o.ReceiptPath, &o.StockReserved, &orderDate, &updatedAt)
	if err != nil {
		return nil, err
	}
	o.Kind = entity.OrderKind(kind)
	o.Status = entity.OrderStatus(status)
	if o.OrderDate, err = parseTime(orderDate); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}
