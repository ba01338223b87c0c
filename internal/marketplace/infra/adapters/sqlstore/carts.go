package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/ports"
)

// GetOrCreateCart returns the user's single cart, creating it on first use.
func (s *Store) GetOrCreateCart(ctx context.Context, userID int64) (*entity.Cart, error) {
	cart, err := s.cartByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, entity.ErrNotFound) {
		return nil, err
	}

	cart = &entity.Cart{UserID: userID, CreatedAt: time.Now().UTC()}
	err = s.queryRow(ctx, `INSERT INTO carts (user_id, created_at) VALUES (?, ?) RETURNING id`,
		userID, formatTime(cart.CreatedAt)).Scan(&cart.ID)
	if err != nil {
		// lost a race with a concurrent first request
		if isUniqueViolation(err) {
			return s.cartByUser(ctx, userID)
		}
		return nil, fmt.Errorf("sqlstore: create cart for user %d: %w", userID, err)
	}
	return cart, nil
}

func (s *Store) cartByUser(ctx context.Context, userID int64) (*entity.Cart, error) {
	cart, err := scanCart(s.queryRow(ctx, `SELECT id, user_id, created_at FROM carts WHERE user_id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("cart of user", strconv.FormatInt(userID, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get cart of user %d: %w", userID, err)
	}
	return cart, nil
}

func (s *Store) GetCart(ctx context.Context, id int64) (*entity.Cart, error) {
	cart, err := scanCart(s.queryRow(ctx, `SELECT id, user_id, created_at FROM carts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("cart", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get cart %d: %w", id, err)
	}
	return cart, nil
}

func scanCart(row *sql.Row) (*entity.Cart, error) {
	var (
		c         entity.Cart
		createdAt string
	)
	if err := row.Scan(&c.ID, &c.UserID, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListCartItems(ctx context.Context, cartID int64) ([]entity.CartItem, error) {
	rows, err := s.query(ctx, `
		SELECT id, cart_id, product_id, quantity, unit_price
		FROM   cart_items
		WHERE  cart_id = ?
		ORDER  BY id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list items of cart %d: %w", cartID, err)
	}
	defer rows.Close()

	var out []entity.CartItem
	for rows.Next() {
		var it entity.CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("sqlstore: scan cart item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) GetCartItem(ctx context.Context, id int64) (*entity.CartItem, error) {
	var it entity.CartItem
	err := s.queryRow(ctx, `SELECT id, cart_id, product_id, quantity, unit_price FROM cart_items WHERE id = ?`, id).
		Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.UnitPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("cart item", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get cart item %d: %w", id, err)
	}
	return &it, nil
}

func (s *Store) FindCartItemByProduct(ctx context.Context, cartID int64, productID string) (*entity.CartItem, error) {
	var it entity.CartItem
	err := s.queryRow(ctx, `
		SELECT id, cart_id, product_id, quantity, unit_price
		FROM   cart_items
		WHERE  cart_id = ? AND product_id = ?
		ORDER  BY id
		LIMIT  1`, cartID, productID).
		Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.UnitPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("cart item for product", productID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: find item %q in cart %d: %w", productID, cartID, err)
	}
	return &it, nil
}

func (s *Store) InsertCartItem(ctx context.Context, item *entity.CartItem) error {
	err := s.queryRow(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity, unit_price)
		VALUES (?, ?, ?, ?)
		RETURNING id`,
		item.CartID, item.ProductID, item.Quantity, item.UnitPrice).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("sqlstore: insert item %q into cart %d: %w", item.ProductID, item.CartID, err)
	}
	return nil
}

func (s *Store) UpdateCartItem(ctx context.Context, item *entity.CartItem) error {
	res, err := s.exec(ctx, `UPDATE cart_items SET quantity = ?, unit_price = ? WHERE id = ?`,
		item.Quantity, item.UnitPrice, item.ID)
	if err != nil {
		return fmt.Errorf("sqlstore: update cart item %d: %w", item.ID, err)
	}
	return affectedOne(res, "cart item", strconv.FormatInt(item.ID, 10))
}

func (s *Store) DeleteCartItem(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, `DELETE FROM cart_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: delete cart item %d: %w", id, err)
	}
	return affectedOne(res, "cart item", strconv.FormatInt(id, 10))
}

// affectedOne maps "zero rows touched" to ErrNotFound.
func affectedOne(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: rows affected: %w", err)
	}
	if n == 0 {
		return notFound(what, id)
	}
	return nil
}

// DeleteCartItems removes the given lines all or nothing. When any of them is
// already gone the call fails with ErrConflict and the cart is left as it was.
func (s *Store) DeleteCartItems(ctx context.Context, cartID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, cartID)
	for _, id := range ids {
		args = append(args, id)
	}

	return s.WithTx(ctx, func(tx ports.Repositories) error {
		st := tx.(*Store)
		res, err := st.exec(ctx, `DELETE FROM cart_items WHERE cart_id = ? AND id IN (`+placeholders(len(ids))+`)`, args...)
		if err != nil {
			return fmt.Errorf("sqlstore: delete %d items of cart %d: %w", len(ids), cartID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlstore: rows affected: %w", err)
		}
		if n != int64(len(ids)) {
			return fmt.Errorf("sqlstore: %d of %d lines of cart %d are already gone: %w",
				int64(len(ids))-n, len(ids), cartID, entity.ErrConflict)
		}
		return nil
	})
}

func (s *Store) ClearCart(ctx context.Context, cartID int64) error {
	if _, err := s.exec(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return fmt.Errorf("sqlstore: clear cart %d: %w", cartID, err)
	}
	return nil
}
