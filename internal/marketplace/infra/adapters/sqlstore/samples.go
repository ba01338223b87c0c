package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
)

func (s *Store) CreateSamplePurchase(ctx context.Context, sp *entity.SamplePurchase) error {
	if sp.CreatedAt.IsZero() {
		sp.CreatedAt = time.Now().UTC()
	}
	if sp.Status == "" {
		sp.Status = entity.SampleStatusPurchased
	}
	err := s.queryRow(ctx, `
		INSERT INTO sample_purchases (user_id, product_id, order_id, payment_intent_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		sp.UserID, sp.ProductID, sp.OrderID, sp.PaymentIntentID, sp.Status, formatTime(sp.CreatedAt)).Scan(&sp.ID)
	if err != nil {
		if isUniqueViolation(err) {
			if conflictField(err, "payment_intent_id") != "" {
				return fmt.Errorf("sqlstore: payment %q already paid for a sample: %w", sp.PaymentIntentID, entity.ErrConflict)
			}
			return fmt.Errorf("sqlstore: sample of %q already purchased by user %d: %w", sp.ProductID, sp.UserID, entity.ErrConflict)
		}
		return fmt.Errorf("sqlstore: create sample purchase: %w", err)
	}
	return nil
}

func (s *Store) ListSamplePurchases(ctx context.Context, userID int64) ([]entity.SamplePurchase, error) {
	rows, err := s.query(ctx, `
		SELECT id, user_id, product_id, order_id, payment_intent_id, status, created_at
		FROM   sample_purchases
		WHERE  user_id = ?
		ORDER  BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list sample purchases of user %d: %w", userID, err)
	}
	defer rows.Close()

	var out []entity.SamplePurchase
	for rows.Next() {
		var (
			sp        entity.SamplePurchase
			createdAt string
		)
		if err := rows.Scan(&sp.ID, &sp.UserID, &sp.ProductID, &sp.OrderID, &sp.PaymentIntentID, &sp.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlstore: scan sample purchase: %w", err)
		}
		if sp.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (s *Store) HasSamplePurchase(ctx context.Context, userID int64, productID string) (bool, error) {
	var n int
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM sample_purchases WHERE user_id = ? AND product_id = ?`,
		userID, productID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlstore: check sample purchase: %w", err)
	}
	return n > 0, nil
}
