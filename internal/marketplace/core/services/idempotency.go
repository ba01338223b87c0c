package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/ports"
	"github.com/brail/marketplace/internal/pkg/cache"
)

const (
	idempotencyTTL = 24 * time.Hour

	// idempotencyPending marks a key whose order is still being created.
	idempotencyPending    = "pending"
	idempotencyPendingTTL = 5 * time.Minute
)

// idempotency maps a client supplied key to the order it created.
type idempotency struct {
	cache cache.Cache
}

func (i idempotency) key(userID int64, key string) string {
	return i.cache.GenerateKey("idempotency", fmt.Sprintf("%d:%s", userID, key))
}

// claim reserves key for a new order. It returns the order already created
// under key, or entity.ErrConflict while another request holding the key is
// still running. With a nil order and error the caller creates the order and
// must then remember or release the key.
func (i idempotency) claim(ctx context.Context, orders ports.OrderRepository, userID int64, key string) (*entity.Order, error) {
	if key == "" {
		return nil, nil
	}
	k := i.key(userID, key)
	ok, err := i.cache.SetNX(ctx, k, idempotencyPending, idempotencyPendingTTL)
	if err != nil {
		slog.WarnContext(ctx, "idempotency key not reserved, continuing without it", "error", err)
		return nil, nil
	}
	if ok {
		return nil, nil
	}

	orderID, err := i.cache.Get(ctx, k)
	if err != nil {
		slog.WarnContext(ctx, "idempotency key unreadable, continuing without it", "error", err)
		return nil, nil
	}
	if orderID == "" || orderID == idempotencyPending {
		return nil, fmt.Errorf("request with idempotency key %q is still in progress: %w", key, entity.ErrConflict)
	}

	o, err := orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s of idempotency key %q: %w", orderID, key, err)
	}
	slog.InfoContext(ctx, "replaying order for idempotency key", "order_id", o.ID)
	return o, nil
}

// remember points a claimed key at the order it produced.
func (i idempotency) remember(ctx context.Context, userID int64, key, orderID string) {
	if key == "" {
		return
	}
	if err := i.cache.Set(ctx, i.key(userID, key), orderID, idempotencyTTL); err != nil {
		slog.WarnContext(ctx, "failed to store idempotency key", "order_id", orderID, "error", err)
	}
}

// release frees a claimed key after a failed attempt so the client can retry.
func (i idempotency) release(ctx context.Context, userID int64, key string) {
	if key == "" {
		return
	}
	if err := i.cache.Delete(ctx, i.key(userID, key)); err != nil {
		slog.WarnContext(ctx, "failed to release idempotency key", "error", err)
	}
}
