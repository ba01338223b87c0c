package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/brail/marketplace/internal/coordinator/sagalog"
	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/ports"
	"github.com/brail/marketplace/internal/pkg/cache"
	"github.com/brail/marketplace/internal/pkg/events"
)

type OrderService struct {
	store     ports.Store
	publisher ports.EventPublisher
	receipts  ports.ReceiptStorage
	sagaLog   sagalog.Repository
	idem      idempotency
	now       func() time.Time
}

func NewOrderService(
	store ports.Store,
	publisher ports.EventPublisher,
	receipts ports.ReceiptStorage,
	sagaLog sagalog.Repository,
	c cache.Cache,
) *OrderService {
	return &OrderService{
		store:     store,
		publisher: publisher,
		receipts:  receipts,
		sagaLog:   sagaLog,
		idem:      idempotency{cache: c},
		now:       time.Now,
	}
}

// Create stores a standard order as submitted, without touching stock. A
// repeated idempotency key returns the order created the first time, or
// entity.ErrConflict while that first request is still running.
func (s *OrderService) Create(ctx context.Context, in entity.NewOrderInput, idempotencyKey string) (*entity.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.idem.claim(ctx, s.store, in.UserID, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	o := in.Build(s.now())
	if err := s.store.CreateOrder(ctx, o); err != nil {
		s.idem.release(ctx, in.UserID, idempotencyKey)
		return nil, err
	}
	s.idem.remember(ctx, in.UserID, idempotencyKey, o.ID)

	slog.InfoContext(ctx, "order created", "order_id", o.ID, "user_id", o.UserID, "total", o.TotalAmount.StringFixed(2))
	publish(ctx, s.publisher, orderEvent(events.TypeOrderCreated, o, "", string(entity.RoleUser)))
	return o, nil
}

func (s *OrderService) List(ctx context.Context, userID int64) ([]entity.Order, error) {
	return s.store.ListOrdersByUser(ctx, userID)
}

func (s *OrderService) Get(ctx context.Context, id string) (*entity.Order, error) {
	return s.store.GetOrder(ctx, id)
}

// Visible returns the order when actor may read it: its owner or any back-office role.
func (s *OrderService) Visible(ctx context.Context, actor ports.Session, id string) (*entity.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == entity.RoleUser && o.UserID != actor.UserID {
		return nil, fmt.Errorf("order %s: %w", id, entity.ErrNotFound)
	}
	return o, nil
}

// Review is the admin decision on a pending order.
func (s *OrderService) Review(ctx context.Context, actor ports.Session, id string, approve bool, reason string) (*entity.Order, error) {
	action := entity.ActionReject
	if approve {
		action = entity.ActionApprove
	}
	return s.Advance(ctx, actor, id, action, reason)
}

// Advance applies action on behalf of actor. Rejecting an order with
// reserved stock releases it; delivering consumes it.
func (s *OrderService) Advance(ctx context.Context, actor ports.Session, id string, action entity.Action, reason string) (*entity.Order, error) {
	ctx, span := tracer.Start(ctx, "order.advance", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.action", string(action)),
		attribute.String("actor.role", string(actor.Role)),
	))
	o, err := s.advance(ctx, actor, id, action, reason)
	if o != nil {
		span.SetAttributes(attribute.String("order.status", string(o.Status)))
	}
	endSpan(span, err)
	return o, err
}

func (s *OrderService) advance(ctx context.Context, actor ports.Session, id string, action entity.Action, reason string) (*entity.Order, error) {
	var (
		o    *entity.Order
		prev entity.OrderStatus
	)
	err := s.store.WithTx(ctx, func(tx ports.Repositories) error {
		var err error
		if o, err = tx.GetOrder(ctx, id); err != nil {
			return err
		}
		if prev, err = o.Apply(actor.Role, action, strings.TrimSpace(reason), s.now()); err != nil {
			return err
		}

		if o.StockReserved && (o.Status == entity.StatusRejected || o.Status == entity.StatusDelivered) {
			for _, it := range o.Items {
				if o.Status == entity.StatusRejected {
					err = tx.ReleaseStock(ctx, it.ProductID, it.Quantity)
				} else {
					err = tx.ConsumeStock(ctx, it.ProductID, it.Quantity)
				}
				if err != nil {
					return err
				}
			}
			o.StockReserved = false
		}
		return tx.UpdateOrderStatus(ctx, o, prev)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order status changed",
		"order_id", o.ID, "from", prev, "to", o.Status, "actor", actor.Role, "action", action)
	publish(ctx, s.publisher, orderEvent(events.TypeOrderStatusChanged, o, prev, string(actor.Role)))
	return o, nil
}

// Queue lists a back-office queue if role may see it.
func (s *OrderService) Queue(ctx context.Context, role entity.Role, queue entity.OrderQueue) ([]entity.Order, error) {
	filter, ok := queue.Filter()
	if !ok {
		v := entity.NewValidationError()
		v.Add("queue", fmt.Sprintf("unknown queue %q", queue))
		return nil, v
	}
	if !entity.QueueVisible(role, queue) {
		return nil, fmt.Errorf("role %q cannot view queue %q: %w", role, queue, entity.ErrForbidden)
	}
	return s.store.ListOrders(ctx, filter)
}

// AttachReceipt stores a payment receipt for an order owned by userID.
func (s *OrderService) AttachReceipt(ctx context.Context, userID int64, orderID, filename string, body []byte) (*entity.Order, error) {
	if err := entity.ValidateReceipt(filename, int64(len(body))); err != nil {
		return nil, err
	}
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, fmt.Errorf("order %s: %w", orderID, entity.ErrNotFound)
	}

	now := s.now()
	name := fmt.Sprintf("%s-%d%s", o.ID, now.Unix(), strings.ToLower(filepath.Ext(filename)))
	path, err := s.receipts.Put(ctx, name, body)
	if err != nil {
		return nil, fmt.Errorf("store receipt for %s: %w", orderID, err)
	}
	if err := s.store.AttachReceipt(ctx, o.ID, path, now); err != nil {
		return nil, err
	}
	o.ReceiptPath = path
	o.UpdatedAt = now.UTC()

	slog.InfoContext(ctx, "receipt attached", "order_id", o.ID, "bytes", len(body))
	return o, nil
}

// SagaHistory returns the checkout saga log of an order.
func (s *OrderService) SagaHistory(ctx context.Context, orderID string) ([]sagalog.SagaLog, error) {
	if s.sagaLog == nil {
		return nil, fmt.Errorf("saga log disabled: %w", entity.ErrNotFound)
	}
	history, err := s.sagaLog.History(ctx, orderID)
	if errors.Is(err, sagalog.ErrNotFound) {
		return nil, fmt.Errorf("saga of order %s: %w", orderID, entity.ErrNotFound)
	}
	return history, err
}
