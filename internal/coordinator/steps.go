package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/ports"
	"github.com/brail/marketplace/internal/pkg/events"
)

// --- ReserveStockStep ---

type ReserveStockStep struct {
	catalog  ports.CatalogRepository
	items    []entity.OrderItem
	reserved []entity.OrderItem
}

func NewReserveStockStep(catalog ports.CatalogRepository, items []entity.OrderItem) *ReserveStockStep {
	return &ReserveStockStep{catalog: catalog, items: items}
}

func (s *ReserveStockStep) Name() string { return "reserve_stock" }

// Execute reserves line by line and undoes its own partial work before
// failing, since the orchestrator only compensates completed steps.
func (s *ReserveStockStep) Execute(ctx context.Context) error {
	s.reserved = s.reserved[:0]
	for _, it := range s.items {
		if err := s.catalog.ReserveStock(ctx, it.ProductID, it.Quantity); err != nil {
			return errors.Join(fmt.Errorf("reserve %d x %s: %w", it.Quantity, it.ProductID, err), s.Compensate(ctx))
		}
		s.reserved = append(s.reserved, it)
	}
	return nil
}

func (s *ReserveStockStep) Compensate(ctx context.Context) error {
	var errs []error
	for i := len(s.reserved) - 1; i >= 0; i-- {
		it := s.reserved[i]
		if err := s.catalog.ReleaseStock(ctx, it.ProductID, it.Quantity); err != nil {
			errs = append(errs, fmt.Errorf("release %d x %s: %w", it.Quantity, it.ProductID, err))
		}
	}
	s.reserved = s.reserved[:0]
	return errors.Join(errs...)
}

// --- CreateOrderStep ---

type CreateOrderStep struct {
	orders ports.OrderRepository
	order  *entity.Order
	now    func() time.Time
}

func NewCreateOrderStep(orders ports.OrderRepository, order *entity.Order) *CreateOrderStep {
	return &CreateOrderStep{orders: orders, order: order, now: time.Now}
}

func (s *CreateOrderStep) Name() string { return "create_order" }

func (s *CreateOrderStep) Execute(ctx context.Context) error {
	if err := s.orders.CreateOrder(ctx, s.order); err != nil {
		return fmt.Errorf("create order %s: %w", s.order.ID, err)
	}
	return nil
}

// Compensate rejects the order; stock was already released by the
// reservation step's compensation, so the flag is cleared too.
func (s *CreateOrderStep) Compensate(ctx context.Context) error {
	prev := s.order.Cancel("checkout could not be completed", s.now())
	s.order.StockReserved = false
	if err := s.orders.UpdateOrderStatus(ctx, s.order, prev); err != nil {
		return fmt.Errorf("cancel order %s: %w", s.order.ID, err)
	}
	return nil
}

// --- ClaimCartLinesStep ---

// ClaimCartLinesStep takes the checked-out lines off the cart. It runs first:
// of two checkouts racing for the same lines only one can remove them, and
// the other fails before touching stock or orders.
type ClaimCartLinesStep struct {
	carts   ports.CartRepository
	cartID  int64
	items   []entity.CartItem
	claimed bool
}

func NewClaimCartLinesStep(carts ports.CartRepository, cartID int64, items []entity.CartItem) *ClaimCartLinesStep {
	return &ClaimCartLinesStep{carts: carts, cartID: cartID, items: items}
}

func (s *ClaimCartLinesStep) Name() string { return "claim_cart_lines" }

func (s *ClaimCartLinesStep) Execute(ctx context.Context) error {
	ids := make([]int64, len(s.items))
	for i, it := range s.items {
		ids[i] = it.ID
	}
	if err := s.carts.DeleteCartItems(ctx, s.cartID, ids); err != nil {
		return fmt.Errorf("claim %d lines of cart %d: %w", len(ids), s.cartID, err)
	}
	s.claimed = true
	return nil
}

// Compensate puts the lines back. They get new ids.
func (s *ClaimCartLinesStep) Compensate(ctx context.Context) error {
	if !s.claimed {
		return nil
	}
	var errs []error
	for _, it := range s.items {
		restored := it
		restored.ID = 0
		restored.CartID = s.cartID
		if err := s.carts.InsertCartItem(ctx, &restored); err != nil {
			errs = append(errs, fmt.Errorf("restore %s to cart %d: %w", it.ProductID, s.cartID, err))
		}
	}
	s.claimed = false
	return errors.Join(errs...)
}

// --- PublishOrderEventStep ---

type PublishOrderEventStep struct {
	publisher ports.EventPublisher
	event     events.OrderEvent
}

func NewPublishOrderEventStep(publisher ports.EventPublisher, event events.OrderEvent) *PublishOrderEventStep {
	return &PublishOrderEventStep{publisher: publisher, event: event}
}

func (s *PublishOrderEventStep) Name() string { return "publish_order_event" }

func (s *PublishOrderEventStep) Execute(ctx context.Context) error {
	if err := s.publisher.Publish(ctx, s.event); err != nil {
		return fmt.Errorf("publish %s: %w", s.event.Type, err)
	}
	return nil
}

// Compensate is a no-op; a published event cannot be recalled.
func (s *PublishOrderEventStep) Compensate(ctx context.Context) error {
	return nil
}
