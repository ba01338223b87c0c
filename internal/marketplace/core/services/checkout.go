package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/brail/marketplace/internal/coordinator"
	"github.com/brail/marketplace/internal/coordinator/sagalog"
	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/ports"
	"github.com/brail/marketplace/internal/pkg/cache"
	"github.com/brail/marketplace/internal/pkg/events"
)

// CheckoutInput turns cart lines into an order. An empty ItemIDs checks out
// the whole cart.
type CheckoutInput struct {
	UserID        int64                  `json:"user_id"`
	CartID        int64                  `json:"cart_id"`
	ItemIDs       []int64                `json:"item_ids,omitempty"`
	CustomerName  string                 `json:"customer_name"`
	Shipping      entity.ShippingAddress `json:"shipping"`
	PaymentMethod string                 `json:"payment_method,omitempty"`
	Notes         string                 `json:"notes,omitempty"`
}

type CheckoutService struct {
	store     ports.Store
	publisher ports.EventPublisher
	sagaLog   sagalog.Repository
	idem      idempotency
	now       func() time.Time
}

func NewCheckoutService(store ports.Store, publisher ports.EventPublisher, sagaLog sagalog.Repository, c cache.Cache) *CheckoutService {
	return &CheckoutService{
		store:     store,
		publisher: publisher,
		sagaLog:   sagaLog,
		idem:      idempotency{cache: c},
		now:       time.Now,
	}
}

// Checkout runs the checkout saga: take the lines off the cart, reserve
// stock, create the order, publish order.created. A failing step undoes the
// earlier ones. Lines already taken by a concurrent checkout fail the call
// with entity.ErrConflict.
func (s *CheckoutService) Checkout(ctx context.Context, in CheckoutInput, idempotencyKey string) (*entity.Order, error) {
	ctx, span := tracer.Start(ctx, "checkout", trace.WithAttributes(
		attribute.Int64("cart.id", in.CartID),
		attribute.Int64("user.id", in.UserID),
	))
	o, err := s.checkout(ctx, in, idempotencyKey)
	if o != nil {
		span.SetAttributes(attribute.String("order.id", o.ID))
	}
	endSpan(span, err)
	return o, err
}

func (s *CheckoutService) checkout(ctx context.Context, in CheckoutInput, idempotencyKey string) (*entity.Order, error) {
	existing, err := s.idem.claim(ctx, s.store, in.UserID, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	order, err := s.placeOrder(ctx, in)
	if err != nil {
		s.idem.release(ctx, in.UserID, idempotencyKey)
		return nil, err
	}
	s.idem.remember(ctx, in.UserID, idempotencyKey, order.ID)
	return order, nil
}

func (s *CheckoutService) placeOrder(ctx context.Context, in CheckoutInput) (*entity.Order, error) {
	cart, err := s.store.GetCart(ctx, in.CartID)
	if err != nil {
		return nil, err
	}
	if cart.UserID != in.UserID {
		return nil, fmt.Errorf("cart %d: %w", in.CartID, entity.ErrForbidden)
	}

	lines, err := s.selectLines(ctx, in)
	if err != nil {
		return nil, err
	}

	items := make([]entity.OrderItem, 0, len(lines))
	for _, line := range lines {
		p, err := s.store.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if err := p.ValidateQuantity(line.Quantity); err != nil {
			return nil, err
		}
		items = append(items, entity.OrderItem{
			ProductID:    p.ID,
			ProductName:  p.Title,
			ProductImage: p.Image,
			Quantity:     line.Quantity,
			Price:        line.UnitPrice,
		})
	}

	orderIn := entity.NewOrderInput{
		UserID:        in.UserID,
		CustomerName:  in.CustomerName,
		Shipping:      in.Shipping,
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
		Items:         items,
	}
	if err := orderIn.Validate(); err != nil {
		return nil, err
	}
	order := orderIn.Build(s.now())
	order.StockReserved = true

	payload, _ := json.Marshal(in)
	steps := []coordinator.Step{
		coordinator.NewClaimCartLinesStep(s.store, cart.ID, lines),
		coordinator.NewReserveStockStep(s.store, order.Items),
		coordinator.NewCreateOrderStep(s.store, order),
		coordinator.NewPublishOrderEventStep(s.publisher, orderEvent(events.TypeOrderCreated, order, "", string(entity.RoleUser))),
	}

	// The order id doubles as the saga id so the log joins with the order.
	saga := coordinator.NewOrchestrator(order.ID, string(payload), steps, s.sagaLog)
	if err := saga.Start(ctx); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "checkout completed", "order_id", order.ID, "cart_id", cart.ID, "lines", len(lines))
	return order, nil
}

func (s *CheckoutService) selectLines(ctx context.Context, in CheckoutInput) ([]entity.CartItem, error) {
	all, err := s.store.ListCartItems(ctx, in.CartID)
	if err != nil {
		return nil, err
	}

	selected := all
	if len(in.ItemIDs) > 0 {
		byID := make(map[int64]entity.CartItem, len(all))
		for _, it := range all {
			byID[it.ID] = it
		}
		selected = make([]entity.CartItem, 0, len(in.ItemIDs))
		for _, id := range in.ItemIDs {
			it, ok := byID[id]
			if !ok {
				// also hit by an id listed twice
				return nil, fmt.Errorf("cart item %d not in cart %d: %w", id, in.CartID, entity.ErrNotFound)
			}
			delete(byID, id)
			selected = append(selected, it)
		}
	}

	if len(selected) == 0 {
		v := entity.NewValidationError()
		v.Add("items", "select at least one cart item")
		return nil, v
	}
	return selected, nil
}
