package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/ports"
	"github.com/brail/marketplace/internal/pkg/events"
)

type SampleService struct {
	store     ports.Store
	gateway   ports.PaymentGateway
	publisher ports.EventPublisher
	now       func() time.Time
}

func NewSampleService(store ports.Store, gateway ports.PaymentGateway, publisher ports.EventPublisher) *SampleService {
	return &SampleService{store: store, gateway: gateway, publisher: publisher, now: time.Now}
}

// Purchase records a paid sample of a product. The payment intent must have
// succeeded for at least the sample price, and it pays for one sample only.
// Each user gets one sample per product. The sample ships as a one-unit
// order that starts in Processing.
func (s *SampleService) Purchase(ctx context.Context, userID int64, productID, intentID string) (*entity.SamplePurchase, *entity.Order, error) {
	intent, err := s.gateway.GetIntent(ctx, intentID)
	if err != nil {
		return nil, nil, fmt.Errorf("check payment %s: %w", intentID, err)
	}
	if intent.Status != entity.PaymentSucceeded {
		return nil, nil, fmt.Errorf("payment %s is %s: %w", intentID, intent.Status, entity.ErrPaymentRequired)
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	if price := toCents(p.BasePrice()); intent.Amount < price {
		return nil, nil, fmt.Errorf("payment %s covers %d of %d cents: %w", intentID, intent.Amount, price, entity.ErrPaymentRequired)
	}

	var (
		purchase *entity.SamplePurchase
		order    *entity.Order
	)
	err = s.store.WithTx(ctx, func(tx ports.Repositories) error {
		has, err := tx.HasSamplePurchase(ctx, userID, productID)
		if err != nil {
			return err
		}
		if has {
			return fmt.Errorf("sample of %s: %w", productID, entity.ErrConflict)
		}

		items := []entity.OrderItem{{
			ProductID:    p.ID,
			ProductName:  p.Title,
			ProductImage: p.Image,
			Quantity:     1,
			Price:        p.BasePrice(),
		}}
		order = entity.NewOrder(userID, entity.KindSample, user.Name, items, s.now())
		order.PaymentMethod = "pix"
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		purchase = &entity.SamplePurchase{
			UserID:          userID,
			ProductID:       productID,
			OrderID:         order.ID,
			PaymentIntentID: intentID,
			Status:          entity.SampleStatusPurchased,
			CreatedAt:       s.now().UTC(),
		}
		return tx.CreateSamplePurchase(ctx, purchase)
	})
	if err != nil {
		return nil, nil, err
	}

	slog.InfoContext(ctx, "sample purchased", "user_id", userID, "product_id", productID, "order_id", order.ID)
	publish(ctx, s.publisher, orderEvent(events.TypeOrderCreated, order, "", string(entity.RoleUser)))
	return purchase, order, nil
}

func (s *SampleService) List(ctx context.Context, userID int64) ([]entity.SamplePurchase, error) {
	return s.store.ListSamplePurchases(ctx, userID)
}
