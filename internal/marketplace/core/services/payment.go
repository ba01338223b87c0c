package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/ports"
)

type PaymentService struct {
	gateway ports.PaymentGateway
}

func NewPaymentService(gateway ports.PaymentGateway) *PaymentService {
	return &PaymentService{gateway: gateway}
}

// CreateSecret opens a PIX payment intent for amount (in currency units)
// and returns it with its client secret.
func (s *PaymentService) CreateSecret(ctx context.Context, amount decimal.Decimal, currency string) (*entity.PaymentIntent, error) {
	cents := toCents(amount)
	if cents < entity.MinChargeCents {
		v := entity.NewValidationError()
		v.Add("amount", fmt.Sprintf("must be at least %s", decimal.New(entity.MinChargeCents, -2).StringFixed(2)))
		return nil, v
	}
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = entity.DefaultCurrency
	}

	intent, err := s.gateway.CreateIntent(ctx, cents, currency)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	slog.InfoContext(ctx, "payment intent created", "intent_id", intent.ID, "amount_cents", cents, "currency", currency)
	return intent, nil
}

func (s *PaymentService) Status(ctx context.Context, intentID string) (*entity.PaymentIntent, error) {
	if strings.TrimSpace(intentID) == "" {
		v := entity.NewValidationError()
		v.Add("intent_id", "required")
		return nil, v
	}
	return s.gateway.GetIntent(ctx, intentID)
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
