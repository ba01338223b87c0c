package ports

import (
	"context"
	"time"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/pkg/events"
)

// PaymentGateway creates and inspects PIX payment intents at the provider.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string) (*entity.PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*entity.PaymentIntent, error)
}

// Session is an authenticated login.
type Session struct {
	Token     string
	UserID    int64
	Role      entity.Role
	ExpiresAt time.Time
}

type SessionStore interface {
	Save(ctx context.Context, s Session, ttl time.Duration) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

// ReceiptStorage keeps uploaded payment receipts.
type ReceiptStorage interface {
	Put(ctx context.Context, name string, body []byte) (path string, err error)
}

// EventPublisher announces order lifecycle changes.
type EventPublisher interface {
	Publish(ctx context.Context, event events.OrderEvent) error
}
