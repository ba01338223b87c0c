package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/ports"
)

var _ ports.PaymentGateway = (*FakeGateway)(nil)

// FakeGateway is an in-memory gateway for local development when no Stripe
// key is configured. New intents report "processing" once and
// "succeeded" from the next read on, so status polling completes.
// Do NOT use in production.
type FakeGateway struct {
	mu      sync.Mutex
	intents map[string]*fakeIntent
}

type fakeIntent struct {
	intent entity.PaymentIntent
	reads  int
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{intents: make(map[string]*fakeIntent)}
}

func (g *FakeGateway) CreateIntent(_ context.Context, amountCents int64, currency string) (*entity.PaymentIntent, error) {
	id := "pi_fake_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	in := entity.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString()[:8],
		Amount:       amountCents,
		Currency:     currency,
		Status:       entity.PaymentProcessing,
	}

	g.mu.Lock()
	g.intents[id] = &fakeIntent{intent: in}
	g.mu.Unlock()

	return &in, nil
}

func (g *FakeGateway) GetIntent(_ context.Context, id string) (*entity.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	fi, ok := g.intents[id]
	if !ok {
		return nil, fmt.Errorf("payment: intent %q: %w", id, entity.ErrNotFound)
	}
	fi.reads++
	if fi.reads > 1 && fi.intent.Status == entity.PaymentProcessing {
		fi.intent.Status = entity.PaymentSucceeded
	}
	out := fi.intent
	return &out, nil
}

// SetStatus forces the status of an intent.
func (g *FakeGateway) SetStatus(id string, status entity.PaymentStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if fi, ok := g.intents[id]; ok {
		fi.intent.Status = status
	}
}
