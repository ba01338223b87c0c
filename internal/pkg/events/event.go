// Package events carries order lifecycle events over RabbitMQ.
package events

import (
	"context"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

type EventItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type OrderEvent struct {
	Type           string      `json:"type"`
	OrderID        string      `json:"order_id"`
	UserID         int64       `json:"user_id"`
	Kind           string      `json:"kind"`
	Status         string      `json:"status"`
	PreviousStatus string      `json:"previous_status,omitempty"`
	TotalAmount    string      `json:"total_amount,omitempty"`
	Items          []EventItem `json:"items,omitempty"`
	Actor          string      `json:"actor,omitempty"`
	OccurredAt     time.Time   `json:"occurred_at"`
}

// Publisher sends order events to the broker.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// NopPublisher drops events. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event OrderEvent) error {
	slog.DebugContext(ctx, "event dropped, no broker configured", "type", event.Type, "order_id", event.OrderID)
	return nil
}

// headerCarrier adapts amqp.Table to the OpenTelemetry TextMapCarrier.
type headerCarrier amqp.Table

func (c headerCarrier) Get(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	c[key] = value
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
