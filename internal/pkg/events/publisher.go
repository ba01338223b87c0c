package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
)

type AMQPPublisher struct {
	pool      *ChannelPool
	queueName string
	timeout   time.Duration
}

func NewAMQPPublisher(pool *ChannelPool, queueName string) *AMQPPublisher {
	return &AMQPPublisher{pool: pool, queueName: queueName, timeout: 5 * time.Second}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event OrderEvent) error {
	msg, err := newPublishing(ctx, event)
	if err != nil {
		return err
	}

	ch, err := p.pool.Get()
	if err != nil {
		return fmt.Errorf("events: get channel: %w", err)
	}
	defer p.pool.Put(ch)

	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := ch.PublishWithContext(pubCtx, "", p.queueName, false, false, msg); err != nil {
		return fmt.Errorf("events: publish %s for %s: %w", event.Type, event.OrderID, err)
	}

	slog.DebugContext(ctx, "order event published", "type", event.Type, "order_id", event.OrderID)
	return nil
}

// newPublishing encodes the event as a persistent JSON message and injects
// the active trace context into its headers.
func newPublishing(ctx context.Context, event OrderEvent) (amqp.Publishing, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("events: marshal %s: %w", event.Type, err)
	}

	headers := amqp.Table{}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier(headers))

	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Type:         event.Type,
		MessageId:    event.OrderID,
		Timestamp:    event.OccurredAt,
		Headers:      headers,
		Body:         body,
	}, nil
}
