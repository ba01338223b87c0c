package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
)

// HandlerFunc processes one decoded event. A failed message is requeued once.
type HandlerFunc func(ctx context.Context, event OrderEvent) error

// Worker consumes the order events queue on its own channel, one message at a time.
type Worker struct {
	id        int
	channel   *amqp.Channel
	queueName string
	handle    HandlerFunc
}

func NewWorker(id int, conn *amqp.Connection, queueName string, handle HandlerFunc) (*Worker, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("events: open channel for worker %d: %w", id, err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("events: set QoS for worker %d: %w", id, err)
	}

	return &Worker{id: id, channel: ch, queueName: queueName, handle: handle}, nil
}

// Start consumes until the channel or connection closes.
func (w *Worker) Start(wg *sync.WaitGroup) {
	defer wg.Done()
	defer w.channel.Close()

	msgs, err := w.channel.Consume(
		w.queueName,
		fmt.Sprintf("order-events-worker-%d", w.id),
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		slog.Error("worker failed to register consumer", "worker", w.id, "error", err)
		return
	}

	slog.Info("worker waiting for messages", "worker", w.id, "queue", w.queueName)
	for msg := range msgs {
		w.process(msg)
	}
	slog.Info("worker stopped", "worker", w.id)
}

func (w *Worker) process(msg amqp.Delivery) {
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), headerCarrier(msg.Headers))

	var event OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		slog.WarnContext(ctx, "dropping malformed event", "worker", w.id, "error", err)
		_ = msg.Nack(false, false)
		return
	}

	if err := w.handle(ctx, event); err != nil {
		slog.ErrorContext(ctx, "event handler failed, requeueing", "worker", w.id, "order_id", event.OrderID, "error", err)
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}

	if err := msg.Ack(false); err != nil {
		slog.ErrorContext(ctx, "ack failed", "worker", w.id, "order_id", event.OrderID, "error", err)
	}
}

func (w *Worker) Stop() {
	if w.channel != nil {
		_ = w.channel.Close()
	}
}
