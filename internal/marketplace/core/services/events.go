package services

import (
	"context"
	"log/slog"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/ports"
	"github.com/brail/marketplace/internal/pkg/events"
)

func orderEvent(eventType string, o *entity.Order, prev entity.OrderStatus, actor string) events.OrderEvent {
	items := make([]events.EventItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = events.EventItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return events.OrderEvent{
		Type:           eventType,
		OrderID:        o.ID,
		UserID:         o.UserID,
		Kind:           string(o.Kind),
		Status:         string(o.Status),
		PreviousStatus: string(prev),
		TotalAmount:    o.TotalAmount.StringFixed(2),
		Items:          items,
		Actor:          actor,
		OccurredAt:     o.UpdatedAt,
	}
}

// publish is best effort: the order is already committed.
func publish(ctx context.Context, p ports.EventPublisher, ev events.OrderEvent) {
	if err := p.Publish(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "failed to publish order event", "type", ev.Type, "order_id", ev.OrderID, "error", err)
	}
}
