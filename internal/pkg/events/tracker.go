package events

import (
	"log/slog"
	"sync"
)

// OrderTracker tallies consumed events. Safe for concurrent workers.
type OrderTracker struct {
	mu           sync.Mutex
	total        int64
	byType       map[string]int64
	byStatus     map[string]int64
	unitsOrdered map[string]int64
}

func NewOrderTracker() *OrderTracker {
	return &OrderTracker{
		byType:       make(map[string]int64),
		byStatus:     make(map[string]int64),
		unitsOrdered: make(map[string]int64),
	}
}

func (t *OrderTracker) Record(event OrderEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total++
	t.byType[event.Type]++
	t.byStatus[event.Status]++
	if event.Type == TypeOrderCreated {
		for _, item := range event.Items {
			t.unitsOrdered[item.ProductID] += int64(item.Quantity)
		}
	}
}

func (t *OrderTracker) Total() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

func (t *OrderTracker) CountByType(eventType string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byType[eventType]
}

func (t *OrderTracker) CountByStatus(status string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byStatus[status]
}

func (t *OrderTracker) UnitsOrdered(productID string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unitsOrdered[productID]
}

// LogSummary writes the totals at shutdown.
func (t *OrderTracker) LogSummary() {
	t.mu.Lock()
	defer t.mu.Unlock()

	slog.Info("order events summary",
		"total", t.total,
		"by_type", t.byType,
		"by_status", t.byStatus,
		"products", len(t.unitsOrdered),
	)
}
