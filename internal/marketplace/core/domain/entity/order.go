package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderKind string

const (
	KindStandard OrderKind = "standard"
	KindSample   OrderKind = "sample"
)

type ShippingAddress struct {
	Street  string
	City    string
	Zipcode string
}

type OrderItem struct {
	ID           int64
	OrderID      string
	ProductID    string
	ProductName  string
	ProductImage string
	Quantity     int
	Price        decimal.Decimal
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID               string
	UserID           int64
	Kind             OrderKind
	Status           OrderStatus
	StatusStep       int
	StatusText       string
	StatusDetailText string
	CustomerName     string
	TotalAmount      decimal.Decimal
	Shipping         ShippingAddress
	PaymentMethod    string
	Notes            string
	RejectReason     string
	ReceiptPath      string
	StockReserved    bool
	OrderDate        time.Time
	UpdatedAt        time.Time
	Items            []OrderItem
}

// NewOrderID returns an id of the form ORD-1A2B3C4D.
func NewOrderID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(hex[:8])
}

// OrderTotal sums price x quantity over the items.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total.Round(2)
}

// NewOrder builds an order in its initial status. Standard orders wait for
// admin review; paid sample orders go straight to processing.
func NewOrder(userID int64, kind OrderKind, customerName string, items []OrderItem, now time.Time) *Order {
	status := StatusPending
	if kind == KindSample {
		status = StatusProcessing
	}

	o := &Order{
		ID:           NewOrderID(),
		UserID:       userID,
		Kind:         kind,
		CustomerName: customerName,
		TotalAmount:  OrderTotal(items),
		OrderDate:    now.UTC(),
		UpdatedAt:    now.UTC(),
		Items:        items,
	}
	o.setStatus(status)
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	return o
}

func (o *Order) setStatus(s OrderStatus) {
	o.Status = s
	if s != StatusRejected {
		o.StatusStep = s.Step()
	}
	o.StatusText = s.Text()
	o.StatusDetailText = s.DetailText()
}

// Apply moves the order through the state machine on behalf of role.
func (o *Order) Apply(role Role, action Action, reason string, now time.Time) (OrderStatus, error) {
	if err := ActionAllowed(role, o.Status, action); err != nil {
		return "", err
	}
	to, err := Transition(o.Status, action)
	if err != nil {
		return "", err
	}

	prev := o.Status
	o.setStatus(to)
	if to == StatusRejected {
		o.RejectReason = reason
		if reason != "" {
			o.StatusDetailText = fmt.Sprintf("Order rejected: %s", reason)
		}
	}
	o.UpdatedAt = now.UTC()
	return prev, nil
}

// Cancel rejects an order outside the role rules. Checkout uses it to undo an
// order whose saga failed.
func (o *Order) Cancel(reason string, now time.Time) OrderStatus {
	prev := o.Status
	o.setStatus(StatusRejected)
	o.RejectReason = reason
	o.StatusDetailText = fmt.Sprintf("Order rejected: %s", reason)
	o.UpdatedAt = now.UTC()
	return prev
}

// NewOrderInput is the order form: a user, a customer name and at least one item.
type NewOrderInput struct {
	UserID        int64
	CustomerName  string
	Shipping      ShippingAddress
	PaymentMethod string
	Notes         string
	Items         []OrderItem
}

func (in NewOrderInput) Validate() error {
	v := NewValidationError()
	if in.UserID <= 0 {
		v.Add("user_id", "required")
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		v.Add("customer_name", "required")
	}
	if len(in.Items) == 0 {
		v.Add("items", "required")
	}
	for i, it := range in.Items {
		if it.ProductID == "" {
			v.Add(fmt.Sprintf("items[%d].product_id", i), "required")
		}
		if it.Quantity <= 0 {
			v.Add(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
		if it.Price.IsNegative() {
			v.Add(fmt.Sprintf("items[%d].price", i), "must not be negative")
		}
	}
	return v.OrNil()
}

// Build turns the validated input into a new standard order.
func (in NewOrderInput) Build(now time.Time) *Order {
	items := make([]OrderItem, len(in.Items))
	copy(items, in.Items)

	o := NewOrder(in.UserID, KindStandard, strings.TrimSpace(in.CustomerName), items, now)
	o.Shipping = in.Shipping
	o.PaymentMethod = in.PaymentMethod
	o.Notes = in.Notes
	return o
}

// OrderQueue names a back-office list of orders.
type OrderQueue string

const (
	QueuePending    OrderQueue = "pending"
	QueueProcessed  OrderQueue = "processed"
	QueueProcessing OrderQueue = "processing"
	QueueShipped    OrderQueue = "shipped"
	QueueSamples    OrderQueue = "samples"
	QueueCustoms    OrderQueue = "customs"
	QueueCleared    OrderQueue = "cleared"
	QueueDelivered  OrderQueue = "delivered"
)

// OrderFilter selects orders by status and kind. Empty fields match everything.
type OrderFilter struct {
	Statuses []OrderStatus
	Kind     OrderKind
}

// Filter returns the selection behind a queue.
func (q OrderQueue) Filter() (OrderFilter, bool) {
	switch q {
	case QueuePending:
		return OrderFilter{Statuses: []OrderStatus{StatusPending}, Kind: KindStandard}, true
	case QueueProcessed:
		return OrderFilter{Statuses: []OrderStatus{StatusProcessing, StatusShipped, StatusCustoms, StatusCleared, StatusDelivered, StatusRejected}, Kind: KindStandard}, true
	case QueueProcessing:
		return OrderFilter{Statuses: []OrderStatus{StatusProcessing}, Kind: KindStandard}, true
	case QueueShipped:
		return OrderFilter{Statuses: []OrderStatus{StatusShipped}}, true
	case QueueSamples:
		return OrderFilter{Statuses: []OrderStatus{StatusProcessing, StatusShipped, StatusCustoms, StatusCleared, StatusDelivered}, Kind: KindSample}, true
	case QueueCustoms:
		return OrderFilter{Statuses: []OrderStatus{StatusCustoms}}, true
	case QueueCleared:
		return OrderFilter{Statuses: []OrderStatus{StatusCleared}}, true
	case QueueDelivered:
		return OrderFilter{Statuses: []OrderStatus{StatusDelivered}}, true
	}
	return OrderFilter{}, false
}

// QueueVisible reports whether role may read a queue.
func QueueVisible(role Role, q OrderQueue) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleLogistics1:
		return q != QueuePending && q != QueueProcessed
	case RoleLogistics2:
		return q == QueueCustoms || q == QueueCleared || q == QueueDelivered
	}
	return false
}
