package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/brail/marketplace/internal/marketplace/infra/httpx"
)

var ErrUnknownLine = errors.New("cart line not found")

// CartAPI is the part of the client a CartEditor writes through.
type CartAPI interface {
	UpdateCartItem(ctx context.Context, cartID, itemID int64, quantity int) (*httpx.CartItemResponse, error)
	RemoveCartItem(ctx context.Context, cartID, itemID int64) error
}

// CartLine is the editable state of one cart line. Quantity is the value
// being edited and OriginalQuantity the last one the server accepted.
type CartLine struct {
	ID               int64
	ProductID        string
	Name             string
	Specification    string
	UnitPrice        decimal.Decimal
	TotalPrice       decimal.Decimal
	Quantity         int
	OriginalQuantity int
	MOQ              int
	Selected         bool
	HasChanges       bool
}

// CartEditor edits cart lines locally and confirms each one with the API.
// Quantities never go below the line's MOQ.
type CartEditor struct {
	api    CartAPI
	cartID int64

	mu    sync.Mutex
	lines []*CartLine
}

// NewCartEditor starts an editor over cart with every line selected.
func NewCartEditor(api CartAPI, cart *httpx.CartResponse) *CartEditor {
	e := &CartEditor{api: api, cartID: cart.CartID}
	for _, it := range cart.Items {
		moq := it.MOQ
		if moq < 1 {
			moq = 1
		}
		e.lines = append(e.lines, &CartLine{
			ID:               it.ID,
			ProductID:        it.ProductID,
			Name:             it.Name,
			Specification:    it.Specification,
			UnitPrice:        it.UnitPrice,
			TotalPrice:       it.TotalPrice,
			Quantity:         it.Quantity,
			OriginalQuantity: it.Quantity,
			MOQ:              moq,
			Selected:         true,
		})
	}
	return e
}

// Lines returns a copy of the current lines.
func (e *CartEditor) Lines() []CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]CartLine, len(e.lines))
	for i, l := range e.lines {
		out[i] = *l
	}
	return out
}

func (e *CartEditor) Line(lineID int64) (CartLine, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l := e.find(lineID)
	if l == nil {
		return CartLine{}, false
	}
	return *l, true
}

func (e *CartEditor) find(lineID int64) *CartLine {
	for _, l := range e.lines {
		if l.ID == lineID {
			return l
		}
	}
	return nil
}

func (e *CartEditor) edit(lineID int64, fn func(l *CartLine)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	l := e.find(lineID)
	if l == nil {
		return fmt.Errorf("line %d: %w", lineID, ErrUnknownLine)
	}
	fn(l)
	return nil
}

func (l *CartLine) setQuantity(q int) {
	if q < l.MOQ {
		q = l.MOQ
	}
	l.Quantity = q
	l.TotalPrice = l.UnitPrice.Mul(decimal.NewFromInt(int64(q))).Round(2)
	l.HasChanges = true
}

func (e *CartEditor) Increase(lineID int64) error {
	return e.edit(lineID, func(l *CartLine) { l.setQuantity(l.Quantity + 1) })
}

// Decrease is a no-op when the line is already at its MOQ.
func (e *CartEditor) Decrease(lineID int64) error {
	return e.edit(lineID, func(l *CartLine) {
		if l.Quantity > l.MOQ {
			l.setQuantity(l.Quantity - 1)
		}
	})
}

func (e *CartEditor) CanDecrease(lineID int64) bool {
	l, ok := e.Line(lineID)
	return ok && l.Quantity > l.MOQ
}

// SetQuantity raises values below the MOQ to the MOQ.
func (e *CartEditor) SetQuantity(lineID int64, q int) error {
	return e.edit(lineID, func(l *CartLine) { l.setQuantity(q) })
}

// Confirm sends the edited quantity. On success the line takes the server
// price; on failure quantity and total roll back to the last accepted
// values. Either way HasChanges is cleared. Lines without changes are not sent.
func (e *CartEditor) Confirm(ctx context.Context, lineID int64) error {
	e.mu.Lock()
	l := e.find(lineID)
	if l == nil {
		e.mu.Unlock()
		return fmt.Errorf("line %d: %w", lineID, ErrUnknownLine)
	}
	if !l.HasChanges {
		e.mu.Unlock()
		return nil
	}
	qty := l.Quantity
	e.mu.Unlock()

	item, err := e.api.UpdateCartItem(ctx, e.cartID, lineID, qty)

	e.mu.Lock()
	defer e.mu.Unlock()
	if l = e.find(lineID); l == nil {
		return fmt.Errorf("line %d: %w", lineID, ErrUnknownLine)
	}
	if err != nil {
		slog.WarnContext(ctx, "cart update failed, rolling back", "cart_id", e.cartID, "line_id", lineID, "error", err)
		l.Quantity = l.OriginalQuantity
		l.TotalPrice = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
		l.HasChanges = false
		return err
	}

	l.UnitPrice = item.UnitPrice
	l.Quantity = item.Quantity
	l.OriginalQuantity = item.Quantity
	l.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
	l.HasChanges = false
	return nil
}

// Remove deletes the line on the server and then locally.
func (e *CartEditor) Remove(ctx context.Context, lineID int64) error {
	if _, ok := e.Line(lineID); !ok {
		return fmt.Errorf("line %d: %w", lineID, ErrUnknownLine)
	}
	if err := e.api.RemoveCartItem(ctx, e.cartID, lineID); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i, l := range e.lines {
		if l.ID == lineID {
			e.lines = append(e.lines[:i], e.lines[i+1:]...)
			break
		}
	}
	return nil
}

func (e *CartEditor) SetSelected(lineID int64, selected bool) error {
	return e.edit(lineID, func(l *CartLine) { l.Selected = selected })
}

func (e *CartEditor) SelectAll(selected bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range e.lines {
		l.Selected = selected
	}
}

// CanSubmit reports whether any line is selected for checkout.
func (e *CartEditor) CanSubmit() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range e.lines {
		if l.Selected {
			return true
		}
	}
	return false
}

// SelectedIDs are the line ids to send to checkout.
func (e *CartEditor) SelectedIDs() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []int64
	for _, l := range e.lines {
		if l.Selected {
			out = append(out, l.ID)
		}
	}
	return out
}

func (e *CartEditor) TotalUnits() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, l := range e.lines {
		n += l.Quantity
	}
	return n
}

func (e *CartEditor) SelectedTotal() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := decimal.Zero
	for _, l := range e.lines {
		if l.Selected {
			total = total.Add(l.TotalPrice)
		}
	}
	return total
}
