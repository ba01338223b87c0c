package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultSpecification = "standard"
	PlaceholderImage     = "https://via.placeholder.com/120x120/10b981/ffffff?text=Product"
)

type Cart struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
}

type CartItem struct {
	ID        int64
	CartID    int64
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// CartLine is a cart item joined with its product for display.
type CartLine struct {
	Item    CartItem
	Product Product
}

func (l CartLine) Total() decimal.Decimal {
	return l.Item.UnitPrice.Mul(decimal.NewFromInt(int64(l.Item.Quantity)))
}

func (l CartLine) Image() string {
	if l.Product.Image == "" {
		return PlaceholderImage
	}
	return l.Product.Image
}

type CartSummary struct {
	TotalAmount        decimal.Decimal
	TotalUnits         int
	MinInvestment      decimal.Decimal
	RemainingAmount    decimal.Decimal
	ProgressPercentage decimal.Decimal
	ShippingNote       string
}

// Summarize totals the lines against the minimum investment for free shipping.
func Summarize(lines []CartLine, minInvestment decimal.Decimal) CartSummary {
	total := decimal.Zero
	units := 0
	for _, l := range lines {
		total = total.Add(l.Total())
		units += l.Item.Quantity
	}
	total = total.Round(2)

	s := CartSummary{
		TotalAmount:        total,
		TotalUnits:         units,
		MinInvestment:      minInvestment.Round(2),
		RemainingAmount:    decimal.Zero,
		ProgressPercentage: decimal.NewFromInt(100),
		ShippingNote:       "Free shipping",
	}
	if minInvestment.IsPositive() && total.LessThan(minInvestment) {
		s.RemainingAmount = minInvestment.Sub(total).Round(2)
		s.ProgressPercentage = total.Div(minInvestment).Mul(decimal.NewFromInt(100)).Round(1)
		s.ShippingNote = "Add " + s.RemainingAmount.StringFixed(2) + " more for free shipping"
	}
	return s
}
