package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	DefaultLowStockThreshold = 10
	DefaultUserLimitQuantity = 1
)

type Category struct {
	ID          string
	Name        string
	Description string
	Icon        string
}

type Supplier struct {
	ID       string
	Name     string
	Location string
	Rating   float64
	Reviews  int
}

// PriceTier is a unit price that applies for quantities in [Min, Max].
// Max == 0 means the tier is open-ended.
type PriceTier struct {
	Min   int
	Max   int
	Price decimal.Decimal
}

func (t PriceTier) Contains(q int) bool {
	return q >= t.Min && (t.Max == 0 || q <= t.Max)
}

type Variation struct {
	ID      int
	Name    string
	Price   decimal.Decimal
	Image   string
	InStock bool
}

type Product struct {
	ID                string
	Title             string
	Description       string
	Image             string
	CategoryID        string
	SupplierID        string
	ShippingFrom      string
	Weight            string
	Dimensions        string
	MOQ               int
	Tags              []string
	StockQuantity     int
	ReservedQuantity  int
	LowStockThreshold int
	MaxOrderQuantity  int
	UserLimitQuantity int
	CostPrice         decimal.Decimal
	SellingPrice      decimal.Decimal
	DiscountPrice     decimal.Decimal
	PriceTiers        []PriceTier
	Variations        []Variation
}

// MinQuantity is the MOQ with the default of one unit applied.
func (p *Product) MinQuantity() int {
	if p.MOQ < 1 {
		return 1
	}
	return p.MOQ
}

func (p *Product) Available() int {
	if avail := p.StockQuantity - p.ReservedQuantity; avail > 0 {
		return avail
	}
	return 0
}

func (p *Product) LowStock() bool {
	threshold := p.LowStockThreshold
	if threshold == 0 {
		threshold = DefaultLowStockThreshold
	}
	return p.Available() <= threshold
}

// ValidateQuantity enforces the MOQ floor and the per-order ceiling.
func (p *Product) ValidateQuantity(q int) error {
	if q < p.MinQuantity() {
		return fmt.Errorf("%w: product %s requires at least %d units, got %d", ErrBelowMOQ, p.ID, p.MinQuantity(), q)
	}
	if p.MaxOrderQuantity > 0 && q > p.MaxOrderQuantity {
		v := NewValidationError()
		v.Add("quantity", fmt.Sprintf("at most %d units per order", p.MaxOrderQuantity))
		return v
	}
	return nil
}

// BasePrice is the discount price when set, else the selling price.
func (p *Product) BasePrice() decimal.Decimal {
	if p.DiscountPrice.IsPositive() {
		return p.DiscountPrice
	}
	return p.SellingPrice
}

// PriceFor returns the unit price for an order of q units.
func (p *Product) PriceFor(q int) decimal.Decimal {
	for _, tier := range p.PriceTiers {
		if tier.Contains(q) {
			return tier.Price
		}
	}
	return p.BasePrice()
}

// ClampQuantity raises q to the MOQ floor.
func ClampQuantity(q, moq int) int {
	if moq < 1 {
		moq = 1
	}
	if q < moq {
		return moq
	}
	return q
}

type ProductFilter struct {
	CategoryID string
	Query      string
	Limit      int
	Offset     int
}
