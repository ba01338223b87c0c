package httpx

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/brail/marketplace/internal/coordinator/sagalog"
	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/services"
)

// Registration keeps the field names of the sign-up form.
type RegisterRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	CNPJ           string `json:"cnpj" validate:"required"`
	Phone          string `json:"phone" validate:"required"`
	EmployeeCount  string `json:"employeeCount" validate:"required"`
	MonthlyRevenue string `json:"monthlyRevenue" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	CNPJ           string `json:"cnpj"`
	Phone          string `json:"phone"`
	EmployeeCount  string `json:"employeeCount"`
	MonthlyRevenue string `json:"monthlyRevenue"`
	Role           string `json:"role"`
	Company        string `json:"company"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon"`
}

type SupplierResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Location string  `json:"location"`
	Rating   float64 `json:"rating"`
	Reviews  int     `json:"reviews"`
}

type PriceTierResponse struct {
	Min   int             `json:"min"`
	Max   int             `json:"max,omitempty"`
	Price decimal.Decimal `json:"price"`
}

type VariationResponse struct {
	ID      int             `json:"id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Image   string          `json:"image,omitempty"`
	InStock bool            `json:"in_stock"`
}

type ProductResponse struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Image         string              `json:"image"`
	CategoryID    string              `json:"category_id"`
	SupplierID    string              `json:"supplier_id"`
	ShippingFrom  string              `json:"shipping_from,omitempty"`
	Weight        string              `json:"weight,omitempty"`
	Dimensions    string              `json:"dimensions,omitempty"`
	MOQ           int                 `json:"moq"`
	Tags          []string            `json:"tags"`
	Price         decimal.Decimal     `json:"price"`
	SellingPrice  decimal.Decimal     `json:"selling_price"`
	DiscountPrice decimal.Decimal     `json:"discount_price"`
	CostPrice     *decimal.Decimal    `json:"cost_price,omitempty"`
	Stock         int                 `json:"stock"`
	Available     int                 `json:"available"`
	LowStock      bool                `json:"low_stock"`
	MaxOrder      int                 `json:"max_order_quantity,omitempty"`
	PriceTiers    []PriceTierResponse `json:"price_tiers"`
	Variations    []VariationResponse `json:"variations"`
}

type ProductDetailResponse struct {
	ProductResponse
	Supplier *SupplierResponse `json:"supplier,omitempty"`
}

type SearchResponse struct {
	Items      []ProductResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

type CartIDRequest struct {
	UserID int64 `json:"user_id"`
}

type CartIDResponse struct {
	CartID int64 `json:"cart_id"`
}

type AddItemRequest struct {
	CartID    int64  `json:"cart_id" validate:"required,gt=0"`
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type RemoveItemRequest struct {
	CartID int64 `json:"cart_id" validate:"required,gt=0"`
	ItemID int64 `json:"item_id" validate:"required,gt=0"`
}

// RemoveItemsRequest drops the listed lines; an empty list clears the cart.
type RemoveItemsRequest struct {
	ItemIDs []int64 `json:"item_ids" validate:"dive,gt=0"`
}

type CartItemResponse struct {
	ID        int64           `json:"id"`
	CartID    int64           `json:"cart_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CartLineResponse struct {
	ID            int64           `json:"id"`
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Specification string          `json:"specification"`
	Image         string          `json:"image"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Quantity      int             `json:"quantity"`
	MOQ           int             `json:"moq"`
}

type CartSummaryResponse struct {
	TotalAmount        decimal.Decimal `json:"total_amount"`
	TotalUnits         int             `json:"total_units"`
	MinInvestment      decimal.Decimal `json:"min_investment"`
	RemainingAmount    decimal.Decimal `json:"remaining_amount"`
	ProgressPercentage decimal.Decimal `json:"progress_percentage"`
	ShippingNote       string          `json:"shipping_note"`
}

type CartResponse struct {
	CartID  int64               `json:"cart_id"`
	Items   []CartLineResponse  `json:"items"`
	Summary CartSummaryResponse `json:"summary"`
}

type ShippingDTO struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
}

type OrderItemRequest struct {
	ProductID    string          `json:"product_id" validate:"required"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	Quantity     int             `json:"quantity" validate:"required,gt=0"`
	Price        decimal.Decimal `json:"price"`
}

// CreateOrderRequest is the flat order form. user_id defaults to the caller.
type CreateOrderRequest struct {
	UserID          int64              `json:"user_id"`
	CustomerName    string             `json:"customer_name" validate:"required"`
	ShippingStreet  string             `json:"shipping_street"`
	ShippingCity    string             `json:"shipping_city"`
	ShippingZipcode string             `json:"shipping_zipcode"`
	PaymentMethod   string             `json:"payment_method"`
	Notes           string             `json:"notes"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type CheckoutRequest struct {
	CartID        int64       `json:"cart_id" validate:"required,gt=0"`
	ItemIDs       []int64     `json:"item_ids" validate:"dive,gt=0"`
	CustomerName  string      `json:"customer_name" validate:"required"`
	Shipping      ShippingDTO `json:"shipping"`
	PaymentMethod string      `json:"payment_method"`
	Notes         string      `json:"notes"`
}

type ListOrdersRequest struct {
	UserID int64 `json:"user_id"`
}

type OrderItemResponse struct {
	ID          int64           `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Image       string          `json:"image"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type OrderResponse struct {
	ID               string              `json:"id"`
	UserID           int64               `json:"user_id"`
	Kind             string              `json:"kind"`
	Status           string              `json:"status"`
	StatusStep       int                 `json:"status_step"`
	StatusText       string              `json:"status_text"`
	StatusDetailText string              `json:"status_detail_text"`
	StatusClass      string              `json:"status_class"`
	NextActions      []string            `json:"next_actions"`
	CustomerName     string              `json:"customer_name"`
	TotalAmount      decimal.Decimal     `json:"total_amount"`
	Shipping         ShippingDTO         `json:"shipping"`
	PaymentMethod    string              `json:"payment_method,omitempty"`
	Notes            string              `json:"notes,omitempty"`
	RejectReason     string              `json:"reject_reason,omitempty"`
	HasReceipt       bool                `json:"has_receipt"`
	StockReserved    bool                `json:"stock_reserved"`
	OrderDate        time.Time           `json:"order_date"`
	UpdatedAt        time.Time           `json:"updated_at"`
	Items            []OrderItemResponse `json:"items"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
}

type SagaLogResponse struct {
	SagaID      string    `json:"saga_id"`
	Status      string    `json:"status"`
	CurrentStep string    `json:"current_step,omitempty"`
	Errors      []string  `json:"errors,omitempty"`
	TraceID     string    `json:"trace_id,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Reason   string `json:"reason"`
}

type StatusActionRequest struct {
	Action string `json:"action" validate:"required"`
	Reason string `json:"reason"`
}

// PaymentSecretRequest carries the amount in cents.
type PaymentSecretRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency"`
}

type PaymentIntentResponse struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret,omitempty"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

type SamplePurchaseRequest struct {
	ProductID       string `json:"product_id" validate:"required"`
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

type SamplePurchaseResponse struct {
	ID              int64          `json:"id"`
	ProductID       string         `json:"product_id"`
	OrderID         string         `json:"order_id"`
	PaymentIntentID string         `json:"payment_intent_id"`
	Status          string         `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	Order           *OrderResponse `json:"order,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func mapUser(u *entity.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		CNPJ:           u.CNPJ,
		Phone:          u.Phone,
		EmployeeCount:  u.EmployeeCount,
		MonthlyRevenue: u.MonthlyRevenue,
		Role:           string(u.Role),
		Company:        u.Name,
	}
}

func mapCategories(cats []entity.Category) []CategoryResponse {
	out := make([]CategoryResponse, len(cats))
	for i, c := range cats {
		out[i] = CategoryResponse{ID: c.ID, Name: c.Name, Description: c.Description, Icon: c.Icon}
	}
	return out
}

func mapSupplier(s entity.Supplier) SupplierResponse {
	return SupplierResponse{ID: s.ID, Name: s.Name, Location: s.Location, Rating: s.Rating, Reviews: s.Reviews}
}

func mapProduct(p entity.Product) ProductResponse {
	tiers := make([]PriceTierResponse, len(p.PriceTiers))
	for i, t := range p.PriceTiers {
		tiers[i] = PriceTierResponse{Min: t.Min, Max: t.Max, Price: t.Price}
	}
	vars := make([]VariationResponse, len(p.Variations))
	for i, v := range p.Variations {
		vars[i] = VariationResponse{ID: v.ID, Name: v.Name, Price: v.Price, Image: v.Image, InStock: v.InStock}
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return ProductResponse{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Image:         p.Image,
		CategoryID:    p.CategoryID,
		SupplierID:    p.SupplierID,
		ShippingFrom:  p.ShippingFrom,
		Weight:        p.Weight,
		Dimensions:    p.Dimensions,
		MOQ:           p.MinQuantity(),
		Tags:          tags,
		Price:         p.BasePrice(),
		SellingPrice:  p.SellingPrice,
		DiscountPrice: p.DiscountPrice,
		Stock:         p.StockQuantity,
		Available:     p.Available(),
		LowStock:      p.LowStock(),
		MaxOrder:      p.MaxOrderQuantity,
		PriceTiers:    tiers,
		Variations:    vars,
	}
}

func mapProducts(products []entity.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = mapProduct(p)
	}
	return out
}

func mapProductDetail(d *services.ProductDetail) ProductDetailResponse {
	out := ProductDetailResponse{ProductResponse: mapProduct(d.Product)}
	if d.Supplier != nil {
		sup := mapSupplier(*d.Supplier)
		out.Supplier = &sup
	}
	return out
}

func mapCartItem(it *entity.CartItem) CartItemResponse {
	return CartItemResponse{ID: it.ID, CartID: it.CartID, ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
}

func mapCart(v *services.CartView) CartResponse {
	items := make([]CartLineResponse, len(v.Lines))
	for i, l := range v.Lines {
		items[i] = CartLineResponse{
			ID:            l.Item.ID,
			ProductID:     l.Item.ProductID,
			Name:          l.Product.Title,
			Description:   l.Product.Description,
			Specification: entity.DefaultSpecification,
			Image:         l.Image(),
			UnitPrice:     l.Item.UnitPrice,
			TotalPrice:    l.Total(),
			Quantity:      l.Item.Quantity,
			MOQ:           l.Product.MinQuantity(),
		}
	}
	return CartResponse{
		CartID: v.CartID,
		Items:  items,
		Summary: CartSummaryResponse{
			TotalAmount:        v.Summary.TotalAmount,
			TotalUnits:         v.Summary.TotalUnits,
			MinInvestment:      v.Summary.MinInvestment,
			RemainingAmount:    v.Summary.RemainingAmount,
			ProgressPercentage: v.Summary.ProgressPercentage,
			ShippingNote:       v.Summary.ShippingNote,
		},
	}
}

func mapOrder(o *entity.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Image:       it.ProductImage,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Subtotal:    it.Subtotal(),
		}
	}
	next := []string{}
	for _, a := range entity.NextActions(o.Status) {
		next = append(next, string(a))
	}
	return OrderResponse{
		ID:               o.ID,
		UserID:           o.UserID,
		Kind:             string(o.Kind),
		Status:           string(o.Status),
		StatusStep:       o.StatusStep,
		StatusText:       o.StatusText,
		StatusDetailText: o.StatusDetailText,
		StatusClass:      o.Status.Class(),
		NextActions:      next,
		CustomerName:     o.CustomerName,
		TotalAmount:      o.TotalAmount,
		Shipping:         ShippingDTO{Street: o.Shipping.Street, City: o.Shipping.City, Zipcode: o.Shipping.Zipcode},
		PaymentMethod:    o.PaymentMethod,
		Notes:            o.Notes,
		RejectReason:     o.RejectReason,
		HasReceipt:       o.ReceiptPath != "",
		StockReserved:    o.StockReserved,
		OrderDate:        o.OrderDate,
		UpdatedAt:        o.UpdatedAt,
		Items:            items,
	}
}

func mapOrders(orders []entity.Order) OrderListResponse {
	out := OrderListResponse{Orders: make([]OrderResponse, len(orders))}
	for i := range orders {
		out.Orders[i] = mapOrder(&orders[i])
	}
	return out
}

func mapSagaHistory(history []sagalog.SagaLog) []SagaLogResponse {
	out := make([]SagaLogResponse, len(history))
	for i, h := range history {
		out[i] = SagaLogResponse{
			SagaID:      h.SagaID,
			Status:      string(h.Status),
			CurrentStep: h.CurrentStep,
			Errors:      h.Errors(),
			TraceID:     h.TraceID,
			UpdatedAt:   h.UpdatedAt,
		}
	}
	return out
}

func mapIntent(in *entity.PaymentIntent) PaymentIntentResponse {
	return PaymentIntentResponse{
		IntentID:     in.ID,
		ClientSecret: in.ClientSecret,
		Amount:       in.Amount,
		Currency:     in.Currency,
		Status:       string(in.Status),
	}
}

func mapSample(p *entity.SamplePurchase) SamplePurchaseResponse {
	return SamplePurchaseResponse{
		ID:              p.ID,
		ProductID:       p.ProductID,
		OrderID:         p.OrderID,
		PaymentIntentID: p.PaymentIntentID,
		Status:          p.Status,
		CreatedAt:       p.CreatedAt,
	}
}
