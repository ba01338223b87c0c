package client

import (
	"github.com/shopspring/decimal"

	"github.com/brail/marketplace/internal/marketplace/infra/httpx"
)

// FallbackCartID is served when the cart id lookup fails.
const FallbackCartID int64 = 1

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fallbackCategories() []httpx.CategoryResponse {
	return []httpx.CategoryResponse{
		{ID: "1", Name: "Electronics", Icon: "📱"},
		{ID: "2", Name: "Clothing & Apparel", Icon: "👕"},
		{ID: "3", Name: "Home & Garden", Icon: "🏠"},
		{ID: "4", Name: "Sports & Outdoors", Icon: "⚽"},
		{ID: "5", Name: "Toys & Hobbies", Icon: "🧸"},
		{ID: "6", Name: "Health & Beauty", Icon: "💄"},
		{ID: "7", Name: "Automotive", Icon: "🚗"},
	}
}

func fallbackProducts() []httpx.ProductResponse {
	items := []struct {
		id, title, category, price string
	}{
		{"1", "Sporty Running Sneaker", "4", "89.99"},
		{"2", "Classic Wrist Watch", "1", "120.50"},
		{"3", "Wireless Headphones", "1", "199.00"},
		{"4", "Smart Watch Pro", "1", "250.00"},
		{"5", "Stylish Sunglasses", "1", "45.00"},
		{"6", "Leather Backpack", "2", "150.00"},
		{"7", "Gaming Keyboard", "1", "89.99"},
		{"8", "Yoga Mat", "4", "35.00"},
		{"9", "Bluetooth Speaker", "1", "79.99"},
		{"10", "Fitness Tracker", "1", "129.99"},
		{"11", "Running Shoes", "4", "149.99"},
		{"12", "Laptop Stand", "1", "59.99"},
		{"13", "Travel Mug", "1", "24.99"},
		{"14", "Wireless Mouse", "1", "39.99"},
	}
	out := make([]httpx.ProductResponse, len(items))
	for i, it := range items {
		out[i] = httpx.ProductResponse{
			ID:           it.id,
			Title:        it.title,
			CategoryID:   it.category,
			MOQ:          1,
			Tags:         []string{},
			Price:        d(it.price),
			SellingPrice: d(it.price),
			PriceTiers:   []httpx.PriceTierResponse{},
			Variations:   []httpx.VariationResponse{},
		}
	}
	return out
}

func fallbackProductDetail(productID string) *httpx.ProductDetailResponse {
	return &httpx.ProductDetailResponse{
		ProductResponse: httpx.ProductResponse{
			ID:            productID,
			Title:         "Digital TV Antenna 4K 1080P",
			Description:   "Terrestrial digital TV signal amplifier with built-in DVB-T2 HD smart TV antenna",
			CategoryID:    "1",
			MOQ:           50,
			Tags:          []string{},
			Price:         d("13.63"),
			SellingPrice:  d("15.99"),
			DiscountPrice: d("13.63"),
			PriceTiers: []httpx.PriceTierResponse{
				{Min: 50, Max: 499, Price: d("13.63")},
				{Min: 500, Max: 4999, Price: d("12.11")},
				{Min: 5000, Price: d("9.09")},
			},
			Variations: []httpx.VariationResponse{
				{ID: 1, Name: "3m cable", Price: d("13.63"), InStock: true},
				{ID: 2, Name: "5m cable", Price: d("13.63"), InStock: true},
			},
		},
		Supplier: &httpx.SupplierResponse{ID: "3066544290efeec", Name: "Supplier", Rating: 4.8, Reviews: 1250},
	}
}

func fallbackCart(cartID int64) *httpx.CartResponse {
	return &httpx.CartResponse{
		CartID: cartID,
		Items: []httpx.CartLineResponse{
			{
				ID: 1, Name: "Digital TV Antenna 4K 1080P", Specification: "3m cable",
				Description: "Terrestrial digital TV signal amplifier",
				UnitPrice:   d("13.63"), TotalPrice: d("681.50"), Quantity: 50, MOQ: 50,
			},
			{
				ID: 2, Name: "Wireless Bluetooth Earbuds", Specification: "Black",
				Description: "Wireless earbuds with noise cancelling",
				UnitPrice:   d("25.99"), TotalPrice: d("1299.50"), Quantity: 50, MOQ: 50,
			},
			{
				ID: 3, Name: "Smart Watch", Specification: "Silver",
				Description: "Multi-function smart watch with health monitoring",
				UnitPrice:   d("89.99"), TotalPrice: d("4499.50"), Quantity: 50, MOQ: 50,
			},
		},
		Summary: httpx.CartSummaryResponse{
			TotalAmount:        d("6480.50"),
			TotalUnits:         150,
			MinInvestment:      d("10000"),
			RemainingAmount:    d("3519.50"),
			ProgressPercentage: d("64.8"),
			ShippingNote:       "Free shipping",
		},
	}
}
