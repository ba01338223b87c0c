package sqlstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/ports"
)

var demoCategories = []entity.Category{
	{ID: "1", Name: "Electronics", Description: "Phones, audio and accessories", Icon: "📱"},
	{ID: "2", Name: "Clothing & Apparel", Description: "Garments and footwear", Icon: "👕"},
	{ID: "3", Name: "Home & Garden", Description: "Household goods", Icon: "🏠"},
	{ID: "4", Name: "Sports & Outdoors", Description: "Fitness and camping", Icon: "⚽"},
	{ID: "5", Name: "Toys & Hobbies", Description: "Toys and craft supplies", Icon: "🧸"},
	{ID: "6", Name: "Health & Beauty", Description: "Personal care", Icon: "💄"},
	{ID: "7", Name: "Automotive", Description: "Car parts and accessories", Icon: "🚗"},
}

var demoSuppliers = []entity.Supplier{
	{ID: "3066544290efeec", Name: "Shenzhen Signal Tech", Location: "Shenzhen, CN", Rating: 4.8, Reviews: 1250},
	{ID: "sup-yiwu-goods", Name: "Yiwu Daily Goods", Location: "Yiwu, CN", Rating: 4.5, Reviews: 812},
	{ID: "sup-ningbo-sport", Name: "Ningbo Sports Co.", Location: "Ningbo, CN", Rating: 4.6, Reviews: 430},
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func demoProducts() []*entity.Product {
	return []*entity.Product{
		{
			ID: "p-antenna-4k", Title: "Digital TV Antenna 4K 1080P",
			Description: "Indoor HD antenna with amplifier", CategoryID: "1", SupplierID: "3066544290efeec",
			ShippingFrom: "Shenzhen", Weight: "0.3kg", Dimensions: "20x15x2cm", MOQ: 50,
			Tags: []string{"tv", "antenna"}, StockQuantity: 20000, MaxOrderQuantity: 10000,
			CostPrice: money("6.50"), SellingPrice: money("13.63"),
			PriceTiers: []entity.PriceTier{
				{Min: 50, Max: 499, Price: money("13.63")},
				{Min: 500, Max: 4999, Price: money("12.11")},
				{Min: 5000, Price: money("9.09")},
			},
			Variations: []entity.Variation{
				{ID: 1, Name: "3m cable", Price: money("13.63"), InStock: true},
				{ID: 2, Name: "5m cable", Price: money("13.63"), InStock: true},
			},
		},
		{
			ID: "p-bt-earbuds", Title: "Wireless Bluetooth Earbuds",
			Description: "Bluetooth 5.3 earbuds with charging case", CategoryID: "1", SupplierID: "3066544290efeec",
			ShippingFrom: "Shenzhen", Weight: "0.1kg", MOQ: 50, Tags: []string{"audio"},
			StockQuantity: 5000, CostPrice: money("9.00"), SellingPrice: money("25.50"),
			PriceTiers: []entity.PriceTier{
				{Min: 50, Max: 999, Price: money("25.50")},
				{Min: 1000, Price: money("21.90")},
			},
		},
		{
			ID: "p-smart-watch", Title: "Smart Watch Pro",
			Description: "Fitness smart watch with heart rate monitor", CategoryID: "1", SupplierID: "3066544290efeec",
			ShippingFrom: "Shenzhen", Weight: "0.2kg", MOQ: 50, Tags: []string{"wearable"},
			StockQuantity: 3000, CostPrice: money("18.00"), SellingPrice: money("45.00"), DiscountPrice: money("42.00"),
		},
		{
			ID: "p-running-shoes", Title: "Running Shoes",
			Description: "Lightweight mesh running shoes", CategoryID: "2", SupplierID: "sup-yiwu-goods",
			ShippingFrom: "Yiwu", Weight: "0.6kg", MOQ: 100, Tags: []string{"shoes"},
			StockQuantity: 8000, CostPrice: money("12.00"), SellingPrice: money("29.99"),
			PriceTiers: []entity.PriceTier{
				{Min: 100, Max: 999, Price: money("29.99")},
				{Min: 1000, Price: money("26.50")},
			},
		},
		{
			ID: "p-travel-mug", Title: "Travel Mug",
			Description: "Insulated stainless steel mug", CategoryID: "3", SupplierID: "sup-yiwu-goods",
			ShippingFrom: "Yiwu", Weight: "0.35kg", MOQ: 200, Tags: []string{"kitchen"},
			StockQuantity: 15000, CostPrice: money("2.10"), SellingPrice: money("5.80"),
		},
		{
			ID: "p-yoga-mat", Title: "Yoga Mat",
			Description: "Non-slip TPE yoga mat", CategoryID: "4", SupplierID: "sup-ningbo-sport",
			ShippingFrom: "Ningbo", Weight: "1.1kg", MOQ: 100, Tags: []string{"fitness"},
			StockQuantity: 4000, CostPrice: money("4.40"), SellingPrice: money("11.20"),
		},
	}
}

// SeedCatalog loads the demo catalog into an empty database. It is a no-op
// once any category exists.
func (s *Store) SeedCatalog(ctx context.Context) error {
	var n int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return fmt.Errorf("sqlstore: count categories: %w", err)
	}
	if n > 0 {
		return nil
	}

	return s.WithTx(ctx, func(tx ports.Repositories) error {
		st := tx.(*Store)
		for _, c := range demoCategories {
			if err := st.InsertCategory(ctx, c); err != nil {
				return err
			}
		}
		for _, sup := range demoSuppliers {
			if err := st.InsertSupplier(ctx, sup); err != nil {
				return err
			}
		}
		products := demoProducts()
		for _, p := range products {
			if err := st.InsertProduct(ctx, p); err != nil {
				return err
			}
		}
		slog.InfoContext(ctx, "demo catalog seeded",
			"categories", len(demoCategories), "suppliers", len(demoSuppliers), "products", len(products))
		return nil
	})
}
