package entity

import "time"

const SampleStatusPurchased = "purchased"

// SamplePurchase records that a user paid for a product sample. A user can
// buy one sample per product.
type SamplePurchase struct {
	ID              int64
	UserID          int64
	ProductID       string
	OrderID         string
	PaymentIntentID string
	Status          string
	CreatedAt       time.Time
}
