package entity

const (
	MinChargeCents  int64 = 50
	DefaultCurrency       = "brl"
)

type PaymentStatus string

const (
	PaymentSucceeded             PaymentStatus = "succeeded"
	PaymentProcessing            PaymentStatus = "processing"
	PaymentRequiresPaymentMethod PaymentStatus = "requires_payment_method"
	PaymentRequiresAction        PaymentStatus = "requires_action"
	PaymentCanceled              PaymentStatus = "canceled"
)

// Failed reports a terminal failure; the buyer must start over.
func (s PaymentStatus) Failed() bool {
	return s == PaymentRequiresPaymentMethod || s == PaymentCanceled
}

// PaymentIntent is the provider's view of a charge.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       PaymentStatus
}
