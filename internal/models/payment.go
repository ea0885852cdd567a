package models

// PaymentInput is the payment form as submitted. It is never persisted.
type PaymentInput struct {
	CardNumber     string
	ExpiryDate     string
	CVV            string
	CardholderName string
	SaveCard       bool
}
