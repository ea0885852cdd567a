package models

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Wizard steps.
const (
	StepReview    = "review"
	StepPayment   = "payment"
	StepConfirmed = "confirmed"
	StepFailed    = "failed"
)

const (
	// DefaultDraftTTL lifetime of a booking draft
	DefaultDraftTTL = 24 * 60 * 60 // 24 hours, seconds

	// PaymentAttemptsLimit payment submits allowed per visitor per window
	PaymentAttemptsLimit = 5

	// PaymentAttemptsWindow window for PaymentAttemptsLimit, seconds
	PaymentAttemptsWindow = 60

	// ServiceFeePercent share of the subtotal charged as service fee
	ServiceFeePercent = 10

	// TaxPercent tax applied on subtotal + fees
	TaxPercent = 12

	// MaxStayNights longest stay that can be booked online
	MaxStayNights = 30
)

const DefaultDeclineMessage = "Your payment could not be processed. Please check your card details and try again."
