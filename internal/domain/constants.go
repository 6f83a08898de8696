package domain

// Terminal payment statuses. An empty status means the capture flow is still
// in progress; once one of these is set the model is never mutated again.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// DefaultCountryCode is used on the hosted page when the merchant supplied none.
const DefaultCountryCode = "AU"

// DefaultCurrencyDigits is the decimal precision for display amounts.
const DefaultCurrencyDigits = 2
