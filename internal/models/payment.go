package models

import (
	"time"

	"gorm.io/gorm"

	"payflow/internal/domain"
)

// Payment is the persisted model threaded through the capture flow. It is the
// only state carried between the initial capture request and the
// post-redirect confirmation request, so every field the flow needs to resume
// lives here. The immutable inputs are set once at creation; the flow only
// appends fields, never rewrites them.
type Payment struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PublicID string `gorm:"size:36;uniqueIndex" json:"id"`
	// TokenHash is the stable per-attempt value processor request IDs derive
	// from, so a replayed phase reuses the same idempotency key.
	TokenHash string `gorm:"size:36;not null" json:"-"`

	Amount          float64 `gorm:"not null" json:"amount"`
	Currency        string  `gorm:"size:3;not null" json:"currency"`
	CurrencySymbol  string  `gorm:"size:8" json:"currency_symbol"`
	CurrencyDigits  int     `json:"currency_digits"`
	MerchantOrderID string  `gorm:"size:255;uniqueIndex" json:"merchant_order_id"`
	Description     string  `gorm:"size:255" json:"description"`
	CustomerID      string  `gorm:"size:255" json:"customer_id,omitempty"`
	ReferenceID     string  `gorm:"size:255" json:"reference_id,omitempty"`
	LocationID      string  `gorm:"size:255" json:"location_id,omitempty"`
	Email           string  `gorm:"size:255" json:"email,omitempty"`
	CountryCode     string  `gorm:"size:2" json:"country_code,omitempty"`
	ImgURL          string  `gorm:"size:512" json:"img_url,omitempty"`
	AfterURL        string  `gorm:"size:512" json:"-"`

	// Set once the intent is created; IntentID presence means "do not recreate".
	IntentID     string `gorm:"size:64;index" json:"intent_id,omitempty"`
	ClientSecret string `gorm:"size:255" json:"-"`

	// Set once the hosted page reports the payer completed entry.
	Nonce   string `gorm:"size:255" json:"-"`
	Details string `gorm:"type:text" json:"-"`

	// Terminal outcome, set exactly once, all in the same step.
	Status               string `gorm:"size:16;index" json:"status,omitempty"`
	TransactionReference string `gorm:"size:64" json:"transaction_reference,omitempty"`
	Result               string `gorm:"type:text" json:"-"`
	Error                string `gorm:"type:text" json:"error,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}

// Terminal reports whether the flow has finished for this model.
func (p *Payment) Terminal() bool {
	return p.Status != ""
}

// MarkSucceeded records the terminal success state. Reference and result are
// set together with status so a persisted model is never half-terminal.
func (p *Payment) MarkSucceeded(transactionReference, result string) {
	if p.Terminal() {
		return
	}
	p.Status = domain.StatusSuccess
	p.TransactionReference = transactionReference
	p.Result = result
}

// MarkFailed records the terminal declined state with a human-readable reason.
func (p *Payment) MarkFailed(reason string) {
	if p.Terminal() {
		return
	}
	p.Status = domain.StatusFailed
	p.Error = reason
}
