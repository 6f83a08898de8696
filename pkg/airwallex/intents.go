package airwallex

import (
	"context"
	"encoding/json"
	"fmt"
)

// Payment intent statuses reported by the processor.
const (
	StatusRequiresPaymentMethod = "REQUIRES_PAYMENT_METHOD"
	StatusRequiresCapture       = "REQUIRES_CAPTURE"
	StatusSucceeded             = "SUCCEEDED"
	StatusPending               = "PENDING"
	StatusFailed                = "FAILED"
	StatusCancelled             = "CANCELLED"
)

// CreateIntentRequest is the payload for payment_intents/create. RequestID
// must be stable per logical attempt so a replayed create is idempotent on
// the processor side.
type CreateIntentRequest struct {
	RequestID       string  `json:"request_id"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	MerchantOrderID string  `json:"merchant_order_id"`
	ReturnURL       string  `json:"return_url"`
}

// Intent is the processor-side record of an authorized-but-uncaptured amount.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// Confirmation is the result of payment_intents/{id}/confirm.
type Confirmation struct {
	ID                   string          `json:"id"`
	Status               string          `json:"status"`
	LatestPaymentAttempt json.RawMessage `json:"latest_payment_attempt"`
	Message              string          `json:"message"`
	FailureCode          string          `json:"failure_code"`
}

// Succeeded reports whether the confirmation finalized the intent.
func (c *Confirmation) Succeeded() bool { return c.Status == StatusSucceeded }

// Diagnostic composes the human-readable failure text: the processor's
// message when present, otherwise status plus failure code.
func (c *Confirmation) Diagnostic() string {
	if c.Message != "" {
		return c.Message
	}
	if c.FailureCode != "" {
		return c.Status + " " + c.FailureCode
	}
	if c.Status == "" {
		return "confirmation returned no status"
	}
	return c.Status
}

// CreateIntent creates a payment intent. One-shot; the idempotency guard
// against double creation lives in the capture flow, keyed on the model.
func (c *Client) CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error) {
	var out Intent
	if err := c.post(ctx, "/api/v1/pa/payment_intents/create", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RetrieveIntent fetches the current processor-side status of an intent.
func (c *Client) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	var out Intent
	if err := c.get(ctx, "/api/v1/pa/payment_intents/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmIntent attempts to capture the intent. Any status other than
// SUCCEEDED, including a body that decodes to no status at all, is a decline.
func (c *Client) ConfirmIntent(ctx context.Context, id, requestID string) (*Confirmation, error) {
	body := map[string]string{"request_id": requestID}
	var out Confirmation
	if err := c.post(ctx, fmt.Sprintf("/api/v1/pa/payment_intents/%s/confirm", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
