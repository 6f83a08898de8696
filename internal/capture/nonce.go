package capture

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"

	"payflow/internal/domain"
	"payflow/internal/hostedpage"
	"payflow/internal/models"
)

// NonceState classifies one pass through the nonce acquisition step.
type NonceState int

const (
	// NonceCollected: the redirect delivered a payment_intent parameter and
	// the nonce is now on the model. A normal completed outcome.
	NonceCollected NonceState = iota
	// NonceSuspended: first pass, no nonce yet. The rendered page must be
	// served as the response and the flow stops until the redirect returns.
	NonceSuspended
	// NonceAlreadyComplete: the model already carries a nonce. No-op.
	NonceAlreadyComplete
)

// NonceResult is the three-state outcome of the nonce step. Page is only set
// when State is NonceSuspended.
type NonceResult struct {
	State NonceState
	Page  string
}

// LogicError marks a violated internal contract: an integration bug, never a
// runtime payment condition. It is always fatal and never folded into the
// model's terminal state.
type LogicError struct {
	Msg string
}

func (e *LogicError) Error() string { return "capture: " + e.Msg }

type verificationDetails struct {
	Amount         string         `json:"amount"`
	BillingContact billingContact `json:"billingContact"`
	CurrencyCode   string         `json:"currencyCode"`
	Intent         string         `json:"intent"`
}

type billingContact struct {
	Email string `json:"email"`
}

// obtainNonce runs the nonce acquisition step. The nonce is populated here
// and nowhere else.
func (m *Machine) obtainNonce(model *models.Payment, tok Token, params url.Values) (NonceResult, error) {
	if model.Nonce != "" {
		return NonceResult{State: NonceAlreadyComplete}, nil
	}
	if model.Details != "" {
		// Details without a nonce cannot be produced by this step; the caller
		// broke the "only call when needed" contract.
		return NonceResult{}, &LogicError{Msg: "payment details recorded without a nonce"}
	}

	// Payer returned from the hosted page.
	if nonce := params.Get("payment_intent"); nonce != "" {
		model.Nonce = nonce
		model.Details = params.Get("detail")
		return NonceResult{State: NonceCollected}, nil
	}

	// First pass: render the hosted page and suspend the flow.
	digits := model.CurrencyDigits
	if digits <= 0 {
		digits = domain.DefaultCurrencyDigits
	}
	country := model.CountryCode
	if country == "" {
		country = domain.DefaultCountryCode
	}
	vd, err := json.Marshal(verificationDetails{
		Amount:         fmt.Sprintf("%.2f", model.Amount),
		BillingContact: billingContact{Email: model.Email},
		CurrencyCode:   model.Currency,
		Intent:         "CHARGE",
	})
	if err != nil {
		return NonceResult{}, &LogicError{Msg: "encode verification details: " + err.Error()}
	}
	page, err := m.renderer.Render(hostedpage.Params{
		MerchantReference:   model.MerchantOrderID,
		DisplayAmount:       model.CurrencySymbol + " " + hostedpage.FormatAmount(model.Amount, digits),
		NumericAmount:       model.Amount,
		VerificationDetails: template.JS(vd),
		CurrencyCode:        model.Currency,
		CountryCode:         country,
		IntentID:            model.IntentID,
		ClientSecret:        model.ClientSecret,
		ActionURL:           tok.TargetURL,
		ImgURL:              model.ImgURL,
		Sandbox:             m.sandbox,
	})
	if err != nil {
		return NonceResult{}, err
	}
	return NonceResult{State: NonceSuspended, Page: page}, nil
}
