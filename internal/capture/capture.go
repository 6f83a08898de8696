// Package capture drives the redirect-based capture flow against the
// processor. The flow spans several independent HTTP requests separated by a
// browser redirect, so the machine never assumes in-memory continuity: each
// invocation re-derives its phase purely from which fields the persisted
// model already carries, advances one phase, and returns.
package capture

import (
	"context"
	"fmt"
	"net/url"

	log "github.com/sirupsen/logrus"

	"payflow/internal/hostedpage"
	"payflow/internal/metrics"
	"payflow/internal/models"
	"payflow/pkg/airwallex"
)

// IntentClient is the slice of the processor API the machine needs.
type IntentClient interface {
	CreateIntent(ctx context.Context, req airwallex.CreateIntentRequest) (*airwallex.Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*airwallex.Intent, error)
	ConfirmIntent(ctx context.Context, id, requestID string) (*airwallex.Confirmation, error)
}

// PageRenderer renders the hosted payment page shown while suspended.
type PageRenderer interface {
	Render(p hostedpage.Params) (string, error)
}

// Token identifies one capture attempt: the URL the processor redirects the
// payer back to, and a hash that stays stable across replays of the attempt
// (processor idempotency keys derive from it).
type Token struct {
	TargetURL string
	Hash      string
}

// Outcome reports what the invocation did. Suspended means the rendered page
// must become the HTTP response for the current request and the flow resumes
// only on the follow-up invocation after the redirect.
type Outcome struct {
	Suspended bool
	Page      string
}

// Machine executes one phase of the capture flow per invocation.
//
// It provides no mutual exclusion: callers must guarantee at most one
// in-flight invocation per model, usually via the natural request/redirect
// serialization of a browser session.
type Machine struct {
	intents  IntentClient
	renderer PageRenderer
	sandbox  bool
}

func NewMachine(intents IntentClient, renderer PageRenderer, sandbox bool) *Machine {
	return &Machine{intents: intents, renderer: renderer, sandbox: sandbox}
}

// Execute advances the flow for model as far as this invocation can go.
// params carries the inbound request's query/post parameters (the
// redirect-completed signal). The model is mutated in place; persisting it is
// the caller's job. Processor declines never return an error: they resolve
// to a terminal failed model state. Errors are transport, auth, or logic
// failures only, and leave status untouched.
func (m *Machine) Execute(ctx context.Context, model *models.Payment, tok Token, params url.Values) (Outcome, error) {
	if model.Terminal() {
		// Re-entry after completion (e.g. payer refresh): idempotent no-op.
		return Outcome{}, nil
	}

	if model.IntentID == "" {
		intent, err := m.intents.CreateIntent(ctx, airwallex.CreateIntentRequest{
			RequestID:       tok.Hash + "-create",
			Amount:          model.Amount,
			Currency:        model.Currency,
			MerchantOrderID: model.MerchantOrderID,
			ReturnURL:       tok.TargetURL,
		})
		if err != nil {
			return Outcome{}, err
		}
		model.IntentID = intent.ID
		model.ClientSecret = intent.ClientSecret
		log.WithFields(log.Fields{"order": model.MerchantOrderID, "intent": model.IntentID}).
			Info("payment intent created")
	}

	if model.Nonce == "" {
		res, err := m.obtainNonce(model, tok, params)
		if err != nil {
			return Outcome{}, err
		}
		if res.State == NonceSuspended {
			return Outcome{Suspended: true, Page: res.Page}, nil
		}
	}

	checked, err := m.intents.RetrieveIntent(ctx, model.IntentID)
	if err != nil {
		return Outcome{}, err
	}
	if checked.Status != airwallex.StatusRequiresCapture {
		model.MarkFailed(fmt.Sprintf("Expected REQUIRES_CAPTURE got %s", checked.Status))
		metrics.CapturesTotal.WithLabelValues(model.Status).Inc()
		log.WithFields(log.Fields{"order": model.MerchantOrderID, "intent": model.IntentID, "status": checked.Status}).
			Warn("intent not capturable")
		return Outcome{}, nil
	}

	confirmed, err := m.intents.ConfirmIntent(ctx, model.IntentID, tok.Hash+"-confirm")
	if err != nil {
		return Outcome{}, err
	}
	if confirmed.Succeeded() {
		model.MarkSucceeded(confirmed.ID, string(confirmed.LatestPaymentAttempt))
	} else {
		model.MarkFailed(confirmed.Diagnostic())
	}
	metrics.CapturesTotal.WithLabelValues(model.Status).Inc()
	log.WithFields(log.Fields{"order": model.MerchantOrderID, "intent": model.IntentID, "status": model.Status}).
		Info("capture finished")
	return Outcome{}, nil
}
