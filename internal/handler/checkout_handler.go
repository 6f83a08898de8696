package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"payflow/config"
	"payflow/internal/capture"
	"payflow/internal/repository"
)

// CheckoutHandler is the capture invocation endpoint. Both the payer's first
// visit and the post-redirect return land here; the machine works out which
// phase to run from the persisted model alone.
type CheckoutHandler struct {
	cfg         *config.Config
	paymentRepo *repository.PaymentRepository
	machine     *capture.Machine
}

func NewCheckoutHandler(cfg *config.Config, paymentRepo *repository.PaymentRepository, machine *capture.Machine) *CheckoutHandler {
	return &CheckoutHandler{cfg: cfg, paymentRepo: paymentRepo, machine: machine}
}

// Handle runs one invocation of the capture flow for the payment in the URL.
func (h *CheckoutHandler) Handle(c *gin.Context) {
	p, err := h.paymentRepo.GetByPublicID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}

	// Query and post parameters together form the redirect-completed signal.
	_ = c.Request.ParseForm()
	params := url.Values{}
	for k, v := range c.Request.Form {
		params[k] = v
	}

	tok := capture.Token{
		TargetURL: h.cfg.Server.PublicBaseURL + "/checkout/" + p.PublicID,
		Hash:      p.TokenHash,
	}
	out, execErr := h.machine.Execute(c.Request.Context(), p, tok, params)

	// Persist whatever the invocation appended (intent id, nonce, terminal
	// state) before deciding on the response, so a later invocation resumes
	// from the right phase even if this response is lost.
	if err := h.paymentRepo.Update(p); err != nil {
		log.WithFields(log.Fields{"payment": p.PublicID, "error": err}).Error("persist payment failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "persist failed"})
		return
	}

	if execErr != nil {
		var logicErr *capture.LogicError
		if errors.As(execErr, &logicErr) {
			log.WithFields(log.Fields{"payment": p.PublicID, "error": execErr}).Error("capture contract violation")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		// Transport or auth failure: infrastructure problem, not a payment
		// outcome. The payer can safely retry the idempotency-guarded phase.
		log.WithFields(log.Fields{"payment": p.PublicID, "error": execErr}).Error("processor unavailable")
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment processor unavailable, please try again"})
		return
	}

	if out.Suspended {
		// The rendered hosted page becomes the response; the flow resumes on
		// the follow-up invocation after the processor redirects back.
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out.Page))
		return
	}

	// Terminal state reached.
	if p.AfterURL != "" {
		redirect := p.AfterURL
		if u, err := url.Parse(p.AfterURL); err == nil {
			q := u.Query()
			q.Set("status", p.Status)
			u.RawQuery = q.Encode()
			redirect = u.String()
		}
		c.Redirect(http.StatusSeeOther, redirect)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":                p.Status,
		"transaction_reference": p.TransactionReference,
		"error":                 p.Error,
	})
}
