package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"payflow/config"
	"payflow/internal/capture"
	"payflow/internal/domain"
	"payflow/internal/hostedpage"
	"payflow/internal/models"
	"payflow/internal/repository"
	"payflow/pkg/airwallex"
)

// processorStub fakes the Airwallex API surface the flow touches.
type processorStub struct {
	confirmStatus      string
	confirmFailureCode string

	loginCalls   atomic.Int64
	createCalls  atomic.Int64
	confirmCalls atomic.Int64
}

func (s *processorStub) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/authentication/login", func(w http.ResponseWriter, r *http.Request) {
		s.loginCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"token": "proc-token"})
	})
	mux.HandleFunc("POST /api/v1/pa/payment_intents/create", func(w http.ResponseWriter, r *http.Request) {
		s.createCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]string{
			"id":            "int_e2e",
			"client_secret": "cs_e2e",
			"status":        airwallex.StatusRequiresPaymentMethod,
		})
	})
	mux.HandleFunc("GET /api/v1/pa/payment_intents/int_e2e", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "int_e2e", "status": airwallex.StatusRequiresCapture})
	})
	mux.HandleFunc("POST /api/v1/pa/payment_intents/int_e2e/confirm", func(w http.ResponseWriter, r *http.Request) {
		s.confirmCalls.Add(1)
		resp := map[string]interface{}{"id": "int_e2e", "status": s.confirmStatus}
		if s.confirmStatus == airwallex.StatusSucceeded {
			resp["latest_payment_attempt"] = map[string]string{"id": "att_e2e"}
		}
		if s.confirmFailureCode != "" {
			resp["failure_code"] = s.confirmFailureCode
		}
		json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type checkoutHarness struct {
	router *gin.Engine
	repo   *repository.PaymentRepository
}

func newCheckoutHarness(t *testing.T, processorURL string) *checkoutHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Payment{}))
	repo := repository.NewPaymentRepository(db)

	cfg := &config.Config{}
	cfg.Server.PublicBaseURL = "http://pay.example"

	client := airwallex.NewClient(airwallex.Config{
		ClientID: "cid",
		APIKey:   "key",
		BaseURL:  processorURL,
	})
	renderer, err := hostedpage.NewRenderer()
	require.NoError(t, err)
	machine := capture.NewMachine(client, renderer, true)

	h := NewCheckoutHandler(cfg, repo, machine)
	r := gin.New()
	r.GET("/checkout/:id", h.Handle)
	r.POST("/checkout/:id", h.Handle)
	return &checkoutHarness{router: r, repo: repo}
}

func (h *checkoutHarness) seed(t *testing.T, afterURL string) *models.Payment {
	t.Helper()
	p := &models.Payment{
		PublicID:        "pub-e2e",
		TokenHash:       "hash-e2e",
		Amount:          42,
		Currency:        "AUD",
		CurrencySymbol:  "$",
		CurrencyDigits:  2,
		MerchantOrderID: "order-e2e",
		Email:           "payer@example.com",
		AfterURL:        afterURL,
	}
	require.NoError(t, h.repo.Create(p))
	return p
}

func (h *checkoutHarness) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	h.router.ServeHTTP(w, req)
	return w
}

func (h *checkoutHarness) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.router.ServeHTTP(w, req)
	return w
}

func TestCheckoutFullFlow(t *testing.T) {
	stub := &processorStub{confirmStatus: airwallex.StatusSucceeded}
	h := newCheckoutHarness(t, stub.server(t).URL)
	h.seed(t, "https://merchant.example/done")

	// First visit: intent created, hosted page served, flow suspended.
	w := h.get("/checkout/pub-e2e")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "int_e2e")
	assert.Contains(t, w.Body.String(), "cs_e2e")

	stored, err := h.repo.GetByPublicID("pub-e2e")
	require.NoError(t, err)
	assert.Equal(t, "int_e2e", stored.IntentID, "intent id must be persisted before the response")
	assert.Empty(t, stored.Status)

	// Redirect return: nonce collected, intent confirmed, payer sent onward.
	w = h.postForm("/checkout/pub-e2e", url.Values{
		"payment_intent": {"int_e2e"},
		"detail":         {`{"brand":"visa"}`},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "merchant.example", loc.Host)
	assert.Equal(t, domain.StatusSuccess, loc.Query().Get("status"))

	stored, err = h.repo.GetByPublicID("pub-e2e")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, stored.Status)
	assert.Equal(t, "int_e2e", stored.TransactionReference)
	assert.Contains(t, stored.Result, "att_e2e")
	assert.Equal(t, int64(1), stub.createCalls.Load())
	assert.Equal(t, int64(1), stub.confirmCalls.Load())
}

func TestCheckoutReplayAfterCompletionIsIdempotent(t *testing.T) {
	stub := &processorStub{confirmStatus: airwallex.StatusSucceeded}
	h := newCheckoutHarness(t, stub.server(t).URL)
	h.seed(t, "https://merchant.example/done")

	h.get("/checkout/pub-e2e")
	h.postForm("/checkout/pub-e2e", url.Values{"payment_intent": {"int_e2e"}})

	// Payer refreshes the return URL: no processor calls, same redirect.
	w := h.postForm("/checkout/pub-e2e", url.Values{"payment_intent": {"int_e2e"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, int64(1), stub.createCalls.Load())
	assert.Equal(t, int64(1), stub.confirmCalls.Load())
}

func TestCheckoutDeclineWithoutAfterURL(t *testing.T) {
	stub := &processorStub{confirmStatus: airwallex.StatusFailed, confirmFailureCode: "card_declined"}
	h := newCheckoutHarness(t, stub.server(t).URL)
	h.seed(t, "")

	h.get("/checkout/pub-e2e")
	w := h.postForm("/checkout/pub-e2e", url.Values{"payment_intent": {"int_e2e"}})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, domain.StatusFailed, body["status"])
	assert.Equal(t, "FAILED card_declined", body["error"])

	stored, err := h.repo.GetByPublicID("pub-e2e")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
}

func TestCheckoutProcessorDownIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listening: every call is a transport failure
	h := newCheckoutHarness(t, srv.URL)
	h.seed(t, "https://merchant.example/done")

	w := h.get("/checkout/pub-e2e")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	stored, err := h.repo.GetByPublicID("pub-e2e")
	require.NoError(t, err)
	assert.Empty(t, stored.Status, "transport failure must not resolve the payment")
	assert.Empty(t, stored.IntentID)
}

func TestCheckoutUnknownPayment(t *testing.T) {
	stub := &processorStub{confirmStatus: airwallex.StatusSucceeded}
	h := newCheckoutHarness(t, stub.server(t).URL)

	w := h.get("/checkout/does-not-exist")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
