package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"payflow/config"
	"payflow/internal/models"
	"payflow/internal/repository"
	"payflow/internal/service"
)

type PaymentHandler struct {
	cfg         *config.Config
	paymentRepo *repository.PaymentRepository
	branding    *service.BrandingService
}

func NewPaymentHandler(cfg *config.Config, paymentRepo *repository.PaymentRepository, branding *service.BrandingService) *PaymentHandler {
	return &PaymentHandler{cfg: cfg, paymentRepo: paymentRepo, branding: branding}
}

// Create registers a new payment and returns the checkout URL the merchant
// sends the payer to. All immutable inputs are fixed here; the capture flow
// only appends fields afterwards.
func (h *PaymentHandler) Create(c *gin.Context) {
	var req struct {
		Amount          float64 `json:"amount" binding:"required,gt=0"`
		Currency        string  `json:"currency" binding:"required,len=3"`
		MerchantOrderID string  `json:"merchant_order_id" binding:"required"`
		Description     string  `json:"description"`
		CustomerID      string  `json:"customer_id"`
		ReferenceID     string  `json:"reference_id"`
		LocationID      string  `json:"location_id"`
		Email           string  `json:"email"`
		CountryCode     string  `json:"country_code"`
		CurrencySymbol  string  `json:"currency_symbol"`
		CurrencyDigits  int     `json:"currency_digits"`
		AfterURL        string  `json:"after_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if existing, err := h.paymentRepo.GetByMerchantOrderID(req.MerchantOrderID); err == nil {
		// Same order resubmitted: hand back the existing session instead of
		// minting a second billable flow.
		c.JSON(http.StatusOK, h.sessionResponse(existing))
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	symbol := req.CurrencySymbol
	if symbol == "" {
		symbol = req.Currency
	}
	p := &models.Payment{
		PublicID:        uuid.New().String(),
		TokenHash:       uuid.New().String(),
		Amount:          req.Amount,
		Currency:        req.Currency,
		CurrencySymbol:  symbol,
		CurrencyDigits:  req.CurrencyDigits,
		MerchantOrderID: req.MerchantOrderID,
		Description:     req.Description,
		CustomerID:      req.CustomerID,
		ReferenceID:     req.ReferenceID,
		LocationID:      req.LocationID,
		Email:           req.Email,
		CountryCode:     req.CountryCode,
		ImgURL:          h.branding.LogoURL(),
		AfterURL:        req.AfterURL,
	}
	if err := h.paymentRepo.Create(p); err != nil {
		log.WithFields(log.Fields{"order": req.MerchantOrderID, "error": err}).Error("payment create failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment create failed"})
		return
	}
	log.WithFields(log.Fields{"order": p.MerchantOrderID, "payment": p.PublicID}).Info("payment session created")
	c.JSON(http.StatusCreated, h.sessionResponse(p))
}

// Get returns the current state of a payment for the merchant.
func (h *PaymentHandler) Get(c *gin.Context) {
	p, err := h.paymentRepo.GetByPublicID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":                    p.PublicID,
		"merchant_order_id":     p.MerchantOrderID,
		"amount":                p.Amount,
		"currency":              p.Currency,
		"status":                paymentStatus(p),
		"transaction_reference": p.TransactionReference,
		"error":                 p.Error,
		"checkout_url":          h.checkoutURL(p),
	})
}

func (h *PaymentHandler) sessionResponse(p *models.Payment) gin.H {
	return gin.H{
		"id":           p.PublicID,
		"status":       paymentStatus(p),
		"checkout_url": h.checkoutURL(p),
	}
}

func (h *PaymentHandler) checkoutURL(p *models.Payment) string {
	return h.cfg.Server.PublicBaseURL + "/checkout/" + p.PublicID
}

func paymentStatus(p *models.Payment) string {
	if p.Status == "" {
		return "pending"
	}
	return p.Status
}
