package handler

import (
	"errors"
	"net/http"

	"payflow/config"
	"payflow/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	cfg     *config.Config
	authSvc *service.AuthService
}

func NewAuthHandler(cfg *config.Config, authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{cfg: cfg, authSvc: authSvc}
}

// Token exchanges the merchant API key for a JWT access token.
func (h *AuthHandler) Token(c *gin.Context) {
	var req struct {
		APIKey string `json:"api_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "api_key required"})
		return
	}
	token, err := h.authSvc.Exchange(req.APIKey)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAPIKey) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(h.cfg.JWT.AccessExpiry.Seconds()),
	})
}
