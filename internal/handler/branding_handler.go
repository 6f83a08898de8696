package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"payflow/internal/service"
)

type BrandingHandler struct {
	branding *service.BrandingService
}

func NewBrandingHandler(branding *service.BrandingService) *BrandingHandler {
	return &BrandingHandler{branding: branding}
}

// UploadLogo replaces the hosted-page logo. Multipart field: "logo".
func (h *BrandingHandler) UploadLogo(c *gin.Context) {
	file, _, err := c.Request.FormFile("logo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "logo file required"})
		return
	}
	defer file.Close()
	url, err := h.branding.UploadLogo(c.Request.Context(), file)
	if err != nil {
		log.WithField("error", err).Error("logo upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"img_url": url})
}

// GetLogo returns the current hosted-page logo URL.
func (h *BrandingHandler) GetLogo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"img_url": h.branding.LogoURL()})
}
