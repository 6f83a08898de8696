package middleware

import (
	"net/http"
	"strings"

	"payflow/config"
	"payflow/internal/auth"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the merchant JWT and stores the merchant name in
// the request context.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set("merchant", claims.Merchant)
		c.Next()
	}
}

// GetMerchant returns the authenticated merchant name (after AuthRequired).
func GetMerchant(c *gin.Context) string {
	v, _ := c.Get("merchant")
	if v == nil {
		return ""
	}
	return v.(string)
}
