package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"payflow/config"
	"payflow/internal/auth"
)

func testConfig(t *testing.T, apiKey string) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.MinCost)
	require.NoError(t, err)
	return &config.Config{
		JWT: config.JWTConfig{
			AccessSecret: "test-secret",
			AccessExpiry: 15 * time.Minute,
			Issuer:       "payflow",
		},
		Merchant: config.MerchantConfig{
			Name:       "acme",
			APIKeyHash: string(hash),
		},
	}
}

func TestExchangeReturnsParsableToken(t *testing.T) {
	cfg := testConfig(t, "sk_live_abc")
	svc := NewAuthService(cfg)

	token, err := svc.Exchange("sk_live_abc")
	require.NoError(t, err)

	claims, err := auth.ParseAccessToken(&cfg.JWT, token)
	require.NoError(t, err)
	assert.Equal(t, "acme", claims.Merchant)
	assert.Equal(t, "payflow", claims.Issuer)
}

func TestExchangeRejectsWrongKey(t *testing.T) {
	svc := NewAuthService(testConfig(t, "sk_live_abc"))

	_, err := svc.Exchange("sk_live_wrong")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestExchangeRejectsWhenNoKeyConfigured(t *testing.T) {
	cfg := testConfig(t, "sk_live_abc")
	cfg.Merchant.APIKeyHash = ""
	svc := NewAuthService(cfg)

	_, err := svc.Exchange("sk_live_abc")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}
