package service

import (
	"errors"

	"payflow/config"
	"payflow/internal/auth"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidAPIKey = errors.New("invalid api key")

// AuthService exchanges the merchant's API key for a short-lived access
// token used on the merchant API endpoints.
type AuthService struct {
	cfg *config.Config
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

func (s *AuthService) Exchange(apiKey string) (string, error) {
	if s.cfg.Merchant.APIKeyHash == "" {
		return "", ErrInvalidAPIKey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.Merchant.APIKeyHash), []byte(apiKey)); err != nil {
		return "", ErrInvalidAPIKey
	}
	return auth.GenerateAccessToken(&s.cfg.JWT, s.cfg.Merchant.Name)
}
