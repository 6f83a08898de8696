package service

import (
	"context"
	"io"
	"sync"

	"payflow/pkg/cloudinary"
)

// BrandingService holds the hosted-page logo URL. The configured default can
// be replaced at runtime by uploading a new logo; new payments pick up the
// current URL when they are created.
type BrandingService struct {
	cloud cloudinary.Client

	mu      sync.RWMutex
	logoURL string
}

func NewBrandingService(cloud cloudinary.Client, defaultLogoURL string) *BrandingService {
	return &BrandingService{cloud: cloud, logoURL: defaultLogoURL}
}

// LogoURL returns the current hosted-page logo URL (may be empty).
func (s *BrandingService) LogoURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logoURL
}

// UploadLogo stores the image with Cloudinary and makes its delivery URL the
// current logo.
func (s *BrandingService) UploadLogo(ctx context.Context, file io.Reader) (string, error) {
	url, err := s.cloud.UploadImage(ctx, file, "branding", "checkout-logo")
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.logoURL = url
	s.mu.Unlock()
	return url, nil
}
