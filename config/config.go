package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Merchant   MerchantConfig
	Airwallex  AirwallexConfig
	Cloudinary CloudinaryConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// PublicBaseURL is the externally reachable base of this service; the
	// processor redirects payers back to URLs built on it.
	PublicBaseURL string
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

// MerchantConfig identifies the merchant consuming this gateway's API.
// APIKeyHash is a bcrypt hash; the plain key is never stored.
type MerchantConfig struct {
	Name       string
	APIKeyHash string
}

type AirwallexConfig struct {
	ClientID string
	APIKey   string
	Sandbox  bool
	// ImgURL is the default hosted-page logo; the branding endpoint can
	// replace it at runtime.
	ImgURL string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Server: ServerConfig{
			Port:          getenv("PORT", "8080"),
			Env:           getenv("APP_ENV", "development"),
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  35 * time.Second, // processor calls may take the full 30s
			PublicBaseURL: getenv("PUBLIC_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			DSN:             getenv("DB_DSN", "payflow:payflow@tcp(localhost:3306)/payflow?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret: getenv("JWT_SECRET", "change-me-in-production"),
			AccessExpiry: 15 * time.Minute,
			Issuer:       "payflow",
		},
		Merchant: MerchantConfig{
			Name:       getenv("MERCHANT_NAME", "default"),
			APIKeyHash: os.Getenv("MERCHANT_API_KEY_HASH"),
		},
		Airwallex: AirwallexConfig{
			ClientID: os.Getenv("AIRWALLEX_CLIENT_ID"),
			APIKey:   os.Getenv("AIRWALLEX_API_KEY"),
			Sandbox:  getenvBool("AIRWALLEX_SANDBOX", true),
			ImgURL:   os.Getenv("CHECKOUT_IMG_URL"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
