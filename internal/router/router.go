package router

import (
	"time"

	"payflow/config"
	"payflow/internal/capture"
	"payflow/internal/handler"
	"payflow/internal/hostedpage"
	"payflow/internal/metrics"
	"payflow/internal/middleware"
	"payflow/internal/repository"
	"payflow/internal/service"
	"payflow/pkg/airwallex"
	"payflow/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client, renderer *hostedpage.Renderer) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.PrometheusMiddleware())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	paymentRepo := repository.NewPaymentRepository(db)

	awx := airwallex.NewClient(airwallex.Config{
		ClientID: cfg.Airwallex.ClientID,
		APIKey:   cfg.Airwallex.APIKey,
		Sandbox:  cfg.Airwallex.Sandbox,
	})
	machine := capture.NewMachine(awx, renderer, cfg.Airwallex.Sandbox)

	authSvc := service.NewAuthService(cfg)
	brandingSvc := service.NewBrandingService(cloud, cfg.Airwallex.ImgURL)

	authHandler := handler.NewAuthHandler(cfg, authSvc)
	paymentHandler := handler.NewPaymentHandler(cfg, paymentRepo, brandingSvc)
	checkoutHandler := handler.NewCheckoutHandler(cfg, paymentRepo, machine)
	brandingHandler := handler.NewBrandingHandler(brandingSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		api.POST("/auth/token", authHandler.Token)

		api.POST("/payments", authMw, paymentHandler.Create)
		api.GET("/payments/:id", authMw, paymentHandler.Get)

		api.GET("/branding/logo", authMw, brandingHandler.GetLogo)
		api.POST("/branding/logo", authMw, brandingHandler.UploadLogo)
	}

	// Payer-facing: first visit renders the hosted page, the processor
	// redirect posts back to the same URL.
	r.GET("/checkout/:id", checkoutHandler.Handle)
	r.POST("/checkout/:id", checkoutHandler.Handle)

	return r
}
