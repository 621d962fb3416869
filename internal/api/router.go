package api

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Conceptual-Machines/magda-composer/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/magda-composer/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-composer/internal/config"
	"github.com/Conceptual-Machines/magda-composer/internal/llm"
	"github.com/Conceptual-Machines/magda-composer/internal/metrics"
	"github.com/Conceptual-Machines/magda-composer/internal/middleware"
	"github.com/Conceptual-Machines/magda-composer/internal/observability"
	"github.com/Conceptual-Machines/magda-composer/internal/services"
	"github.com/Conceptual-Machines/magda-composer/internal/storage"
)

func SetupRouter(db *gorm.DB, cfg *config.Config, version string) *gin.Engine {
	ctx := context.Background()

	cloudwatch, err := metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		log.Printf("⚠️  CloudWatch metrics disabled: %v", err)
	}

	store, err := storage.New(cfg)
	if err != nil {
		log.Printf("⚠️  Render storage disabled: %v", err)
		store = nil
	}

	records := services.NewRecordsService(db)
	renderService := services.NewRenderService(cfg, store, records, cloudwatch)

	// LLM providers are optional; without keys the compose and drummer generate routes answer 503
	var providers services.ProviderSource
	var composer handlers.Composer
	if factory := llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey); factory.Available() {
		providers = factory
		composer = services.NewComposerService(
			factory,
			cfg.ComposerModel,
			observability.NewLangfuseClient(ctx, cfg),
			records,
			cloudwatch,
		)
	} else {
		log.Println("⚠️  No LLM API keys configured, composer disabled")
	}

	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(cloudwatch))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(db)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	storageName := "none"
	if store != nil {
		storageName = store.Name()
	}
	metricsHandler := handlers.NewMetricsHandler(version, handlers.ServiceInfo{
		Storage:      storageName,
		Records:      records.Enabled(),
		Composer:     composer != nil,
		SampleRate:   cfg.SampleRate,
		MaxRenderSec: int(cfg.MaxRenderSeconds),
	})
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware(cfg))
	{
		notationHandler := handlers.NewNotationHandler()
		v1.POST("/notation/parse", notationHandler.Parse)
		v1.POST("/notation/chord", notationHandler.Chord)
		v1.POST("/patterns/length", notationHandler.Length)

		markovHandler := handlers.NewMarkovHandler()
		v1.POST("/markov/generate", markovHandler.Generate)
		v1.POST("/markov/validate", markovHandler.Validate)

		voiceLeadHandler := handlers.NewVoiceLeadHandler()
		v1.POST("/voicelead/solve", voiceLeadHandler.Solve)

		drummerHandler := handlers.NewDrummerHandler(providers)
		v1.POST("/drummer/parse", drummerHandler.Parse)

		// Synthesis and LLM calls are expensive, rate limit them per client
		limiter := apimiddleware.NewRateLimiter(cfg.RenderRateLimit, cfg.RenderRateBurst)
		limited := v1.Group("", limiter.Middleware())

		renderHandler := handlers.NewRenderHandler(renderService)
		limited.POST("/render", renderHandler.Render)
		v1.GET("/renders/:id", renderHandler.GetRender)

		composeHandler := handlers.NewComposeHandler(composer)
		limited.POST("/compose", composeHandler.Compose)
		limited.POST("/drummer/generate", drummerHandler.Generate)
	}

	return router
}

// authMiddleware picks the auth strategy from AUTH_MODE
func authMiddleware(cfg *config.Config) gin.HandlerFunc {
	switch {
	case cfg.IsGatewayMode():
		log.Println("🔐 Auth mode: gateway (trusting X-User-* headers)")
		return apimiddleware.GatewayAuth()
	case cfg.IsJWTMode():
		log.Println("🔐 Auth mode: jwt")
		return middleware.JWTAuth(cfg)
	default:
		log.Println("🔓 Auth mode: none")
		return apimiddleware.NoAuth()
	}
}
