package config

import (
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        string

	// Persistence (optional: without DATABASE_URL render records are not kept)
	DatabaseURL string

	// LLM API Keys for the composer and drummer
	OpenAIAPIKey  string
	GeminiAPIKey  string
	ComposerModel string

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from an upstream gateway
	// - "jwt": HS256 bearer tokens signed with JWTSecret
	AuthMode  string
	JWTSecret string

	// Render storage: S3 when RenderBucket is set, else RenderDir when set
	AWSRegion    string
	RenderBucket string
	RenderDir    string

	// Synthesis
	SampleRate       int
	MaxRenderSeconds float64
	RenderRateLimit  float64 // requests per second per client, 0 disables
	RenderRateBurst  int
}

func Load() *Config {
	return &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		ComposerModel:     getEnv("COMPOSER_MODEL", "gpt-5-mini"),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		LangfusePublicKey: getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey: getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:      getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:   getEnv("LANGFUSE_ENABLED", "false") == "true",
		AuthMode:          getEnv("AUTH_MODE", "none"), // Default to no auth for self-hosted
		JWTSecret:         getEnv("JWT_SECRET", ""),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		RenderBucket:      getEnv("RENDER_BUCKET", ""),
		RenderDir:         getEnv("RENDER_DIR", ""),
		SampleRate:        getEnvInt("SAMPLE_RATE", 44100),
		MaxRenderSeconds:  getEnvFloat("MAX_RENDER_SECONDS", 600),
		RenderRateLimit:   getEnvFloat("RENDER_RATE_LIMIT", 2),
		RenderRateBurst:   getEnvInt("RENDER_RATE_BURST", 5),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

// IsGatewayMode returns true if running behind an auth gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}

// IsJWTMode returns true if requests carry signed bearer tokens
func (c *Config) IsJWTMode() bool {
	return c.AuthMode == "jwt"
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
