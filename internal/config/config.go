package config

import (
	"fmt"
	"os"
)

type Config struct {
	ServiceName     string
	DatabaseURL     string
	HTTPListenAddr  string
	TemporalAddress string
	MetricsAddr     string
	LogLevel        string

	// LLM / TTS (OpenAI-compatible endpoints).
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	TTSModel   string
	TTSVoice   string

	// Search providers.
	WebSearchBaseURL   string
	WebSearchAPIKey    string
	VideoSearchBaseURL string
	VideoSearchAPIKey  string

	// Podcast audio storage.
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string

	StripeWebhookSecret string

	// PricingFile points at the YAML file with model multipliers and
	// plan limits. Empty means built-in defaults.
	PricingFile string
}

func Load() (*Config, error) {
	cfg := &Config{
		ServiceName:         getEnv("SERVICE_NAME", ""),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		HTTPListenAddr:      getEnv("HTTP_LISTEN_ADDR", ":8090"),
		TemporalAddress:     getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		MetricsAddr:         getEnv("METRICS_ADDR", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LLMBaseURL:          getEnv("LLM_BASE_URL", "https://api.openai.com"),
		LLMAPIKey:           getEnv("LLM_API_KEY", ""),
		LLMModel:            getEnv("LLM_MODEL", "gpt-5-mini"),
		TTSModel:            getEnv("TTS_MODEL", "tts-1"),
		TTSVoice:            getEnv("TTS_VOICE", "alloy"),
		WebSearchBaseURL:    getEnv("WEB_SEARCH_BASE_URL", "https://google.serper.dev"),
		WebSearchAPIKey:     getEnv("WEB_SEARCH_API_KEY", ""),
		VideoSearchBaseURL:  getEnv("VIDEO_SEARCH_BASE_URL", "https://www.googleapis.com"),
		VideoSearchAPIKey:   getEnv("VIDEO_SEARCH_API_KEY", ""),
		S3Endpoint:          getEnv("S3_ENDPOINT", ""),
		S3AccessKey:         getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:         getEnv("S3_SECRET_KEY", ""),
		S3Bucket:            getEnv("S3_BUCKET", "doctree-podcasts"),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		PricingFile:         getEnv("PRICING_FILE", ""),
	}

	return cfg, nil
}

// Validate checks that the configuration required by the given binary is
// present. The worker needs the AI providers and audio storage; the API
// server always needs the database and a listen address.
func (c *Config) Validate(binary string) error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s: DATABASE_URL is required", binary)
	}

	switch binary {
	case "worker":
		if c.LLMAPIKey == "" {
			return fmt.Errorf("worker: LLM_API_KEY is required")
		}
		if c.S3Endpoint == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
			return fmt.Errorf("worker: S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY are required")
		}
	case "doctree-api":
		if c.HTTPListenAddr == "" {
			return fmt.Errorf("doctree-api: HTTP_LISTEN_ADDR is required")
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
