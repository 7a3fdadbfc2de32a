package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyDatabaseURL(t *testing.T) {
	// Config loads successfully even without DATABASE_URL set.
	os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "", cfg.DatabaseURL)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/doctree")

	// Clear any env vars that might interfere with defaults.
	os.Unsetenv("TEMPORAL_ADDRESS")
	os.Unsetenv("HTTP_LISTEN_ADDR")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("LLM_BASE_URL")
	os.Unsetenv("LLM_MODEL")
	os.Unsetenv("TTS_MODEL")
	os.Unsetenv("TTS_VOICE")
	os.Unsetenv("S3_BUCKET")
	os.Unsetenv("PRICING_FILE")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:7233", cfg.TemporalAddress)
	assert.Equal(t, ":8090", cfg.HTTPListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://api.openai.com", cfg.LLMBaseURL)
	assert.Equal(t, "gpt-5-mini", cfg.LLMModel)
	assert.Equal(t, "tts-1", cfg.TTSModel)
	assert.Equal(t, "alloy", cfg.TTSVoice)
	assert.Equal(t, "doctree-podcasts", cfg.S3Bucket)
	assert.Equal(t, "", cfg.PricingFile)
}

func TestLoad_AllEnvVars(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/doctree")
	t.Setenv("TEMPORAL_ADDRESS", "temporal.example.com:7233")
	t.Setenv("HTTP_LISTEN_ADDR", ":7071")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("LLM_MODEL", "gpt-5")
	t.Setenv("S3_ENDPOINT", "https://s3.example.com")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
	t.Setenv("PRICING_FILE", "/etc/doctree/pricing.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "postgres://db:5432/doctree", cfg.DatabaseURL)
	assert.Equal(t, "temporal.example.com:7233", cfg.TemporalAddress)
	assert.Equal(t, ":7071", cfg.HTTPListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "sk-test", cfg.LLMAPIKey)
	assert.Equal(t, "gpt-5", cfg.LLMModel)
	assert.Equal(t, "https://s3.example.com", cfg.S3Endpoint)
	assert.Equal(t, "whsec_test", cfg.StripeWebhookSecret)
	assert.Equal(t, "/etc/doctree/pricing.yaml", cfg.PricingFile)
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate("doctree-api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidate_Worker_MissingProviders(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://localhost/doctree"}
	err := cfg.Validate("worker")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY")

	cfg.LLMAPIKey = "sk-test"
	err = cfg.Validate("worker")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_ENDPOINT")
}

func TestValidate_AllPresent(t *testing.T) {
	cfg := &Config{
		DatabaseURL:    "postgres://localhost/doctree",
		HTTPListenAddr: ":8090",
		LLMAPIKey:      "sk-test",
		S3Endpoint:     "https://s3.example.com",
		S3AccessKey:    "access",
		S3SecretKey:    "secret",
	}

	assert.NoError(t, cfg.Validate("doctree-api"))
	assert.NoError(t, cfg.Validate("worker"))
}
