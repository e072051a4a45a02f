package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/db")
	t.Setenv("OPENROUTER_API_KEY", "key")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "session", cfg.SessionCookie)
	assert.Equal(t, 10, cfg.DBMaxConns)
	assert.Equal(t, 30, cfg.DBConnectWait)
	assert.Equal(t, "openrouter", cfg.LLMProvider)
	assert.Equal(t, 45, cfg.LLMTimeoutSeconds)
	assert.Equal(t, 10, cfg.IngestMaxMB)
	assert.Equal(t, int64(10<<20), cfg.IngestMaxBytes())
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.Equal(t, "http://localhost:9090/uploads", cfg.PublicBaseURL)
	assert.Equal(t, "resume_events", cfg.RabbitMQExchange)
	require.NoError(t, cfg.Validate())
}

func TestLoadParsesTypedValues(t *testing.T) {
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("INGEST_MAX_MB", "not-a-number")
	t.Setenv("STORAGE_DRIVER", "S3")

	cfg := Load()
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 10, cfg.IngestMaxMB)
	assert.Equal(t, "s3", cfg.StorageDriver)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Config{LLMProvider: "gemini", StorageDriver: "gcs", IngestMaxMB: 0}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"DATABASE_URL", "INGEST_MAX_MB", "GEMINI_API_KEY", "GCS_BUCKET"} {
		assert.Contains(t, err.Error(), want)
	}

	cfg = Config{DatabaseURL: "x", IngestMaxMB: 1, LLMProvider: "gpt", StorageDriver: "ftp"}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown LLM_PROVIDER "gpt"`)
	assert.Contains(t, err.Error(), `unknown STORAGE_DRIVER "ftp"`)
}
