package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	DBMaxConns    int
	DBConnectWait int
	JWTSecret     string
	JWTIssuer     string
	JWTTTLMinutes int
	SessionCookie string
	CookieSecure  bool

	LLMProvider        string
	OpenRouterAPIKey   string
	OpenRouterBaseURL  string
	OpenRouterModel    string
	OpenRouterAppTitle string
	OpenRouterReferer  string
	GeminiAPIKey       string
	GeminiModel        string
	GeminiBaseURL      string
	LLMTimeoutSeconds  int
	LLMMaxInputChars   int

	IngestMaxMB int

	StorageDriver string
	UploadDir     string
	PublicBaseURL string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	S3PublicURL   string
	GCSBucket     string

	RabbitMQURL      string
	RabbitMQExchange string
}

// Load reads environment variables, optionally from a .env file if present.
func Load() Config {
	// Try to load .env if it exists; ignore error if file not found
	_ = godotenv.Load()

	port := getEnv("PORT", "8080")
	cfg := Config{
		Port:          port,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBMaxConns:    getEnvInt("DB_MAX_CONNS", 10),
		DBConnectWait: getEnvInt("DB_CONNECT_WAIT_SECONDS", 30),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change"),
		JWTIssuer:     getEnv("JWT_ISSUER", "resumeflow"),
		JWTTTLMinutes: getEnvInt("JWT_TTL_MINUTES", 60),
		SessionCookie: getEnv("SESSION_COOKIE", "session"),
		CookieSecure:  getEnvBool("COOKIE_SECURE", false),

		LLMProvider:        strings.ToLower(getEnv("LLM_PROVIDER", "openrouter")),
		OpenRouterAPIKey:   os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL:  os.Getenv("OPENROUTER_BASE_URL"),
		OpenRouterModel:    os.Getenv("OPENROUTER_MODEL"),
		OpenRouterAppTitle: getEnv("OPENROUTER_APP_TITLE", "resumeflow"),
		OpenRouterReferer:  os.Getenv("OPENROUTER_REFERER"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        os.Getenv("GEMINI_MODEL"),
		GeminiBaseURL:      os.Getenv("GEMINI_BASE_URL"),
		LLMTimeoutSeconds:  getEnvInt("LLM_TIMEOUT_SECONDS", 45),
		LLMMaxInputChars:   getEnvInt("LLM_MAX_INPUT_CHARS", 16000),

		IngestMaxMB: getEnvInt("INGEST_MAX_MB", 10),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port+"/uploads"), "/"),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		S3Region:      getEnv("S3_REGION", "auto"),
		S3Endpoint:    os.Getenv("S3_ENDPOINT"),
		S3AccessKey:   os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:   os.Getenv("S3_SECRET_KEY"),
		S3PublicURL:   strings.TrimRight(os.Getenv("S3_PUBLIC_URL"), "/"),
		GCSBucket:     os.Getenv("GCS_BUCKET"),

		RabbitMQURL:      os.Getenv("RABBITMQ_URL"),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "resume_events"),
	}
	return cfg
}

// Validate reports every missing setting required by the selected drivers.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.IngestMaxMB <= 0 {
		errs = append(errs, fmt.Errorf("INGEST_MAX_MB must be positive, got %d", c.IngestMaxMB))
	}
	switch c.LLMProvider {
	case "openrouter":
		if c.OpenRouterAPIKey == "" {
			errs = append(errs, errors.New("OPENROUTER_API_KEY is required for LLM_PROVIDER=openrouter"))
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for LLM_PROVIDER=gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	switch c.StorageDriver {
	case "local":
		if c.UploadDir == "" {
			errs = append(errs, errors.New("UPLOAD_DIR is required for STORAGE_DRIVER=local"))
		}
	case "s3":
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for STORAGE_DRIVER=s3"))
		}
	case "gcs":
		if c.GCSBucket == "" {
			errs = append(errs, errors.New("GCS_BUCKET is required for STORAGE_DRIVER=gcs"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}
	return errors.Join(errs...)
}

// IngestMaxBytes is the upload ceiling of the ingest route.
func (c Config) IngestMaxBytes() int64 {
	return int64(c.IngestMaxMB) << 20
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
