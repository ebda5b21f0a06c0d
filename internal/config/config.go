package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the environment-driven settings shared by the run CLI
// and the review daemon. Flags defined by each binary override these.
type Config struct {
	Env string

	Provider string
	Model    string

	MaxConcurrent int
	MaxAttempts   int
	BaseDelay     time.Duration
	Timeout       time.Duration
	RPS           float64
	Burst         int
	// ModelCallBudget, when positive, enables the permit broker and caps
	// how many model-call permits one run may reserve up front.
	ModelCallBudget int64

	AutoThreshold   float64
	ReviewThreshold float64

	StoreDir string

	Archive ArchiveConfig
}

type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	provider := strings.ToLower(firstNonEmpty(os.Getenv("LLM_PROVIDER"), "gemini"))
	model := firstNonEmpty(os.Getenv("LLM_MODEL"), defaultModel(provider))

	return &Config{
		Env:      env,
		Provider: provider,
		Model:    model,

		MaxConcurrent:   envInt("MAX_CONCURRENT", 4),
		MaxAttempts:     envInt("MAX_ATTEMPTS", 3),
		BaseDelay:       envDuration("RETRY_BASE_DELAY", 500*time.Millisecond),
		Timeout:         envDuration("RUN_TIMEOUT", 5*time.Minute),
		RPS:             envFloat("LLM_RPS", 2),
		Burst:           envInt("LLM_BURST", 2),
		ModelCallBudget: int64(envInt("MODEL_CALL_BUDGET", 0)),

		AutoThreshold:   envFloat("AUTO_THRESHOLD", 0.9),
		ReviewThreshold: envFloat("REVIEW_THRESHOLD", 0.7),

		StoreDir: firstNonEmpty(os.Getenv("REPORT_STORE_DIR"), "reports"),

		Archive: loadArchiveConfig(env),
	}, nil
}

func defaultModel(provider string) string {
	if provider == "groq" {
		return "llama-3.3-70b-versatile"
	}
	return "gemini-2.5-flash"
}

func loadArchiveConfig(env string) ArchiveConfig {
	endpoint := resolveArchiveEndpoint(env)
	return ArchiveConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(os.Getenv("ARCHIVE_S3_REGION"), "us-east-1"),
		AccessKey: firstNonEmpty(os.Getenv("ARCHIVE_S3_ACCESS_KEY"), os.Getenv("MINIO_ROOT_USER")),
		SecretKey: firstNonEmpty(os.Getenv("ARCHIVE_S3_SECRET_KEY"), os.Getenv("MINIO_ROOT_PASSWORD")),
		Bucket:    firstNonEmpty(os.Getenv("ARCHIVE_S3_BUCKET"), "rentalintel-reports"),
		UseSSL:    resolveArchiveUseSSL(env),
	}
}

func resolveArchiveEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("ARCHIVE_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("ARCHIVE_S3_ENDPOINT"))
}

func resolveArchiveUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARCHIVE_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
