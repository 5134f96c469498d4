package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	httpMW "github.com/acaduss/acaduss-backend/internal/http/middleware"
	"github.com/acaduss/acaduss-backend/internal/observability"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
	"github.com/acaduss/acaduss-backend/internal/services"
	"github.com/acaduss/acaduss-backend/internal/utils"
)

type Config struct {
	Port string

	JWTSecret           string
	AccessTokenTTL      time.Duration
	InstitutionalDomain string

	UploadsDir     string
	MaxUploadBytes int64
	CORSOrigins    []string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OpenAITimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PDFCacheTTL   time.Duration

	MetricsEnabled bool
	Otel           observability.OtelConfig
}

// LoadEnvFiles loads .env (if present) and the YAML file named by
// ACADUSS_CONFIG. Neither overrides variables already set in the environment.
func LoadEnvFiles(log *logger.Logger) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("could not load .env", "error", err)
	}
	path := strings.TrimSpace(os.Getenv("ACADUSS_CONFIG"))
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return applyYAMLDefaults(data)
}

// applyYAMLDefaults accepts a flat mapping of the environment keys.
func applyYAMLDefaults(data []byte) error {
	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	for key, raw := range values {
		key = strings.ToUpper(strings.TrimSpace(key))
		if key == "" || raw == nil {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		var val string
		switch v := raw.(type) {
		case []any:
			parts := make([]string, 0, len(v))
			for _, p := range v {
				parts = append(parts, fmt.Sprint(p))
			}
			val = strings.Join(parts, ",")
		default:
			val = fmt.Sprint(v)
		}
		if err := os.Setenv(key, val); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port: utils.GetEnv("PORT", "3001", log),

		JWTSecret:           utils.GetEnv("JWT_SECRET", "", log),
		AccessTokenTTL:      utils.GetEnvAsDuration("ACCESS_TOKEN_TTL", services.DefaultAccessTTL, log),
		InstitutionalDomain: utils.GetEnv("INSTITUTIONAL_DOMAIN", services.DefaultInstitutionalDomain, log),

		UploadsDir:     utils.GetEnv("UPLOADS_DIR", "uploads", log),
		MaxUploadBytes: int64(utils.GetEnvAsInt("MAX_UPLOAD_BYTES", 0, log)),
		CORSOrigins:    httpMW.ParseOrigins(utils.GetEnv("CORS_ORIGIN", "", log)),

		OpenAIAPIKey:  utils.GetEnv("OPENAI_API_KEY", "", nil),
		OpenAIBaseURL: utils.GetEnv("OPENAI_BASE_URL", "", log),
		OpenAIModel:   utils.GetEnv("OPENAI_MODEL", "", log),
		OpenAITimeout: utils.GetEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second, log),

		RedisAddr:     utils.GetEnv("REDIS_ADDR", "", log),
		RedisPassword: utils.GetEnv("REDIS_PASSWORD", "", nil),
		RedisDB:       utils.GetEnvAsInt("REDIS_DB", 0, log),
		PDFCacheTTL:   time.Duration(utils.GetEnvAsInt("PDF_CACHE_TTL_SECONDS", 3600, log)) * time.Second,

		MetricsEnabled: utils.GetEnvAsBool("METRICS_ENABLED", true, log),
		Otel: observability.OtelConfig{
			Enabled:     utils.GetEnvAsBool("OTEL_ENABLED", false, log),
			ServiceName: utils.GetEnv("OTEL_SERVICE_NAME", "acaduss-backend", log),
			Environment: utils.GetEnv("OTEL_ENVIRONMENT", utils.GetEnv("LOG_MODE", "development", log), log),
			Version:     utils.GetEnv("OTEL_SERVICE_VERSION", "", log),
			Endpoint:    utils.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     observability.ParseHeaders(utils.GetEnv("OTEL_EXPORTER_OTLP_HEADERS", "", nil)),
			Insecure:    utils.GetEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
			SampleRatio: float64(utils.GetEnvAsInt("OTEL_SAMPLE_PERCENT", 100, log)) / 100,
		},
	}
}
