package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/acaduss/acaduss-backend/internal/platform/logger"
	"github.com/acaduss/acaduss-backend/internal/services"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ACCESS_TOKEN_TTL", "INSTITUTIONAL_DOMAIN", "CORS_ORIGIN", "REDIS_ADDR", "OTEL_ENABLED", "PDF_CACHE_TTL_SECONDS"} {
		t.Setenv(key, "")
	}
	cfg := LoadConfig(logger.Nop())

	if cfg.Port != "3001" {
		t.Fatalf("Port=%q", cfg.Port)
	}
	if cfg.AccessTokenTTL != 8*time.Hour {
		t.Fatalf("AccessTokenTTL=%v", cfg.AccessTokenTTL)
	}
	if cfg.InstitutionalDomain != services.DefaultInstitutionalDomain {
		t.Fatalf("InstitutionalDomain=%q", cfg.InstitutionalDomain)
	}
	if len(cfg.CORSOrigins) == 0 {
		t.Fatalf("expected default CORS origins")
	}
	if cfg.RedisAddr != "" || cfg.Otel.Enabled {
		t.Fatalf("optional integrations should be off: %+v", cfg)
	}
	if cfg.PDFCacheTTL != time.Hour {
		t.Fatalf("PDFCacheTTL=%v", cfg.PDFCacheTTL)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ACCESS_TOKEN_TTL", "3600")
	t.Setenv("CORS_ORIGIN", "https://apuntes.uss.cl/, http://localhost:5173")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLE_PERCENT", "25")

	cfg := LoadConfig(logger.Nop())
	if cfg.Port != "8080" || cfg.AccessTokenTTL != time.Hour {
		t.Fatalf("cfg=%+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://apuntes.uss.cl" {
		t.Fatalf("CORSOrigins=%v", cfg.CORSOrigins)
	}
	if !cfg.Otel.Enabled || cfg.Otel.SampleRatio != 0.25 {
		t.Fatalf("Otel=%+v", cfg.Otel)
	}
}

func TestYAMLConfigDoesNotOverrideEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("OPENAI_MODEL", "")
	os.Unsetenv("OPENAI_MODEL")
	t.Setenv("CORS_ORIGIN", "")
	os.Unsetenv("CORS_ORIGIN")

	path := filepath.Join(t.TempDir(), "acaduss.yaml")
	body := "port: 7000\nopenai_model: gpt-4o\ncors_origin:\n  - http://a.test\n  - http://b.test\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ACADUSS_CONFIG", path)

	if err := LoadEnvFiles(logger.Nop()); err != nil {
		t.Fatalf("LoadEnvFiles: %v", err)
	}
	cfg := LoadConfig(logger.Nop())
	if cfg.Port != "9000" {
		t.Fatalf("env should win, Port=%q", cfg.Port)
	}
	if cfg.OpenAIModel != "gpt-4o" {
		t.Fatalf("OpenAIModel=%q", cfg.OpenAIModel)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("CORSOrigins=%v", cfg.CORSOrigins)
	}
}

func TestApplyYAMLDefaultsRejectsGarbage(t *testing.T) {
	if err := applyYAMLDefaults([]byte("- just\n- a list\n")); err == nil {
		t.Fatalf("expected error for non-mapping config")
	}
}
