package app

import (
	"fmt"

	"github.com/acaduss/acaduss-backend/internal/clients/redis"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
	"github.com/acaduss/acaduss-backend/internal/platform/openai"
	"github.com/acaduss/acaduss-backend/internal/platform/pdftext"
)

type Clients struct {
	// OpenAI is nil when no API key is configured.
	OpenAI openai.Client
	// TextCache is nil without REDIS_ADDR.
	TextCache *redis.TextCache
	PDF       pdftext.Extractor
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	var cache pdftext.Cache = pdftext.NopCache{}
	var textCache *redis.TextCache
	if cfg.RedisAddr != "" {
		tc, err := redis.NewTextCache(log, redis.TextCacheConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.PDFCacheTTL,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis text cache: %w", err)
		}
		textCache = tc
		cache = tc
	}

	aiClient, err := openai.NewClient(log, openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.OpenAITimeout,
	})
	if err != nil {
		log.Warn("OpenAI client disabled, chatbot runs offline", "error", err)
		aiClient = nil
	}

	pdf := pdftext.New(log, pdftext.Config{
		UploadsDir: cfg.UploadsDir,
		Cache:      cache,
	})

	return Clients{OpenAI: aiClient, TextCache: textCache, PDF: pdf}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.TextCache != nil {
		_ = c.TextCache.Close()
	}
}
