package app

import (
	"github.com/acaduss/acaduss-backend/internal/http"
	"github.com/acaduss/acaduss-backend/internal/observability"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

func routerConfig(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) http.RouterConfig {
	rc := http.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		CORSOrigins:     cfg.CORSOrigins,
		UploadsDir:      cfg.UploadsDir,
		HealthHandler:   handlers.Health,
		AuthHandler:     handlers.Auth,
		AuthMiddleware:  middleware.Auth,
		UserHandler:     handlers.User,
		DocumentHandler: handlers.Document,
		ChatHandler:     handlers.Chat,
	}
	if cfg.Otel.Enabled {
		rc.ServiceName = cfg.Otel.ServiceName
	}
	return rc
}
