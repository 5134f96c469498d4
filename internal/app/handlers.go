package app

import (
	httpH "github.com/acaduss/acaduss-backend/internal/http/handlers"
	httpMW "github.com/acaduss/acaduss-backend/internal/http/middleware"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Auth     *httpH.AuthHandler
	User     *httpH.UserHandler
	Document *httpH.DocumentHandler
	Chat     *httpH.ChatHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(cfg.CORSOrigins),
		Auth:   httpH.NewAuthHandler(services.Auth),
		User:   httpH.NewUserHandler(services.User),
		Document: httpH.NewDocumentHandler(httpH.DocumentHandlerDeps{
			Log:       log,
			Documents: services.Document,
			Uploads:   services.Upload,
		}),
		Chat: httpH.NewChatHandler(services.Chatbot, services.Conversation),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}
