package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/acaduss/acaduss-backend/internal/domain"
	httpH "github.com/acaduss/acaduss-backend/internal/http/handlers"
	httpMW "github.com/acaduss/acaduss-backend/internal/http/middleware"
	"github.com/acaduss/acaduss-backend/internal/observability"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	CORSOrigins []string
	// ServiceName enables otelgin spans when set.
	ServiceName string
	// UploadsDir is served under /uploads when set.
	UploadsDir string

	AuthHandler     *httpH.AuthHandler
	AuthMiddleware  *httpMW.AuthMiddleware
	UserHandler     *httpH.UserHandler
	DocumentHandler *httpH.DocumentHandler
	ChatHandler     *httpH.ChatHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.RequestIDs())
	r.Use(httpMW.AccessLog(cfg.Log, cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}
	if cfg.UploadsDir != "" {
		r.Static("/uploads", cfg.UploadsDir)
	}

	api := r.Group("/api")

	// Health
	if cfg.HealthHandler != nil {
		api.GET("/health", cfg.HealthHandler.HealthCheck)
		api.GET("/config/cors", cfg.HealthHandler.CORSConfig)
	}

	// Auth (public)
	if cfg.AuthHandler != nil {
		api.POST("/auth/register", cfg.AuthHandler.Register)
		api.POST("/auth/login", cfg.AuthHandler.Login)
	}

	requireAuth := func(c *gin.Context) { c.Next() }
	requireAdmin := func(c *gin.Context) { c.Next() }
	if cfg.AuthMiddleware != nil {
		requireAuth = cfg.AuthMiddleware.RequireAuth()
		requireAdmin = cfg.AuthMiddleware.RequireRole(types.RoleAdmin)
	}

	// Users
	if cfg.UserHandler != nil {
		users := api.Group("/users", requireAuth)
		users.GET("", requireAdmin, cfg.UserHandler.List)
		users.GET("/me", cfg.UserHandler.GetMe)
		users.GET("/:id", cfg.UserHandler.Get)
		users.PUT("/:id", cfg.UserHandler.Update)
	}

	// Documents
	if cfg.DocumentHandler != nil {
		docs := api.Group("/documents")
		docs.GET("", cfg.DocumentHandler.List)
		docs.GET("/search", cfg.DocumentHandler.Search)
		docs.GET("/popular", cfg.DocumentHandler.Popular)
		docs.GET("/recent", cfg.DocumentHandler.Recent)
		docs.GET("/stats", cfg.DocumentHandler.Stats)
		docs.GET("/author/:authorId", cfg.DocumentHandler.ListByAuthor)
		docs.GET("/:id", cfg.DocumentHandler.Get)
		docs.POST("/:id/rate", cfg.DocumentHandler.Rate)
		docs.POST("/:id/visit", cfg.DocumentHandler.Visit)
		docs.POST("/:id/download", cfg.DocumentHandler.Download)

		docs.POST("", requireAuth, cfg.DocumentHandler.Create)
		docs.PUT("/:id", requireAuth, cfg.DocumentHandler.Update)
		docs.DELETE("/:id", requireAuth, cfg.DocumentHandler.Delete)
	}

	// Chat
	if cfg.ChatHandler != nil {
		chat := api.Group("/chat")
		chat.GET("/diag", cfg.ChatHandler.Diagnostics)

		protected := chat.Group("", requireAuth)
		protected.POST("/query", cfg.ChatHandler.Query)
		protected.POST("/query-with-document/:documentId", cfg.ChatHandler.QueryWithDocument)
		protected.POST("/analyze-documents", cfg.ChatHandler.AnalyzeDocuments)
		protected.POST("/conversations", cfg.ChatHandler.CreateConversation)
		protected.GET("/conversations", cfg.ChatHandler.ListConversations)
		protected.GET("/conversations/:id/messages", cfg.ChatHandler.ListMessages)
		protected.POST("/conversations/:id/messages", cfg.ChatHandler.AddMessage)
		protected.DELETE("/conversations/:id", cfg.ChatHandler.DeleteConversation)
	}

	return r
}
