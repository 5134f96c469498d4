package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/acaduss/acaduss-backend/internal/http/response"
)

type HealthHandler struct {
	corsOrigins []string
	now         func() time.Time
}

func NewHealthHandler(corsOrigins []string) *HealthHandler {
	return &HealthHandler{corsOrigins: corsOrigins, now: time.Now}
}

// GET /api/health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	response.RespondOK(c, gin.H{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// GET /api/config/cors
func (h *HealthHandler) CORSConfig(c *gin.Context) {
	response.RespondOK(c, gin.H{"origins": h.corsOrigins})
}
