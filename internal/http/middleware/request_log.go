package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/acaduss/acaduss-backend/internal/observability"
	"github.com/acaduss/acaduss-backend/internal/platform/ctxutil"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

const unmatchedRoute = "unmatched"

// AccessLog writes one line per request, tagged with the ids RequestIDs put
// on the context, and feeds the HTTP metrics when m is non-nil. It must run
// after RequestIDs.
func AccessLog(log *logger.Logger, m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		if m != nil {
			m.APIInflight(1)
			defer m.APIInflight(-1)
		}

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		if m != nil {
			m.ObserveAPI(c.Request.Method, route, strconv.Itoa(status), elapsed)
		}
		if log == nil {
			return
		}

		ctx := c.Request.Context()
		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		}
		if rd := ctxutil.GetRequestData(ctx); rd != nil && rd.UserID != uuid.Nil {
			fields = append(fields, "user_id", rd.UserID.String())
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		l := log.WithContext(ctx)
		switch {
		case status >= 500:
			l.Error("HTTP request", fields...)
		case status >= 400:
			l.Warn("HTTP request", fields...)
		default:
			l.Info("HTTP request", fields...)
		}
	}
}
