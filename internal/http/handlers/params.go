package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/acaduss/acaduss-backend/internal/http/response"
	"github.com/acaduss/acaduss-backend/internal/platform/ctxutil"
)

// parseIDParam writes a 400 and returns false when the path param is not a uuid.
func parseIDParam(c *gin.Context, name, code, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, code, errors.New(msg))
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	if v := strings.TrimSpace(c.Query(name)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// requestUserID is set by AuthMiddleware.RequireAuth.
func requestUserID(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("Token requerido"))
		return uuid.Nil, false
	}
	return rd.UserID, true
}
