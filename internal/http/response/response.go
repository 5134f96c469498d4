package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acaduss/acaduss-backend/internal/platform/apierr"
)

type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorBody{Error: msg, Code: code})
}

// RespondErr picks the status and code from err. Internal errors are not
// echoed to the client.
func RespondErr(c *gin.Context, err error) {
	status, code := apierr.Classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, ErrorBody{Error: "Error interno del servidor", Code: code})
		return
	}
	RespondError(c, status, code, err)
}

// AbortError is RespondError for middleware.
func AbortError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: msg, Code: code})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
