package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/acaduss/acaduss-backend/internal/platform/ctxutil"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

type fakeVerifier struct {
	tokens map[string]*ctxutil.RequestData
}

func (f fakeVerifier) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	rd, ok := f.tokens[token]
	if !ok {
		return ctx, errors.New("bad token")
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func TestRequireAuthAndRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	verifier := fakeVerifier{tokens: map[string]*ctxutil.RequestData{
		"student": {UserID: uuid.New(), Role: "student"},
		"admin":   {UserID: uuid.New(), Role: "admin"},
		"nobody":  {UserID: uuid.Nil},
	}}
	am := NewAuthMiddleware(logger.Nop(), verifier)

	r := gin.New()
	r.GET("/me", am.RequireAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/admin", am.RequireAuth(), am.RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		name   string
		path   string
		header string
		query  string
		want   int
	}{
		{name: "missing", path: "/me", want: http.StatusUnauthorized},
		{name: "invalid", path: "/me", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "bearer", path: "/me", header: "Bearer student", want: http.StatusOK},
		{name: "query", path: "/me", query: "?token=student", want: http.StatusOK},
		{name: "nil_user", path: "/me", header: "Bearer nobody", want: http.StatusForbidden},
		{name: "role_denied", path: "/admin", header: "Bearer student", want: http.StatusForbidden},
		{name: "role_ok", path: "/admin", header: "bearer admin", want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status=%d want=%d body=%s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}
