package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/ctrl-alt-block/internal/reqctx"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubVerifier struct{}

func (stubVerifier) VerifyIDToken(_ context.Context, token string) (*auth.Token, error) {
	if token == "good" {
		return &auth.Token{UID: "firebase-uid"}, nil
	}
	return nil, errors.New("bad token")
}

func echoUID(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	return c.String(http.StatusOK, uid+"|"+reqctx.UID(c.Request().Context()))
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	e := echo.New()
	m := NewAuthMiddlewareWithVerifier(stubVerifier{})
	e.GET("/me", echoUID, m.RequireAuth)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"invalid token", "Bearer bad", http.StatusUnauthorized, ""},
		{"valid token", "Bearer good", http.StatusOK, "firebase-uid|firebase-uid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := serve(e, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestDebugAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", echoUID, DebugAuth{}.RequireAuth)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(DebugUIDHeader, "dev-user")
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev-user|dev-user", rec.Body.String())
}

func TestRequestIDAndLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := echo.New()
	e.Use(RequestID())
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error {
		return c.String(http.StatusOK, reqctx.RID(c.Request().Context()))
	})
	e.GET("/boom", func(c echo.Context) error {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "boom"})
	})

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-123")
	rec := serve(e, req)
	assert.Equal(t, "rid-123", rec.Body.String())
	assert.Equal(t, "rid-123", rec.Header().Get(echo.HeaderXRequestID))

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.NotEmpty(t, rec.Body.String())

	serve(e, httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		assert.Equal(t, "rid-123", entries[0].ContextMap()["rid"])
		assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	}
}
