package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/ctrl-alt-block/internal/reqctx"
)

const DebugUIDHeader = "X-Debug-UID"

// Authenticator guards routes and stores the caller's uid under "uid".
type Authenticator interface {
	RequireAuth(next echo.HandlerFunc) echo.HandlerFunc
}

// TokenVerifier is satisfied by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(ctx context.Context, projectID string) (*AuthMiddleware, error) {
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is not set")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return NewAuthMiddlewareWithVerifier(client), nil
}

func NewAuthMiddlewareWithVerifier(v TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: v}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		tokenStr := strings.TrimPrefix(authz, "Bearer ")
		token, err := m.verifier.VerifyIDToken(c.Request().Context(), tokenStr)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		}
		setUID(c, token.UID)
		return next(c)
	}
}

// DebugAuth trusts the X-Debug-UID header. Only for AUTH_DISABLED setups.
type DebugAuth struct{}

func (DebugAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid := strings.TrimSpace(c.Request().Header.Get(DebugUIDHeader))
		if uid == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		setUID(c, uid)
		return next(c)
	}
}

func setUID(c echo.Context, uid string) {
	c.Set("uid", uid)
	req := c.Request()
	c.SetRequest(req.WithContext(reqctx.WithUID(req.Context(), uid)))
}
