package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

// TokenVerifier checks Firebase ID tokens; *auth.Client satisfies it
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// RequireAdmin verifies the Firebase ID token sent as "Authorization: Bearer <token>".
// With a nil verifier the routes stay open, which is how a panel without Firebase runs.
func RequireAdmin(verifier TokenVerifier, adminEmail string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if verifier == nil {
				return next(c)
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			decoded, err := verifier.VerifyIDToken(c.Request().Context(), strings.TrimSpace(token))
			if err != nil {
				c.Logger().Warnf("rejected admin token: %v", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			email, _ := decoded.Claims["email"].(string)
			if adminEmail != "" && !strings.EqualFold(email, adminEmail) {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}

			c.Set("userUID", decoded.UID)
			if email != "" {
				c.Set("userEmail", email)
			}
			return next(c)
		}
	}
}
