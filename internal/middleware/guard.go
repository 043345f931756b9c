package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/adventskalender/backend/internal/logging"
	"github.com/adventskalender/backend/internal/tokens"
)

// Classified authorization failures. All of them reject the request
// with the same status; the distinction is for server-side logs only.
var (
	ErrMissingCredential   = errors.New("no credential in cookie or authorization header")
	ErrMalformedCredential = errors.New("malformed authorization header")
)

const AuthCookieName = "auth_token"

// Guard turns an inbound credential into a verified principal. The
// cookie is preferred; the Authorization header with a bearer scheme is
// the fallback. No I/O, invoked once per protected request.
type Guard struct {
	Verifier *tokens.Verifier
}

func NewGuard(v *tokens.Verifier) *Guard {
	return &Guard{Verifier: v}
}

func (g *Guard) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("middleware", "auth")

		tokenStr, err := ExtractCredential(c)
		if err != nil {
			l.Warn("request_rejected", "status", http.StatusForbidden, "error", err)
			return echo.NewHTTPError(http.StatusForbidden, "authentication required")
		}

		claims, err := g.Verifier.Parse(tokenStr)
		if err != nil {
			l.Warn("request_rejected", "status", http.StatusForbidden, "reason", "invalid token")
			return echo.NewHTTPError(http.StatusForbidden, "invalid token")
		}

		c.Set("username", claims.Subject)
		return next(c)
	}
}

// ExtractCredential locates the bearer credential: a present cookie is
// used unconditionally, even when its value is empty; only an absent
// cookie falls through to an "Authorization: Bearer <token>" header,
// which must split into exactly two fields with a case-insensitive
// bearer scheme.
func ExtractCredential(c echo.Context) (string, error) {
	if cookie, err := c.Cookie(AuthCookieName); err == nil {
		return cookie.Value, nil
	}

	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", ErrMissingCredential
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 {
		return "", ErrMalformedCredential
	}
	if !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMalformedCredential
	}
	return parts[1], nil
}

// Principal returns the verified username RequireAuth stored on the
// request context.
func Principal(c echo.Context) string {
	if v, ok := c.Get("username").(string); ok {
		return v
	}
	return ""
}
