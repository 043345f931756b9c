package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adventskalender/backend/internal/logging"
	"github.com/adventskalender/backend/internal/middleware"
	"github.com/adventskalender/backend/internal/service"
)

type AuthHTTP struct {
	Svc           *service.AuthService
	TokenLifetime time.Duration
}

func (h *AuthHTTP) Token(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_token")

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("token_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	token, err := h.Svc.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRateLimited):
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many attempts")
		case errors.Is(err, service.ErrUnauthorized):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	c.SetCookie(createCookie(middleware.AuthCookieName, token, "/", time.Now().Add(h.TokenLifetime)))

	return c.JSON(http.StatusOK, echo.Map{
		"accessToken": token,
	})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"username": middleware.Principal(c),
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	c.SetCookie(deleteCookie(middleware.AuthCookieName, "/"))
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_password")

	var req struct {
		FirstTime  string `json:"first_time"`
		SecondTime string `json:"second_time"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("password_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.ChangePassword(ctx, middleware.Principal(c), req.FirstTime, req.SecondTime); err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "passwords do not match")
		case errors.Is(err, service.ErrUnauthorized):
			return echo.NewHTTPError(http.StatusForbidden, "unknown user")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "password change failed")
	}

	return c.NoContent(http.StatusNoContent)
}

func createCookie(name, value, path string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func deleteCookie(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
