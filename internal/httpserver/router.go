package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/adventskalender/backend/internal/middleware"
)

type Deps struct {
	AuthHandler        *AuthHTTP
	ParticipantHandler *ParticipantHTTP
	AuditHandler       *AuditHTTP
	HealthHandler      *HealthHTTP

	Guard       *middleware.Guard
	CORSOrigins []string
}

func Register(e *echo.Echo, d *Deps) {
	if len(d.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
			AllowCredentials: true,
		}))
	}
	e.Use(echomw.SecureWithConfig(echomw.SecureConfig{
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))

	v1 := e.Group("/v1")

	v1.GET("/health", d.HealthHandler.Health)
	v1.GET("/version", d.HealthHandler.Version)
	v1.POST("/auth/token", d.AuthHandler.Token)

	private := v1.Group("")
	private.Use(d.Guard.RequireAuth)

	private.GET("/auth/me", d.AuthHandler.Me)
	private.POST("/auth/logout", d.AuthHandler.Logout)
	private.PUT("/auth/password", d.AuthHandler.ChangePassword)

	private.GET("/participants/count", d.ParticipantHandler.Count)
	private.GET("/participants/pickable", d.ParticipantHandler.Pickable)
	private.GET("/participants/pick/:count/for/:date", d.ParticipantHandler.Pick)
	private.GET("/participants/won", d.ParticipantHandler.Winners)
	private.GET("/participants/won/:date", d.ParticipantHandler.WinnersOn)
	private.GET("/participants/won/:date/count", d.ParticipantHandler.WinnerCountOn)
	private.DELETE("/participants/won/:id", d.ParticipantHandler.Unpick)
	private.PUT("/participants/:id", d.ParticipantHandler.AssignPackage)

	private.GET("/audit/count", d.AuditHandler.Count)
	private.GET("/audit/search", d.AuditHandler.Search)
}
