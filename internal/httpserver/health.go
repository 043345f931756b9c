package httpserver

import (
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"

	"github.com/adventskalender/backend/internal/service"
)

// Build metadata, set via -ldflags at release time.
var (
	Version   = "dev"
	BuildDate = "unknown"
)

type HealthHTTP struct {
	Svc *service.HealthService
}

func (h *HealthHTTP) Health(c echo.Context) error {
	if !h.Svc.Check(c.Request().Context()) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database unreachable")
	}
	return c.NoContent(http.StatusOK)
}

func (h *HealthHTTP) Version(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"backend_version": Version,
		"backend_arch":    runtime.GOARCH,
		"build_date":      BuildDate,
	})
}
