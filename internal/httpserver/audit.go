package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/adventskalender/backend/internal/logging"
	"github.com/adventskalender/backend/internal/service"
)

type AuditHTTP struct {
	Svc *service.AuditService
}

func (h *AuditHTTP) Count(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "audit_count")

	count, err := h.Svc.Count(ctx)
	if err != nil {
		l.Error("audit_count_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot count audit events")
	}

	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

func (h *AuditHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "audit_search")

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}

	from, _ := strconv.Atoi(c.QueryParam("from"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	if size <= 0 || size > 100 {
		size = 25
	}

	total, found, err := h.Svc.Search(ctx, q, from, size)
	if err != nil {
		l.Error("audit_search_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "audit search failed")
	}

	return c.JSON(http.StatusOK, echo.Map{"total": total, "events": found})
}
