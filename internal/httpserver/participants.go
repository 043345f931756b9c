package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adventskalender/backend/internal/logging"
	"github.com/adventskalender/backend/internal/middleware"
	"github.com/adventskalender/backend/internal/repo"
	"github.com/adventskalender/backend/internal/service"
)

type ParticipantHTTP struct {
	Svc *service.SelectionService
}

func (h *ParticipantHTTP) Count(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "participants_count")

	counts, err := h.Svc.Counts(ctx)
	if err != nil {
		l.Error("count_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot count participants")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"number_of_participants":                 counts.Total,
		"number_of_participants_won":             counts.Won,
		"number_of_participants_still_in_raffle": counts.Eligible,
	})
}

func (h *ParticipantHTTP) Pickable(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "participants_pickable")

	eligible, err := h.Svc.Eligible(ctx)
	if err != nil {
		l.Error("pickable_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list participants")
	}

	return c.JSON(http.StatusOK, eligible)
}

func (h *ParticipantHTTP) Pick(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "participants_pick")

	count, err := strconv.Atoi(c.Param("count"))
	if err != nil || count < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "count is not a non-negative integer")
	}
	forDate, err := parseDate(c.Param("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
	}

	picked, err := h.Svc.Pick(ctx, count, forDate, middleware.Principal(c))
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrInsufficientParticipants):
			return echo.NewHTTPError(http.StatusConflict, "not enough participants left in the raffle")
		case errors.Is(err, repo.ErrConcurrentModification):
			return echo.NewHTTPError(http.StatusConflict, "please retry, another pick was in progress")
		case errors.Is(err, service.ErrUnknownActor):
			return echo.NewHTTPError(http.StatusForbidden, "unknown user")
		}
		l.Error("pick_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "pick failed")
	}

	return c.JSON(http.StatusOK, picked)
}

func (h *ParticipantHTTP) Winners(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "participants_won")

	grouped, err := h.Svc.WinnersByDate(ctx)
	if err != nil {
		l.Error("winners_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list winners")
	}

	return c.JSON(http.StatusOK, grouped)
}

func (h *ParticipantHTTP) WinnersOn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "participants_won_on")

	date, err := parseDate(c.Param("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
	}

	winners, err := h.Svc.WinnersOn(ctx, date)
	if err != nil {
		l.Error("winners_on_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list winners")
	}

	return c.JSON(http.StatusOK, winners)
}

func (h *ParticipantHTTP) WinnerCountOn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "participants_won_count")

	date, err := parseDate(c.Param("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
	}

	count, err := h.Svc.WinnerCountOn(ctx, date)
	if err != nil {
		l.Error("winner_count_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot count winners")
	}

	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

func (h *ParticipantHTTP) Unpick(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "participants_unpick")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	if err := h.Svc.Unpick(ctx, id, middleware.Principal(c)); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "participant not found")
		case errors.Is(err, service.ErrUnknownActor):
			return echo.NewHTTPError(http.StatusForbidden, "unknown user")
		}
		l.Error("unpick_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "unpick failed")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ParticipantHTTP) AssignPackage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "participants_assign")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	var req struct {
		Package string `json:"package"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("assign_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.AssignPackage(ctx, id, req.Package, middleware.Principal(c)); err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "package identifier is required")
		case errors.Is(err, repo.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "participant not found")
		case errors.Is(err, repo.ErrNotAWinnerYet):
			return echo.NewHTTPError(http.StatusBadRequest, "participant has not won yet")
		case errors.Is(err, repo.ErrPackageConflict):
			return echo.NewHTTPError(http.StatusConflict, "package already assigned on that date")
		case errors.Is(err, service.ErrUnknownActor):
			return echo.NewHTTPError(http.StatusForbidden, "unknown user")
		}
		l.Error("assign_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "package assignment failed")
	}

	return c.NoContent(http.StatusNoContent)
}

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, time.UTC)
}
