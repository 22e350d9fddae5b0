package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/ctrl-alt-block/internal/repository"
	"github.com/shinyyama/ctrl-alt-block/internal/reqctx"
	"github.com/shinyyama/ctrl-alt-block/internal/service"
	"go.uber.org/zap"
)

func uidFrom(c echo.Context) (string, error) {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return "", c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	return uid, nil
}

// writeError maps service and repository errors onto the error envelope.
// Unknown errors are reported without their text.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "user not found"))
	case errors.Is(err, service.ErrUnknownActivity),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidStreakType),
		errors.Is(err, service.ErrInvalidArchetype):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	case errors.Is(err, repository.ErrDBNotReady):
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("db_not_ready", "database is not ready"))
	default:
		zap.L().Error("request failed",
			append(reqctx.Fields(c.Request().Context()), zap.String("path", c.Path()), zap.Error(err))...)
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "internal error"))
	}
}
