package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/anonto42/reunite-ai/backend/internal/middleware"
	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/anonto42/reunite-ai/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// toHTTPError converts service errors into echo HTTP errors
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	case errors.Is(err, services.ErrNotFoundOrNotOwned):
		return echo.NewHTTPError(http.StatusNotFound, "Not found or not owned by you")
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrAlreadyClaimed):
		return echo.NewHTTPError(http.StatusConflict, "This item has already been claimed")
	case errors.Is(err, services.ErrUpstreamEmbedding):
		return echo.NewHTTPError(http.StatusInternalServerError, "Image analysis failed, please try again later")
	case errors.Is(err, services.ErrUpstreamStorage):
		return echo.NewHTTPError(http.StatusInternalServerError, "Image upload failed, please try again later")
	default:
		slog.Error("request failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}

// currentIdentity returns the verified caller or a 401
func currentIdentity(c echo.Context) (*models.Identity, error) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return identity, nil
}
