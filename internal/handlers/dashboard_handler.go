package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/anonto42/reunite-ai/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// DashboardReader serves the dashboard read views
type DashboardReader interface {
	Overview(ctx context.Context, userID string) (*services.Overview, error)
	LostReports(ctx context.Context, userID string) ([]models.ReportSummary, error)
	FoundReports(ctx context.Context, userID string) ([]models.ReportSummary, error)
}

// DashboardHandler handles dashboard HTTP requests
type DashboardHandler struct {
	dashboard DashboardReader
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboard DashboardReader) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// RegisterDashboardRoutes registers dashboard routes
func (h *DashboardHandler) RegisterDashboardRoutes(g *echo.Group) {
	g.GET("/dashboard", h.GetDashboard)
	g.GET("/dashboard/lost-reports", h.GetLostReports)
	g.GET("/dashboard/found-reports", h.GetFoundReports)
}

func (h *DashboardHandler) GetDashboard(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	overview, err := h.dashboard.Overview(c.Request().Context(), identity.UserID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, overview)
}

func (h *DashboardHandler) GetLostReports(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	reports, err := h.dashboard.LostReports(c.Request().Context(), identity.UserID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"reports": reports})
}

func (h *DashboardHandler) GetFoundReports(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	reports, err := h.dashboard.FoundReports(c.Request().Context(), identity.UserID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"reports": reports})
}
