package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ClaimService runs the claim flow
type ClaimService interface {
	StartClaim(ctx context.Context, foundItemID uint) (string, error)
	VerifyClaim(ctx context.Context, req models.VerifyClaimRequest, claimant models.Identity) (*models.ClaimResult, error)
	History(ctx context.Context, foundItemID uint, userID string, limit int64) ([]models.Adjudication, error)
}

// ClaimHandler handles claim HTTP requests
type ClaimHandler struct {
	claims ClaimService
}

// NewClaimHandler creates a new ClaimHandler
func NewClaimHandler(claims ClaimService) *ClaimHandler {
	return &ClaimHandler{claims: claims}
}

// RegisterClaimRoutes registers claim routes. Extra middleware (rate limiting) applies to these routes only.
func (h *ClaimHandler) RegisterClaimRoutes(g *echo.Group, m ...echo.MiddlewareFunc) {
	g.POST("/items/claim/start", h.StartClaim, m...)
	g.POST("/items/claim/verify", h.VerifyClaim, m...)
	g.GET("/items/claim/:foundItemId/adjudications", h.GetAdjudications)
}

// StartClaim returns the verification question of a found item
func (h *ClaimHandler) StartClaim(c echo.Context) error {
	if _, err := currentIdentity(c); err != nil {
		return err
	}

	var req models.StartClaimRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	question, err := h.claims.StartClaim(c.Request().Context(), req.FoundItemID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"question": question})
}

// VerifyClaim adjudicates the claimant's answer
func (h *ClaimHandler) VerifyClaim(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req models.VerifyClaimRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.claims.VerifyClaim(c.Request().Context(), req, *identity)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// GetAdjudications lists recorded verdicts for one of the caller's found reports
func (h *ClaimHandler) GetAdjudications(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	foundItemID, err := strconv.ParseUint(c.Param("foundItemId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid found item ID")
	}
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)

	entries, err := h.claims.History(c.Request().Context(), uint(foundItemID), identity.UserID, limit)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"adjudications": entries})
}
