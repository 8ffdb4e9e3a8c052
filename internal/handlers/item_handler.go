package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/anonto42/reunite-ai/backend/internal/services"
	"github.com/labstack/echo/v4"
)

const maxImageBytes = 10 << 20

// ReportSubmitter persists new item reports
type ReportSubmitter interface {
	SubmitReport(ctx context.Context, in services.ReportInput) (*models.Item, error)
}

// MatchFinder looks up candidates for a stored lost report
type MatchFinder interface {
	MatchesForLostItem(ctx context.Context, lostItemID uint, userID string) ([]models.Candidate, error)
}

// ItemHandler handles item report HTTP requests
type ItemHandler struct {
	intake  ReportSubmitter
	matcher MatchFinder
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(intake ReportSubmitter, matcher MatchFinder) *ItemHandler {
	return &ItemHandler{intake: intake, matcher: matcher}
}

// RegisterItemRoutes registers item routes
func (h *ItemHandler) RegisterItemRoutes(g *echo.Group) {
	g.POST("/items/report", h.ReportItem)
	g.POST("/items/search", h.SearchItem)
	g.GET("/items/matches/:lostItemId", h.GetMatches)
}

// ReportItem files a lost or found report from a multipart form
func (h *ItemHandler) ReportItem(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	in, err := bindReport(c)
	if err != nil {
		return err
	}
	in.UserID = &identity.UserID

	item, err := h.intake.SubmitReport(c.Request().Context(), *in)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("Your %s item report has been submitted.", item.Status),
		"itemId":  item.ID,
	})
}

// SearchItem files a lost report; matches are fetched with GetMatches
func (h *ItemHandler) SearchItem(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	in, err := bindReport(c)
	if err != nil {
		return err
	}
	in.Status = string(models.StatusLost)
	in.VerificationQuestion = ""
	in.VerificationAnswer = ""
	in.UserID = &identity.UserID

	item, err := h.intake.SubmitReport(c.Request().Context(), *in)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":    "Your lost item report has been submitted.",
		"lostItemId": item.ID,
	})
}

// GetMatches returns found reports matching one of the caller's lost reports
func (h *ItemHandler) GetMatches(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	lostItemID, err := strconv.ParseUint(c.Param("lostItemId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid lost item ID")
	}

	matches, err := h.matcher.MatchesForLostItem(c.Request().Context(), uint(lostItemID), identity.UserID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"matches": matches})
}

func bindReport(c echo.Context) (*services.ReportInput, error) {
	var req models.ReportItemRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	fileHeader, err := c.FormFile("itemImage")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "itemImage is required")
	}
	if fileHeader.Size > maxImageBytes {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "itemImage is too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Could not read itemImage")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Could not read itemImage")
	}
	if len(data) > maxImageBytes {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "itemImage is too large")
	}

	return &services.ReportInput{
		ReportItemRequest: req,
		ImageName:         fileHeader.Filename,
		Image:             data,
	}, nil
}
