package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/reunite-ai/backend/internal/embedding"
	"github.com/anonto42/reunite-ai/backend/internal/imagestore"
	"github.com/anonto42/reunite-ai/backend/internal/imaging"
	"github.com/anonto42/reunite-ai/backend/internal/metrics"
	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/anonto42/reunite-ai/backend/internal/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"
)

const discoveryTimeout = 30 * time.Second

// ReportInput is a validated-on-submit report together with its photo
type ReportInput struct {
	models.ReportItemRequest
	UserID    *string
	ImageName string
	Image     []byte
}

// MatchDiscoverer is notified after a found report has been persisted
type MatchDiscoverer interface {
	DiscoverMatches(ctx context.Context, found *models.Item) (int, error)
}

// ReportIntake validates, enriches and persists new reports
type ReportIntake struct {
	items      repositories.ItemRepository
	embedder   embedding.Embedder
	uploader   imagestore.Uploader
	discoverer MatchDiscoverer
	validate   *validator.Validate
	metrics    metrics.Recorder
	spawn      func(func())
}

// NewReportIntake creates a new ReportIntake
func NewReportIntake(items repositories.ItemRepository, embedder embedding.Embedder, uploader imagestore.Uploader, discoverer MatchDiscoverer, rec metrics.Recorder) *ReportIntake {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &ReportIntake{
		items:      items,
		embedder:   embedder,
		uploader:   uploader,
		discoverer: discoverer,
		validate:   validator.New(),
		metrics:    rec,
		spawn:      func(f func()) { go f() },
	}
}

// SubmitReport validates the input, computes the embedding and uploads the photo
// concurrently, persists the report and, for found reports, kicks off match discovery.
func (s *ReportIntake) SubmitReport(ctx context.Context, in ReportInput) (*models.Item, error) {
	item, err := s.buildItem(in)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Normalize(in.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: itemImage: %v", ErrValidation, err)
	}

	var vector []float32
	var imageURL string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.embedder.EmbedImage(gctx, imageName(in.ImageName), img)
		if err != nil {
			slog.Error("embedding request failed", "provider", s.embedder.Name(), "error", err)
			return fmt.Errorf("%w: %s: %v", ErrUpstreamEmbedding, s.embedder.Name(), err)
		}
		if len(v) == 0 {
			return fmt.Errorf("%w: %s: empty vector", ErrUpstreamEmbedding, s.embedder.Name())
		}
		vector = v
		return nil
	})
	g.Go(func() error {
		url, err := s.uploader.Upload(gctx, img, "image/jpeg")
		if err != nil {
			slog.Error("image upload failed", "provider", s.uploader.Name(), "error", err)
			return fmt.Errorf("%w: %s: %v", ErrUpstreamStorage, s.uploader.Name(), err)
		}
		imageURL = url
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	item.Embedding = pgvector.NewVector(vector)
	item.ImageURL = imageURL

	if err := s.items.CreateItem(ctx, item); err != nil {
		slog.Error("failed to persist report", "status", item.Status, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.metrics.ReportSubmitted(string(item.Status))
	slog.Info("report persisted", "item_id", item.ID, "status", item.Status)

	if item.Status == models.StatusFound && s.discoverer != nil {
		s.triggerDiscovery(ctx, item)
	}
	return item, nil
}

// triggerDiscovery runs match discovery detached from the request; failures are logged only.
func (s *ReportIntake) triggerDiscovery(ctx context.Context, item *models.Item) {
	detached := context.WithoutCancel(ctx)
	s.spawn(func() {
		dctx, cancel := context.WithTimeout(detached, discoveryTimeout)
		defer cancel()
		if _, err := s.discoverer.DiscoverMatches(dctx, item); err != nil {
			slog.Warn("match discovery failed", "found_item_id", item.ID, "error", err)
		}
	})
}

func (s *ReportIntake) buildItem(in ReportInput) (*models.Item, error) {
	req := in.ReportItemRequest
	req.Description = strings.TrimSpace(req.Description)
	req.University = strings.TrimSpace(req.University)
	req.CustomLocation = strings.TrimSpace(req.CustomLocation)
	req.VerificationQuestion = strings.TrimSpace(req.VerificationQuestion)
	req.VerificationAnswer = strings.TrimSpace(req.VerificationAnswer)

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
			}
			return nil, fmt.Errorf("%w: %s", ErrValidation, strings.Join(fields, ", "))
		}
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if len(in.Image) == 0 {
		return nil, fmt.Errorf("%w: itemImage is required", ErrValidation)
	}

	itemDate, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date: %v", ErrValidation, err)
	}

	item := &models.Item{
		UserID:      in.UserID,
		Status:      models.ItemStatus(req.Status),
		Description: req.Description,
		University:  req.University,
		Location:    req.CustomLocation,
		ItemDate:    itemDate,
	}
	if item.Latitude, err = parseCoordinate(req.Lat); err != nil {
		return nil, fmt.Errorf("%w: lat: %v", ErrValidation, err)
	}
	if item.Longitude, err = parseCoordinate(req.Lng); err != nil {
		return nil, fmt.Errorf("%w: lng: %v", ErrValidation, err)
	}

	// Verification Q/A only makes sense on found reports.
	if item.Status == models.StatusFound && req.VerificationQuestion != "" {
		q, a := req.VerificationQuestion, req.VerificationAnswer
		item.VerificationQuestion = &q
		item.VerificationAnswer = &a
	}
	return item, nil
}

func parseCoordinate(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func imageName(name string) string {
	if name == "" {
		return "item.jpg"
	}
	return name
}
