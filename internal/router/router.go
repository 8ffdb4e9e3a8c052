package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/anonto42/reunite-ai/backend/internal/embedding"
	"github.com/anonto42/reunite-ai/backend/internal/handlers"
	"github.com/anonto42/reunite-ai/backend/internal/imagestore"
	"github.com/anonto42/reunite-ai/backend/internal/metrics"
	"github.com/anonto42/reunite-ai/backend/internal/middleware"
	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/anonto42/reunite-ai/backend/internal/reasoning"
	"github.com/anonto42/reunite-ai/backend/internal/repositories"
	"github.com/anonto42/reunite-ai/backend/internal/services"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Dependencies are the process-wide collaborators injected into the routes
type Dependencies struct {
	Postgres  *gorm.DB
	Mongo     *mongo.Database // nil disables the adjudication audit log
	Identity  middleware.IdentityResolver
	Embedder  embedding.Embedder
	Uploader  imagestore.Uploader
	Providers []reasoning.Provider
	Metrics   metrics.Recorder

	Matcher         services.MatcherConfig
	ProviderTimeout time.Duration
	ClaimRateLimit  float64
}

// Migrate enables pgvector and creates the tables and search indexes
func Migrate(pgdb *gorm.DB) error {
	if err := pgdb.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return errors.Wrap(err, "failed to enable pgvector extension")
	}

	if err := pgdb.AutoMigrate(
		&models.Item{},
		&models.Claim{},
		&models.Notification{},
	); err != nil {
		return errors.Wrap(err, "failed to auto migrate models")
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_items_description_fts ON items USING GIN (to_tsvector('english', description))",
		"CREATE INDEX IF NOT EXISTS idx_items_embedding ON items USING hnsw (embedding vector_cosine_ops)",
	}
	for _, stmt := range indexes {
		if err := pgdb.Exec(stmt).Error; err != nil {
			return errors.Wrapf(err, "failed to create index: %s", stmt)
		}
	}

	slog.Info("PostgreSQL migrations completed")
	return nil
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	e.GET("/health", handlers.HealthCheck)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Welcome to Reunite AI"})
	})

	// --- Initialize Repositories ---
	itemRepo := repositories.NewPostgresItemRepository(deps.Postgres)
	claimRepo := repositories.NewPostgresClaimRepository(deps.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(deps.Postgres)
	dashboardRepo := repositories.NewPostgresDashboardRepository(deps.Postgres)

	auditRepo := repositories.NewNoopAdjudicationLogRepository()
	if deps.Mongo != nil {
		auditRepo = repositories.NewMongoAdjudicationLogRepository(deps.Mongo)
	}

	// --- Initialize Services ---
	matcher := services.NewMatcher(itemRepo, deps.Matcher, deps.Metrics)
	dispatcher := services.NewDispatcher(notificationRepo, matcher, deps.Metrics)
	intake := services.NewReportIntake(itemRepo, deps.Embedder, deps.Uploader, dispatcher, deps.Metrics)
	adjudicator := services.NewAdjudicator(services.AdjudicatorConfig{
		Items:     itemRepo,
		Claims:    claimRepo,
		Providers: deps.Providers,
		Notifier:  dispatcher,
		Audit:     auditRepo,
		Metrics:   deps.Metrics,
		Timeout:   deps.ProviderTimeout,
	})
	dashboard := services.NewDashboardService(dashboardRepo)

	// --- Protected routes (require a verified identity) ---
	api := e.Group("/api")
	api.Use(middleware.FirebaseAuthMiddleware(deps.Identity))

	itemHandler := handlers.NewItemHandler(intake, matcher)
	itemHandler.RegisterItemRoutes(api)
	slog.Info("item routes configured", "similarity_threshold", matcher.Threshold(), "match_mode", matcher.Mode())

	claimHandler := handlers.NewClaimHandler(adjudicator)
	claimHandler.RegisterClaimRoutes(api, claimRateLimiter(deps.ClaimRateLimit)...)
	slog.Info("claim routes configured", "providers", len(deps.Providers))

	notificationHandler := handlers.NewNotificationHandler(dispatcher)
	notificationHandler.RegisterNotificationRoutes(api)
	slog.Info("notification routes configured")

	dashboardHandler := handlers.NewDashboardHandler(dashboard)
	dashboardHandler.RegisterDashboardRoutes(api)
	slog.Info("dashboard routes configured")
}

// claimRateLimiter throttles claim attempts per client; a non-positive limit disables it
func claimRateLimiter(perSecond float64) []echo.MiddlewareFunc {
	if perSecond <= 0 {
		return nil
	}
	store := eMiddleware.NewRateLimiterMemoryStore(rate.Limit(perSecond))
	return []echo.MiddlewareFunc{eMiddleware.RateLimiter(store)}
}
