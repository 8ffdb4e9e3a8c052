package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/reunite-ai/backend/internal/embedding"
	"github.com/anonto42/reunite-ai/backend/internal/imagestore"
	"github.com/anonto42/reunite-ai/backend/internal/metrics"
	"github.com/anonto42/reunite-ai/backend/internal/middleware"
	"github.com/anonto42/reunite-ai/backend/internal/reasoning"
	"github.com/anonto42/reunite-ai/backend/internal/repositories"
	"github.com/anonto42/reunite-ai/backend/internal/router"
	"github.com/anonto42/reunite-ai/backend/internal/services"
	"github.com/anonto42/reunite-ai/backend/pkg/config"
	"github.com/anonto42/reunite-ai/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reunite",
		Short: "Lost-and-found match and claim service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Enable pgvector and migrate the schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate()
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(env string) {
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}

func migrate() error {
	config.LoadEnv()
	cfg := config.Load()
	setupLogger(cfg.Env)

	db, err := config.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}
	defer db.CloseDB()

	return router.Migrate(db.Postgres)
}

func serve(ctx context.Context) error {
	config.LoadEnv()
	cfg := config.Load()
	setupLogger(cfg.Env)

	db, err := config.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}
	defer db.CloseDB()

	if err := router.Migrate(db.Postgres); err != nil {
		return err
	}

	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseStorageBucket)
	if err != nil {
		return fmt.Errorf("failed to initialize firebase: %w", err)
	}

	uploader, err := imagestore.NewFirebaseUploader(firebaseApp.StorageClient, cfg.FirebaseStorageBucket, cfg.ImageFolder)
	if err != nil {
		return fmt.Errorf("failed to initialize image storage: %w", err)
	}

	embedder, err := embedding.NewClient(embedding.Config{
		URL:        cfg.EmbeddingURL,
		Dimensions: cfg.EmbeddingDimensions,
		Timeout:    cfg.EmbeddingTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedding client: %w", err)
	}

	providers, err := buildProviders(cfg.PrimaryLLM, cfg.SecondaryLLM)
	if err != nil {
		return err
	}

	exporter := metrics.NewExporter()

	var mongoDB *mongo.Database
	if db.Mongo != nil {
		mongoDB = db.Mongo.Database(cfg.MongoDatabase)
	}

	e := echo.New()
	e.HideBanner = true
	config.SetupMiddleware(e)

	router.SetupRoutes(e, router.Dependencies{
		Postgres:  db.Postgres,
		Mongo:     mongoDB,
		Identity:  middleware.NewFirebaseResolver(firebaseApp.AuthClient),
		Embedder:  embedder,
		Uploader:  uploader,
		Providers: providers,
		Metrics:   exporter,
		Matcher: services.MatcherConfig{
			Threshold: cfg.SimilarityThreshold,
			Limit:     cfg.MatchLimit,
			Mode:      repositories.MatchMode(cfg.MatchMode),
		},
		ProviderTimeout: cfg.LLMTimeout,
		ClaimRateLimit:  cfg.ClaimRateLimit,
	})

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           exporter.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("metrics server listening", "port", cfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("api server listening", "port", cfg.Port, "env", cfg.Env)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server failed: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("api server shutdown failed", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics server shutdown failed", "error", err)
	}
	return nil
}

func buildProviders(configs ...config.LLMConfig) ([]reasoning.Provider, error) {
	var providers []reasoning.Provider
	for _, c := range configs {
		if !c.Enabled() {
			continue
		}
		p, err := reasoning.NewProvider(reasoning.Config{
			Provider:  c.Provider,
			Model:     c.Model,
			APIKey:    c.APIKey,
			BaseURL:   c.BaseURL,
			MaxTokens: c.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize reasoning provider: %w", err)
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		slog.Warn("no reasoning providers configured, every claim will go to manual review")
	}
	return providers, nil
}
