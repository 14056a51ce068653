package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-market/internal/config"
	"course-market/internal/database"
	"course-market/internal/events"
	"course-market/internal/handler"
	"course-market/internal/identity"
	"course-market/internal/middleware"
	"course-market/internal/promo"
	"course-market/internal/repository"
	"course-market/internal/router"
	"course-market/internal/service"
	"course-market/internal/store"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("store", cfg.Store.Driver).Str("events", cfg.Events.Driver).Msg("starting course-market API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close store")
		}
	}()

	// Initialize repositories
	courseRepo := repository.NewCourseRepository(kv, logger)
	lessonRepo := repository.NewLessonRepository(kv, logger)
	orderRepo := repository.NewOrderRepository(kv, logger)
	enrollmentRepo := repository.NewEnrollmentRepository(kv, logger)
	promoRepo := repository.NewPromoRepository(kv, logger)
	userRepo := repository.NewUserRepository(kv, logger)
	progressRepo := repository.NewProgressRepository(kv, logger)
	feedbackRepo := repository.NewFeedbackRepository(kv, logger)

	provider := identity.NewCasdoorProvider(cfg.Identity, logger)
	policy := identity.NewAdminPolicy(cfg.Admin.Emails)

	bus, err := events.New(cfg.Events, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize event bus: %w", err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event bus")
		}
	}()

	// Initialize services
	orderService := service.NewOrderService(orderRepo, enrollmentRepo, courseRepo, lessonRepo, userRepo, promoRepo, bus, logger)
	catalogService := service.NewCatalogService(courseRepo, lessonRepo, progressRepo, orderService, logger)
	promoService := service.NewPromoService(promoRepo, courseRepo, logger)
	accountService := service.NewAccountService(provider, userRepo, enrollmentRepo, logger)
	feedbackService := service.NewFeedbackService(feedbackRepo, logger)
	reportService := service.NewReportService(provider, courseRepo, lessonRepo, orderRepo, userRepo, progressRepo, feedbackRepo, logger)

	if err := seedPromos(ctx, cfg, promoService, logger); err != nil {
		return err
	}

	projector := events.NewProjector(bus, orderService, logger)
	if err := projector.Start(ctx); err != nil {
		return fmt.Errorf("failed to start enrollment projector: %w", err)
	}

	var limiter *middleware.Limiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewLimiter(ctx, cfg.RateLimit)
	}

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Health:   handler.NewHealthHandler(kv, logger),
		Course:   handler.NewCourseHandler(catalogService, orderService, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
		Promo:    handler.NewPromoHandler(promoService, logger),
		Account:  handler.NewAccountHandler(accountService, logger),
		Report:   handler.NewReportHandler(reportService, logger),
		Feedback: handler.NewFeedbackHandler(feedbackService, logger),
	}

	// Initialize router
	mux := router.New(handlers, router.Auth{Resolver: provider, Policy: policy}, limiter, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// openStore connects the configured key-value backend.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (store.Store, error) {
	retry := store.DefaultRetryOptions()
	retry.MaxRetries = cfg.Store.MaxRetries

	switch cfg.Store.Driver {
	case config.StoreDriverRedis:
		client, err := database.NewRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		return store.NewRedis(client, retry, logger), nil

	default:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := store.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return store.NewPostgres(pool, retry, logger), nil
	}
}

// seedPromos imports promo seed files from S3 with a local fallback, or
// from the local file system only when S3 is disabled.
func seedPromos(ctx context.Context, cfg *config.Config, promos service.PromoService, logger zerolog.Logger) error {
	if len(cfg.Promo.SeedFiles) == 0 {
		return nil
	}

	fileLoader := promo.NewFileLoader(logger)
	var loader promo.Loader = fileLoader

	if cfg.S3.Enabled {
		s3Loader, err := promo.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			loader = promo.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, logger)
		}
	} else {
		logger.Info().Msg("using local file system for promo seed files (S3 disabled)")
	}

	seeds, err := promo.LoadAll(ctx, loader, cfg.Promo.SeedFiles, logger)
	if err != nil {
		return fmt.Errorf("failed to load promo seeds: %w", err)
	}

	added, err := promos.Import(ctx, seeds)
	if err != nil {
		return fmt.Errorf("failed to import promo seeds: %w", err)
	}

	logger.Info().Int("seeds", seeds.Size()).Int("added", added).Msg("promo seeds imported")
	return nil
}
