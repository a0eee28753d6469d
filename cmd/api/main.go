package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sketch-eval-api/internal/config"
	"github.com/noah-isme/sketch-eval-api/internal/database"
	"github.com/noah-isme/sketch-eval-api/internal/handler"
	"github.com/noah-isme/sketch-eval-api/internal/middleware"
	"github.com/noah-isme/sketch-eval-api/internal/repository"
	"github.com/noah-isme/sketch-eval-api/internal/results"
	"github.com/noah-isme/sketch-eval-api/internal/router"
	"github.com/noah-isme/sketch-eval-api/internal/service"
	cloud "github.com/noah-isme/sketch-eval-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.AppEnv == "production" {
		logger = logger.Level(zerolog.InfoLevel)
	} else {
		logger = logger.Level(zerolog.DebugLevel)
	}
	logger = logger.With().Str("service", cfg.AppName).Logger()

	ctx := context.Background()
	validate := validator.New(validator.WithRequiredStructEnabled())

	var store repository.EvaluationRecordRepository
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		if err := database.Migrate(db); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
		store = repository.NewEvaluationRecordRepository(db)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable; raw results will not be cached")
		} else {
			defer redisClient.Close()
		}
	}

	var events results.EventPublisher
	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable; load events will not be published")
		} else {
			defer natsConn.Drain()
			events = results.NewNATSPublisher(natsConn, cfg.NATSSubject)
		}
	}

	var publisher service.DrawingPublisher
	if cfg.CloudinaryEnabled() {
		cld, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		publisher = cld
	}

	var fetcher results.Fetcher
	if cfg.ResultsDir != "" {
		fetcher = results.NewDirFetcher(cfg.ResultsDir)
	} else {
		fetcher = results.NewHTTPFetcher(cfg.ResultsBaseURL, cfg.ResultsFetchTimeout)
	}
	if redisClient != nil {
		fetcher = results.NewCachedFetcher(fetcher, redisClient, cfg.ResultsCacheTTL, logger)
	}

	loader := results.NewTableLoader(fetcher, results.NewParser(validate), store, events, logger).
		WithStoreTTL(cfg.ResultsStoreTTL)

	selectionService := service.NewSelectionService(service.SelectionConfig{
		PromptVariants: cfg.PromptVariants,
		InputModes:     cfg.InputModes,
		Versions:       cfg.Versions,
		Steps:          cfg.Steps,
		LegacyFiles:    cfg.LegacyFiles,
	}, store, logger)
	dashboardService := service.NewDashboardService(loader, logger)
	chartService := service.NewChartService(loader, logger)
	exportService := service.NewExportService(loader, logger)
	renderService := service.NewRenderService(loader, publisher, service.RenderDefaults{
		ImageSize: cfg.RenderImageSize,
		LineWidth: cfg.RenderLineWidth,
	}, logger)

	resultsHandler := handler.NewResultsHandler(selectionService, dashboardService, chartService, exportService, validate, logger)
	drawingHandler := handler.NewDrawingHandler(selectionService, renderService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		ResultsHandler: resultsHandler,
		DrawingHandler: drawingHandler,
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("results", fetcher.Source()).Msg("starting server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
