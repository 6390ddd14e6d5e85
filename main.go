package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/arbadacarbaYK/sociostr/internal/adapters/cache"
	"github.com/arbadacarbaYK/sociostr/internal/adapters/database"
	"github.com/arbadacarbaYK/sociostr/internal/adapters/statsrepository"
	"github.com/arbadacarbaYK/sociostr/internal/adapters/userprovider"
	"github.com/arbadacarbaYK/sociostr/internal/config"
	"github.com/arbadacarbaYK/sociostr/internal/domain"
	"github.com/arbadacarbaYK/sociostr/internal/livemap"
	"github.com/arbadacarbaYK/sociostr/internal/logging"
	"github.com/arbadacarbaYK/sociostr/internal/ports"
	"github.com/arbadacarbaYK/sociostr/internal/reporting"
	"github.com/arbadacarbaYK/sociostr/internal/telemetry"
)

// TODO: Put in config
const PROD_DOMAIN_SUFFIX = "sociostr.net"
const STAGING_DOMAIN_SUFFIX = "sociostr.pages.dev"

func main() {
	instanceID := uuid.New().String()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	config, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", config.NonSensitiveString())

	otelShutdown, err := telemetry.SetupOTelSDK(context.Background(), "sociostr")
	if err != nil {
		fail("Failed to initialize OpenTelemetry", "error", err.Error())
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
		}
	}()

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	backendAPI, err := userprovider.NewBackendAPIOrMock(config, httpClient)
	if err != nil {
		fail("Failed to initialize backend API", "error", err.Error())
	}
	logger.Info("Initialized backend API")

	locationCache := cache.NewTTLCache[domain.Location](24 * time.Hour)
	userProvider := userprovider.NewBackendUserProvider(backendAPI, locationCache)

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(config)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	var cycleStatsRepo statsrepository.CycleStatsRepository
	db, err := database.NewPostgresDatabase(config)
	if err != nil {
		if !config.IsDevelopment() {
			fail("Failed to initialize database connection", "error", err.Error())
		}
		logger.Warn("No database available, storing cycle stats in memory", "error", err.Error())
		cycleStatsRepo = statsrepository.NewStubCycleStatsRepository()
	} else {
		logger.Info("Initialized database connection")

		schemaName := database.GetSchemaName(!config.IsProduction())
		err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(context.Background(), schemaName)
		if err != nil {
			fail("Failed to migrate database", "error", err.Error())
		}

		cycleStatsRepo = statsrepository.NewPostgres(db, schemaName)
	}

	allowedOrigins, err := ports.NewDomainSuffixes(PROD_DOMAIN_SUFFIX, STAGING_DOMAIN_SUFFIX)
	if err != nil {
		fail("Failed to initialize allowed origins", "error", err.Error())
	}

	scheduler := livemap.NewFetchScheduler(userProvider, cycleStatsRepo, livemap.SchedulerOptions{})
	defer scheduler.Teardown()

	hub := ports.NewHub(scheduler.Snapshot, allowedOrigins)
	defer hub.Close()
	scheduler.Subscribe(hub.Publish)

	http.HandleFunc(
		"OPTIONS /v1/snapshot",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/snapshot",
		ports.MakeGetSnapshotHandler(
			scheduler.Snapshot,
			allowedOrigins,
			logger.With("port", "snapshot"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/refresh",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"POST /v1/refresh",
		ports.MakeRefreshHandler(
			scheduler.TriggerManualLoad,
			scheduler.Snapshot,
			allowedOrigins,
			logger.With("port", "refresh"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/autoupdate",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"POST /v1/autoupdate",
		ports.MakeAutoUpdateHandler(
			scheduler.SetAutoUpdateEnabled,
			scheduler.AutoUpdateEnabled,
			allowedOrigins,
			logger.With("port", "autoupdate"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/history",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/history",
		ports.MakeGetHistoryHandler(
			cycleStatsRepo.GetCycleStats,
			allowedOrigins,
			logger.With("port", "history"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"GET /v1/live",
		ports.MakeLiveHandler(
			hub,
			logger.With("port", "live"),
			sentryMiddleware,
		),
	)

	// Load the initial user set without holding up startup
	go func() {
		ctx := logging.AddToContext(context.Background(), logger.With("component", "initial-load"))
		if err := scheduler.TriggerManualLoad(ctx); err != nil {
			logger.Error("Initial load failed", "error", err.Error())
		}
	}()

	logger.Info("Init complete")
	err = http.ListenAndServe(fmt.Sprintf(":%s", config.Port()), nil)
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
