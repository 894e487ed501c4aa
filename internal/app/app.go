package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"student-roster/internal/config"
	"student-roster/internal/db"
	"student-roster/internal/health"
	"student-roster/internal/logger"
	"student-roster/internal/metrics"
	appmiddleware "student-roster/internal/middleware"
	"student-roster/internal/student"
	"student-roster/internal/telemetry"
	"student-roster/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type App struct {
	config        *config.Config
	router        chi.Router
	server        *http.Server
	db            *bun.DB
	activity      *logger.Activity
	meterProvider *sdkmetric.MeterProvider
	logger        *slog.Logger
}

// New wires storage, services and routes from cfg. The caller owns the
// returned App and must call Shutdown.
func New(cfg *config.Config) (*App, error) {
	slogLogger := logger.NewWithServiceContext(ServiceName, Version, cfg.Env, cfg.Logging.Level, cfg.Logging.Format)

	// Set as default logger so slog.Info() uses the same handler
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application", "env", cfg.Env, "commit", GitCommit)

	ctx := context.Background()
	meterProvider, err := telemetry.InitMeterProvider(ctx, cfg.Metrics, telemetry.Service{
		Name:    ServiceName,
		Version: Version,
		Env:     cfg.Env,
	}, slogLogger)
	if err != nil {
		return nil, fmt.Errorf("init meter provider: %w", err)
	}

	m, err := metrics.New(ServiceName, slogLogger)
	if err != nil {
		telemetry.Shutdown(ctx, meterProvider, slogLogger)
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	database, err := db.New(cfg.Database)
	if err != nil {
		telemetry.Shutdown(ctx, meterProvider, slogLogger)
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := m.Database.RegisterDB(database.DB, otel.Meter(ServiceName)); err != nil {
		slogLogger.Warn("failed to register database pool metrics", "error", err)
	}

	if err := db.RunMigrations(ctx, database, (*student.Student)(nil)); err != nil {
		db.Close(database)
		telemetry.Shutdown(ctx, meterProvider, slogLogger)
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	activity, err := logger.NewActivity(logger.ActivityOptions{
		File:       cfg.Logging.ActivityFile,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		db.Close(database)
		telemetry.Shutdown(ctx, meterProvider, slogLogger)
		return nil, fmt.Errorf("open activity log: %w", err)
	}

	app := &App{
		config:        cfg,
		router:        chi.NewRouter(),
		db:            database,
		activity:      activity,
		meterProvider: meterProvider,
		logger:        slogLogger,
	}

	app.router.Use(middleware.RequestID)
	app.router.Use(middleware.RealIP)
	app.router.Use(logger.Middleware(slogLogger))
	app.router.Use(middleware.Recoverer)
	app.router.Use(appmiddleware.CORS(cfg.Server.AllowedOrigins))

	healthHandler := health.NewHandler(database)
	healthHandler.RegisterRoutes(app.router)

	validator := validation.New(cfg.Roster.Rules())
	studentRepo := student.NewRepository(database, m)
	studentService := student.NewService(studentRepo, validator, slogLogger, m)
	studentHandler := student.NewHandler(studentService, activity, slogLogger, m, student.HandlerOptions{
		DataDir:            cfg.Roster.DataDir,
		AtRiskThreshold:    cfg.Roster.AtRiskThreshold,
		TopPerformersLimit: cfg.Roster.TopPerformersLimit,
		MaxUploadBytes:     cfg.Server.MaxUploadMB << 20,
	})
	studentHandler.RegisterRoutes(app.router)

	slogLogger.Info("application initialized successfully")

	return app, nil
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) Run() error {
	a.server = &http.Server{
		Addr:         net.JoinHostPort(a.config.Server.Host, a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "addr", a.server.Addr)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	var errs []error
	if a.server != nil {
		errs = append(errs, a.server.Shutdown(ctx))
	}
	errs = append(errs, a.activity.Close())
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	errs = append(errs, telemetry.Shutdown(ctx, a.meterProvider, a.logger))
	return errors.Join(errs...)
}
