package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/sales"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const (
	renderTimeout     = 10 * time.Second
	rateLimitInterval = time.Minute
	cacheMaxAge       = "private, max-age=60"
)

// dashboardHandler renders the page with every filter value selected.
func dashboardHandler(dataset *services.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		table := dataset.Filter(ctx, dataset.DefaultSelection())
		data := templates.DashboardData{
			Options: dataset.Options(),
			Table:   table,
			Summary: dataset.Summary(table),
			Hourly:  dataset.HourlySales(table),
			Notice:  dataset.Status().Message,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := templates.Dashboard(data).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func newHandler(cfg *config.Config, dataset *services.Dataset, metrics *observability.Metrics, limiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(dataset),
	}

	srv := server.NewServer(dataset, logger, metrics, templateHandlers)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(limiter, logger),
	)

	return middlewareChain(srv)
}

func main() {
	// .env values never override variables already set in the environment.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", observability.ServiceVersion,
		"addr", cfg.Address(),
		"dataset", cfg.Dataset.Path,
		"sheet", cfg.Dataset.Sheet,
	)

	var shutdownHooks []server.ShutdownHook

	if cfg.Telemetry.EnableTracing {
		tp, err := observability.SetupTracing()
		if err != nil {
			logger.Error("failed to set up tracing", "error", err)
			os.Exit(1)
		}
		shutdownHooks = append(shutdownHooks, tp.Shutdown)
	}

	var metrics *observability.Metrics
	if cfg.Telemetry.EnableMetrics {
		metrics, err = observability.NewMetrics()
		if err != nil {
			logger.Error("failed to set up metrics", "error", err)
			os.Exit(1)
		}
		shutdownHooks = append(shutdownHooks, metrics.Shutdown)
	}

	dataset := services.NewDataset(
		services.WithTotalColumn(cfg.Dataset.TotalColumn),
		services.WithMetrics(metrics),
		services.WithLogger(logger),
	)

	loader := sales.NewLoader(cfg.Dataset.Path, cfg.Dataset.Sheet, sales.WithLogger(logger))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Dataset.LoadTimeout)
	result := dataset.Load(ctx, loader)
	cancel()

	// A failed load still serves the page with its notice.
	if !result.OK() {
		logger.Warn("serving without data", "kind", result.Err.Kind.String())
	}

	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	limiter := middleware.NewRateLimiter(cfg.Security)
	go limiter.Run(limiterCtx, rateLimitInterval)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, dataset, metrics, limiter, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		stopLimiter()
		return nil
	})
	for _, hook := range shutdownHooks {
		gracefulServer.RegisterShutdownHook(hook)
	}

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
