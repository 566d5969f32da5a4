package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

type Server struct {
	dataset     *services.Dataset
	router      chi.Router
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

// NewServer wires the routes. A nil metrics disables /metrics.
func NewServer(dataset *services.Dataset, logger *slog.Logger, metrics *observability.Metrics, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		dataset:     dataset,
		router:      chi.NewRouter(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(dataset, logger),
		sseHandlers: handlers.NewSSEHandlers(dataset, logger),
	}
	s.setupRoutes(templateHandlers, metrics)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers, metrics *observability.Metrics) {
	r := s.router

	if metrics != nil {
		r.Use(middleware.Metrics(metrics))
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, r, s.logger, errors.NotFound("Resource not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, r, s.logger, errors.MethodNotAllowed("Method not allowed"))
	})

	// Dashboard routes
	r.Get("/", templateHandlers.Dashboard)
	r.Get("/health", s.apiHandlers.HandleHealth)
	r.Get("/admin/stats", s.apiHandlers.HandleStats)

	r.Route("/api", func(r chi.Router) {
		r.Get("/options", s.apiHandlers.HandleOptions)
		r.Get("/status", s.apiHandlers.HandleStatus)
		r.Get("/transactions", s.apiHandlers.HandleTransactions)
		r.Get("/summary", s.apiHandlers.HandleSummary)
		r.Get("/hourly-sales", s.apiHandlers.HandleHourlySales)
	})

	// Datastar SSE endpoints
	r.Get("/sse/filter", s.sseHandlers.HandleFilter)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
