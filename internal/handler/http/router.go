package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/saga"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/health"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/middleware"
)

// NewRouter creates a chi router with all orchestrator routes registered.
func NewRouter(
	orch *saga.Orchestrator,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("saga-orchestrator"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	// Legacy probe path kept for existing deployment manifests.
	r.Get("/health-check", healthHandler.LivenessHandler())

	r.Handle("/metrics", promhttp.Handler())

	sagaHandler := NewSagaHandler(orch, logger)

	r.Route("/saga", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/order", sagaHandler.PlaceOrder)
	})

	return r
}
