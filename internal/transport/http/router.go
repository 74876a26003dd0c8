package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"macrostudy/internal/config"
	apierrors "macrostudy/internal/errors"
	"macrostudy/internal/middleware"
)

// RouterDeps are the collaborators of the API router
type RouterDeps struct {
	Runner  AnalysisRunner
	Health  HealthChecker
	Server  config.ServerConfig
	Logger  *slog.Logger
	Metrics http.Handler
	// OTel is optional; nil disables request tracing
	OTel *middleware.OTelMiddleware
}

// NewRouter assembles the middleware chain and every route
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errorHandler := apierrors.NewErrorHandler(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if deps.OTel != nil {
		r.Use(deps.OTel.Handler)
	}
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.StripSlashes)

	timeout := deps.Server.WriteTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	r.Use(chimw.Timeout(timeout))

	r.NotFound(errorHandler.NotFound)

	r.Handle("/metrics", NewMetricsHandler(deps.Metrics))

	health := NewHealthHandler(deps.Health, logger)
	reports := NewReportHandler(deps.Runner, logger, errorHandler)
	runs := NewRunHandler(deps.Runner, logger, errorHandler)

	rps, burst := deps.Server.RunRateLimit, deps.Server.RunBurst
	if rps <= 0 {
		rps = 0.2
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := middleware.NewRateLimiter(rps, burst, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.HealthCheck)
		r.Get("/health/ready", health.ReadinessCheck)
		r.Get("/health/live", health.LivenessCheck)

		reports.Register(r)

		r.With(limiter.Handler).Post("/runs", runs.CreateRun)
	})

	return r
}
