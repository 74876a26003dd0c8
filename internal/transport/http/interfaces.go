package http

import (
	"context"

	"macrostudy/internal/services"
)

// AnalysisRunner is the part of services.AnalysisService the handlers use
type AnalysisRunner interface {
	Latest() (*services.Report, bool)
	RunFromFiles(ctx context.Context) (*services.Report, error)
}

// HealthChecker is the part of services.HealthService the handlers use
type HealthChecker interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
}
