package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"macrostudy/internal/config"
)

// ReportSource exposes the latest analysis report
type ReportSource interface {
	Latest() (*Report, bool)
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	paths     config.PathsConfig
	reports   ReportSource
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a health service. reports may be nil.
func NewHealthService(version string, paths config.PathsConfig, reports ReportSource, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized", slog.String("version", version))

	return &HealthService{
		version:   version,
		paths:     paths,
		reports:   reports,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports ready once the input files exist and a report is available
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"returns": hs.checkFile(hs.paths.ReturnsPath()),
			"events":  hs.checkFile(hs.paths.EventsPath()),
			"report":  hs.checkReport(),
		},
	}

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	if status.Status != "ready" {
		hs.logger.InfoContext(ctx, "ReadinessCheck: not ready", slog.Any("services", status.Services))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

func (hs *HealthService) checkFile(path string) ServiceHealth {
	info, err := os.Stat(path)
	if err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("file not accessible: %s", path)}
	}
	if info.IsDir() {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("expected a file: %s", path)}
	}
	return ServiceHealth{Status: "ready"}
}

func (hs *HealthService) checkReport() ServiceHealth {
	if hs.reports == nil {
		return ServiceHealth{Status: "not_ready", Message: "analysis service not initialized"}
	}
	report, ok := hs.reports.Latest()
	if !ok {
		return ServiceHealth{Status: "not_ready", Message: "no analysis report yet"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("run %s", report.RunID),
		Uptime:  time.Since(report.GeneratedAt).Round(time.Second).String(),
	}
}
