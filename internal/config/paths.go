package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// PathsConfig contains file system paths. File names are resolved against
// DataDir unless absolute.
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	PricesCSV  string `yaml:"prices_csv" envconfig:"PRICES_CSV" validate:"required"`
	ReturnsCSV string `yaml:"returns_csv" envconfig:"RETURNS_CSV" validate:"required"`
	EventsCSV  string `yaml:"events_csv" envconfig:"EVENTS_CSV" validate:"required"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
}

// PricesPath returns the resolved prices CSV path
func (p PathsConfig) PricesPath() string {
	return p.resolve(p.PricesCSV)
}

// ReturnsPath returns the resolved returns CSV path
func (p PathsConfig) ReturnsPath() string {
	return p.resolve(p.ReturnsCSV)
}

// EventsPath returns the resolved events CSV path
func (p PathsConfig) EventsPath() string {
	return p.resolve(p.EventsCSV)
}

// ReportsPath returns the resolved reports directory
func (p PathsConfig) ReportsPath() string {
	return p.resolve(p.ReportsDir)
}

// GetReportPath returns the full path for a report file
func (p PathsConfig) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsPath(), filename)
}

func (p PathsConfig) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.DataDir, name)
}

// EnsureDirectories creates the data and reports directories if missing
func (p PathsConfig) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ReportsPath()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPathResolution logs all resolved paths for debugging
func (p PathsConfig) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("path resolution",
		slog.String("data_dir", p.DataDir),
		slog.String("prices_csv", p.PricesPath()),
		slog.String("returns_csv", p.ReturnsPath()),
		slog.String("events_csv", p.EventsPath()),
		slog.String("reports_dir", p.ReportsPath()),
	)
}
