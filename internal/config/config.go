package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "MACRO"

// Config represents the complete application configuration
type Config struct {
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// AnalysisConfig holds every parameter of the event-study computations.
// It is passed explicitly to each computation entry point.
type AnalysisConfig struct {
	Tickers        []string `yaml:"tickers" envconfig:"TICKERS" validate:"required,min=1,dive,required"`
	TradingDays    int      `yaml:"trading_days" envconfig:"TRADING_DAYS" validate:"gt=0"`
	EWMALambda     float64  `yaml:"ewma_lambda" envconfig:"EWMA_LAMBDA" validate:"gt=0,lt=1"`
	RollingWindows []int    `yaml:"rolling_windows" envconfig:"ROLLING_WINDOWS" validate:"dive,gte=2"`
	WindowMin      int      `yaml:"window_min" envconfig:"WINDOW_MIN" validate:"lte=0"`
	WindowMax      int      `yaml:"window_max" envconfig:"WINDOW_MAX" validate:"gte=0"`
	PreDays        int      `yaml:"pre_days" envconfig:"PRE_DAYS" validate:"gt=0"`
	PostDays       int      `yaml:"post_days" envconfig:"POST_DAYS" validate:"gt=0"`
	DDOF           int      `yaml:"ddof" envconfig:"DDOF" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RunRateLimit    float64       `yaml:"run_rate_limit" envconfig:"RUN_RATE_LIMIT" validate:"gt=0"`
	RunBurst        int           `yaml:"run_burst" envconfig:"RUN_BURST" validate:"gt=0"`
}

// TelemetryConfig selects the OpenTelemetry exporters
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty path searches the
// usual locations and falls back to defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML values onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct tags and cross-field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	return c.Analysis.Validate()
}

// Validate checks the analysis parameters on their own, for callers that build
// an AnalysisConfig without going through Load.
func (a AnalysisConfig) Validate() error {
	if err := validator.New().Struct(a); err != nil {
		return err
	}
	if a.WindowMin > a.WindowMax {
		return fmt.Errorf("window_min %d greater than window_max %d", a.WindowMin, a.WindowMax)
	}
	seen := make(map[string]struct{}, len(a.Tickers))
	for _, t := range a.Tickers {
		if _, dup := seen[t]; dup {
			return fmt.Errorf("duplicate ticker %q", t)
		}
		seen[t] = struct{}{}
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Analysis: DefaultAnalysis(),
		Paths: PathsConfig{
			DataDir:    "data",
			PricesCSV:  "prices.csv",
			ReturnsCSV: "returns.csv",
			EventsCSV:  "events.csv",
			ReportsDir: "reports",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/macrostudy.log",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RunRateLimit:    0.2,
			RunBurst:        2,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "macrostudy",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}

// DefaultAnalysis returns the standard event-study parameters
func DefaultAnalysis() AnalysisConfig {
	return AnalysisConfig{
		Tickers:        []string{"SPY", "QQQ", "TLT", "GLD", "DBA", "BTC-USD"},
		TradingDays:    252,
		EWMALambda:     0.94,
		RollingWindows: []int{20, 60, 120},
		WindowMin:      -3,
		WindowMax:      3,
		PreDays:        20,
		PostDays:       20,
		DDOF:           1,
	}
}
