package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"macrostudy/internal/config"
	apperrors "macrostudy/internal/errors"
	"macrostudy/internal/events"
	"macrostudy/internal/eventstudy"
	"macrostudy/internal/infrastructure"
	"macrostudy/internal/marketdata"
	"macrostudy/internal/volatility"
)

// Stage names used for spans and stage metrics
const (
	StageLoad     = "load"
	StagePanel    = "panel"
	StageVolShift = "volatility_shift"
	StageRolling  = "rolling_volatility"
	StageExport   = "export"
)

// RunInput is the fully materialized input of one analysis run
type RunInput struct {
	Returns *marketdata.ReturnMatrix
	// Events must already be placed on trading days of Returns
	Events []events.Event
	// Mapping is carried into the report when the events were mapped by the caller
	Mapping events.MappingStats
}

// RollingVolRow is the trailing realized volatility of a ticker on the last
// trading day of the run.
type RollingVolRow struct {
	Ticker string    `json:"ticker"`
	Window int       `json:"window"`
	Date   time.Time `json:"date"`
	Vol    float64   `json:"vol"`
}

// Report is the outcome of one analysis run
type Report struct {
	RunID       string              `json:"run_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Duration    time.Duration       `json:"duration"`
	Params      eventstudy.Params   `json:"params"`
	Tickers     []string            `json:"tickers"`
	Events      int                 `json:"events"`
	Mapping     events.MappingStats `json:"mapping"`
	Result      *eventstudy.Result  `json:"result"`
	Rolling     []RollingVolRow     `json:"rolling_volatility"`
}

// ReportWriter persists a report under dir
type ReportWriter interface {
	WriteReport(dir string, report *Report) error
}

// AnalysisService runs the event study and keeps the latest report
type AnalysisService struct {
	cfg     config.AnalysisConfig
	paths   config.PathsConfig
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.AnalysisMetrics
	writers []ReportWriter

	// runMu serializes runs so exports and latest follow run order
	runMu sync.Mutex

	mu     sync.RWMutex
	latest *Report
}

// NewAnalysisService creates an analysis service. metrics may be nil.
func NewAnalysisService(cfg config.AnalysisConfig, paths config.PathsConfig, logger *slog.Logger, metrics *infrastructure.AnalysisMetrics) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("AnalysisService initialized",
		slog.Any("tickers", cfg.Tickers),
		slog.Int("window_min", cfg.WindowMin),
		slog.Int("window_max", cfg.WindowMax),
		slog.Int("pre_days", cfg.PreDays),
		slog.Int("post_days", cfg.PostDays))

	return &AnalysisService{
		cfg:     cfg,
		paths:   paths,
		logger:  infrastructure.WithComponent(logger, "analysis_service"),
		tracer:  otel.Tracer(infrastructure.InstrumentationName),
		metrics: metrics,
	}
}

// AddWriter registers a writer invoked after every successful run
func (s *AnalysisService) AddWriter(w ReportWriter) {
	s.writers = append(s.writers, w)
}

// ParamsFromConfig converts analysis configuration to event-study parameters
func ParamsFromConfig(cfg config.AnalysisConfig) eventstudy.Params {
	return eventstudy.Params{
		Window: eventstudy.Window{Min: cfg.WindowMin, Max: cfg.WindowMax},
		Shift: eventstudy.ShiftParams{
			PreDays:     cfg.PreDays,
			PostDays:    cfg.PostDays,
			TradingDays: cfg.TradingDays,
			Lambda:      cfg.EWMALambda,
			DDOF:        cfg.DDOF,
		},
	}
}

// Run computes every table for in. The panel branch and the volatility
// branches run concurrently; they read the same immutable matrix and write
// disjoint parts of the report. Runs are serialized: a second caller waits
// until the first has exported and published its report.
func (s *AnalysisService) Run(ctx context.Context, in RunInput) (*Report, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	runID := infrastructure.GenerateTraceID()
	ctx = infrastructure.WithTraceID(ctx, runID)

	ctx, span := s.tracer.Start(ctx, "analysis.run",
		trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	logger := s.logger.With(slog.String("trace_id", runID))

	report, err := s.run(ctx, runID, in)
	s.metrics.RecordRun(ctx, time.Since(start), err == nil)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		logger.ErrorContext(ctx, "analysis run failed", slog.String("error", err.Error()))
		return nil, err
	}

	report.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("panel.rows", len(report.Result.Panel)),
		attribute.Int("volshift.rows", len(report.Result.VolShift)),
	)

	logger.InfoContext(ctx, "analysis run completed",
		slog.Int("events", report.Events),
		slog.Int("tickers", len(report.Tickers)),
		slog.Int("panel_rows", len(report.Result.Panel)),
		slog.Int("volshift_rows", len(report.Result.VolShift)),
		slog.Int("panel_events_skipped", report.Result.PanelSkips.Events()),
		slog.Int("volshift_pairs_dropped", report.Result.ShiftSkips.Pairs()),
		slog.Duration("duration", report.Duration))

	if err := s.export(ctx, report); err != nil {
		// the report is still valid in memory
		logger.WarnContext(ctx, "report export failed", slog.String("error", err.Error()))
	}

	s.publish(report)
	return report, nil
}

// publish makes report the latest unless a newer one is already published
func (s *AnalysisService) publish(report *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest != nil && s.latest.GeneratedAt.After(report.GeneratedAt) {
		return
	}
	s.latest = report
}

func (s *AnalysisService) run(ctx context.Context, runID string, in RunInput) (*Report, error) {
	if in.Returns == nil {
		return nil, apperrors.NewAppValidationError("return matrix is required")
	}

	params := ParamsFromConfig(s.cfg)
	if err := params.Validate(); err != nil {
		return nil, apperrors.NewInvalidParameterError("invalid analysis parameters", err)
	}

	returns, err := s.selectTickers(ctx, in.Returns)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Params:      params,
		Tickers:     returns.Tickers(),
		Events:      len(in.Events),
		Mapping:     in.Mapping,
		Result:      &eventstudy.Result{},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.stage(gctx, StagePanel, func(context.Context) error {
			return eventstudy.AnalyzePanel(returns, in.Events, params.Window, report.Result)
		})
	})
	g.Go(func() error {
		return s.stage(gctx, StageVolShift, func(context.Context) error {
			return eventstudy.AnalyzeVolShift(returns, in.Events, params.Shift, report.Result)
		})
	})
	g.Go(func() error {
		return s.stage(gctx, StageRolling, func(context.Context) error {
			report.Rolling = RollingSnapshot(returns, s.cfg.RollingWindows, s.cfg.TradingDays)
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := report.Result
	s.metrics.RecordRows(ctx, "panel", len(res.Panel))
	s.metrics.RecordRows(ctx, "drawdowns", len(res.Drawdowns))
	s.metrics.RecordRows(ctx, "volatility_shift", len(res.VolShift))
	s.metrics.RecordSkipped(ctx, "panel", "unmapped", res.PanelSkips.Unmapped)
	s.metrics.RecordSkipped(ctx, "panel", "out_of_bounds", res.PanelSkips.OutOfBounds)
	s.metrics.RecordSkipped(ctx, "volatility_shift", "unmapped", res.ShiftSkips.Unmapped)
	s.metrics.RecordSkipped(ctx, "volatility_shift", "out_of_bounds", res.ShiftSkips.OutOfBounds)
	s.metrics.RecordDropped(ctx, "insufficient", res.ShiftSkips.Insufficient)
	s.metrics.RecordDropped(ctx, "zero_pre_vol", res.ShiftSkips.ZeroPreVol)

	return report, nil
}

// stage runs fn inside a child span and records its duration
func (s *AnalysisService) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, "analysis."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	s.metrics.RecordStage(ctx, name, time.Since(start))
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return fmt.Errorf("%s stage: %w", name, err)
	}
	return nil
}

// selectTickers restricts the matrix to the configured tickers it contains.
// An empty ticker list keeps every column.
func (s *AnalysisService) selectTickers(ctx context.Context, m *marketdata.ReturnMatrix) (*marketdata.ReturnMatrix, error) {
	if len(s.cfg.Tickers) == 0 {
		return m, nil
	}

	present := make([]string, 0, len(s.cfg.Tickers))
	var missing []string
	for _, t := range s.cfg.Tickers {
		if m.HasTicker(t) {
			present = append(present, t)
		} else {
			missing = append(missing, t)
		}
	}

	if len(missing) > 0 {
		s.logger.WarnContext(ctx, "configured tickers missing from returns",
			slog.Any("missing", missing))
	}
	if len(present) == 0 {
		return nil, apperrors.NewAppValidationError("none of the configured tickers are present in the returns").
			WithContext("tickers", s.cfg.Tickers)
	}
	return m.Select(present)
}

func (s *AnalysisService) export(ctx context.Context, report *Report) error {
	if len(s.writers) == 0 {
		return nil
	}
	return s.stage(ctx, StageExport, func(context.Context) error {
		dir := s.paths.ReportsPath()
		for _, w := range s.writers {
			if err := w.WriteReport(dir, report); err != nil {
				return err
			}
		}
		return nil
	})
}

// RunFromFiles loads the returns and events files, maps events onto the
// returns calendar and runs the analysis.
func (s *AnalysisService) RunFromFiles(ctx context.Context) (*Report, error) {
	in, err := s.LoadInput(ctx)
	if err != nil {
		s.metrics.RecordRun(ctx, 0, false)
		return nil, err
	}
	return s.Run(ctx, in)
}

// LoadInput reads the configured returns and events files
func (s *AnalysisService) LoadInput(ctx context.Context) (RunInput, error) {
	var in RunInput
	err := s.stage(ctx, StageLoad, func(ctx context.Context) error {
		returns, err := marketdata.LoadReturnsCSV(s.paths.ReturnsPath())
		if err != nil {
			return err
		}
		raw, err := events.LoadCSV(s.paths.EventsPath())
		if err != nil {
			return err
		}

		mapped, stats := events.MapToTradingDays(raw, returns.Calendar())
		s.logger.InfoContext(ctx, "events mapped to trading days",
			slog.Int("raw", len(raw)),
			slog.Int("mapped", len(mapped)),
			slog.Int("advanced", stats.Advanced),
			slog.Int("dropped", stats.Dropped),
			slog.Int("duplicates", stats.Duplicates))

		in = RunInput{Returns: returns, Events: mapped, Mapping: stats}
		return nil
	})
	return in, err
}

// Latest returns the most recent successful report
func (s *AnalysisService) Latest() (*Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

// RollingSnapshot returns, for every ticker and window, the trailing realized
// volatility on the last trading day of m.
func RollingSnapshot(m *marketdata.ReturnMatrix, windows []int, tradingDays int) []RollingVolRow {
	n := m.Len()
	if n == 0 {
		return nil
	}

	last := m.Calendar().Last()
	rows := make([]RollingVolRow, 0, len(m.Tickers())*len(windows))
	for _, ticker := range m.Tickers() {
		for _, w := range windows {
			if w > n {
				continue
			}
			series := volatility.Rolling(m.Window(ticker, n-w, n), w, tradingDays)
			rows = append(rows, RollingVolRow{
				Ticker: ticker,
				Window: w,
				Date:   last,
				Vol:    series[len(series)-1],
			})
		}
	}
	return rows
}
