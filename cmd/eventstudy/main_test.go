package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"macrostudy/internal/config"
	"macrostudy/internal/events"
	"macrostudy/internal/shared/testutil"
)

func writeInputs(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Paths.DataDir = dir
	cfg.Paths.ReportsDir = filepath.Join(dir, "reports")
	cfg.Analysis.Tickers = []string{"SPY"}
	cfg.Analysis.PreDays = 3
	cfg.Analysis.PostDays = 3
	cfg.Analysis.RollingWindows = []int{5}

	m := testutil.Returns(t, 20, []string{"SPY"}, func(_ string, i int) float64 {
		return 0.001 * float64(i%4-1)
	})
	testutil.WriteReturns(t, cfg.Paths.ReturnsPath(), m)

	cal := m.Calendar()
	testutil.WriteEvents(t, cfg.Paths.EventsPath(), []events.Event{
		{Date: cal.Date(8), Type: events.CPI},
		{Date: cal.Date(12), Type: events.FOMC},
	})
	return cfg
}

func TestRunPrintsTables(t *testing.T) {
	cfg := writeInputs(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, options{showPanel: true}, &out, logger))

	text := out.String()
	assert.Contains(t, text, "events 2")
	assert.Contains(t, text, "mean_max_drawdown")
	assert.Contains(t, text, "ewma_ratio")
	assert.Contains(t, text, "rolling_vol")
	assert.Contains(t, text, "CPI")
	assert.Contains(t, text, "FOMC")
}

func TestRunFiltersAndExports(t *testing.T) {
	cfg := writeInputs(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	csvDir := filepath.Join(t.TempDir(), "csv")
	xlsx := filepath.Join(t.TempDir(), "study.xlsx")

	var out bytes.Buffer
	opts := options{csvDir: csvDir, xlsxPath: xlsx, eventType: "fomc"}
	require.NoError(t, run(context.Background(), cfg, opts, &out, logger))

	for _, line := range strings.Split(out.String(), "\n") {
		assert.NotContains(t, line, "CPI ", "CPI rows are filtered out")
	}
	assert.Contains(t, out.String(), "FOMC")

	assert.FileExists(t, filepath.Join(csvDir, "event_panel.csv"))
	assert.FileExists(t, filepath.Join(csvDir, "volatility_summary.csv"))

	f, err := excelize.OpenFile(xlsx)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "event_panel")
}

func TestRunRejectsUnknownEventType(t *testing.T) {
	cfg := writeInputs(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	err := run(context.Background(), cfg, options{eventType: "GDP"}, io.Discard, logger)
	assert.Error(t, err)
}

func TestNum(t *testing.T) {
	assert.Equal(t, "NaN", num(math.NaN()))
	assert.Equal(t, "-0.012500", num(-0.0125))
}
