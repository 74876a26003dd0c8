package main

import (
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "macrostudy/internal/errors"
	"macrostudy/internal/marketdata"
)

func TestPrepare(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "prices.csv")
	out := filepath.Join(dir, "returns.csv")

	prices := "Date,SPY\n2024-01-03,110\n2024-01-01,100\n"
	require.NoError(t, os.WriteFile(in, []byte(prices), 0644))

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	require.NoError(t, prepare(in, out, logger))

	m, err := marketdata.LoadReturnsCSV(out)
	require.NoError(t, err)
	require.Equal(t, 3, m.Len())

	spy := m.Series("SPY")
	assert.True(t, math.IsNaN(spy[0]))
	assert.Equal(t, 0.0, spy[1], "the gap day is forward filled")
	assert.InDelta(t, math.Log(1.1), spy[2], 1e-12)
}

func TestPrepareErrors(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	err := prepare(filepath.Join(dir, "missing.csv"), filepath.Join(dir, "out.csv"), logger)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, []byte("Date,SPY\n"), 0644))
	assert.Error(t, prepare(empty, filepath.Join(dir, "out.csv"), logger))
	assert.NoFileExists(t, filepath.Join(dir, "out.csv"))
}
