package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"macrostudy/internal/calendar"
	"macrostudy/internal/events"
	"macrostudy/internal/marketdata"
)

// FixtureStart is the first business day of every fixture calendar
var FixtureStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// BusinessCalendar returns the first n business days from FixtureStart
func BusinessCalendar(t *testing.T, n int) *calendar.Calendar {
	t.Helper()
	days := calendar.BusinessDays(FixtureStart, FixtureStart.AddDate(0, 0, 2*n+7))
	require.GreaterOrEqual(t, len(days), n)
	return calendar.MustNew(days[:n])
}

// Returns builds an n-day return matrix where gen(ticker, i) gives the
// return of ticker on day i.
func Returns(t *testing.T, n int, tickers []string, gen func(ticker string, i int) float64) *marketdata.ReturnMatrix {
	t.Helper()
	cols := make(map[string][]float64, len(tickers))
	for _, tk := range tickers {
		col := make([]float64, n)
		for i := range col {
			col[i] = gen(tk, i)
		}
		cols[tk] = col
	}

	m, err := marketdata.NewReturnMatrix(BusinessCalendar(t, n), tickers, cols)
	require.NoError(t, err)
	return m
}

// WriteReturns saves m as a returns CSV at path
func WriteReturns(t *testing.T, path string, m *marketdata.ReturnMatrix) {
	t.Helper()
	require.NoError(t, marketdata.SaveReturnsCSV(path, m))
}

// WriteEvents saves evts as an events CSV at path
func WriteEvents(t *testing.T, path string, evts []events.Event) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, events.WriteCSV(f, evts))
}
