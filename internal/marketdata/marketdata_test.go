package marketdata

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrostudy/internal/calendar"
	apperrors "macrostudy/internal/errors"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewReturnMatrix(t *testing.T) {
	cal := calendar.MustNew([]time.Time{day(2024, 1, 2), day(2024, 1, 3)})

	t.Run("valid", func(t *testing.T) {
		cols := map[string][]float64{"SPY": {math.NaN(), 0.01}, "TLT": {math.NaN(), -0.02}}
		m, err := NewReturnMatrix(cal, []string{"SPY", "TLT"}, cols)
		require.NoError(t, err)

		assert.Equal(t, 2, m.Len())
		assert.Equal(t, []string{"SPY", "TLT"}, m.Tickers())
		assert.Equal(t, -0.02, m.At(1, "TLT"))
		assert.True(t, math.IsNaN(m.At(0, "SPY")))
		assert.True(t, math.IsNaN(m.At(0, "GLD")))

		// input columns are copied
		cols["SPY"][1] = 99
		assert.Equal(t, 0.01, m.At(1, "SPY"))
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := NewReturnMatrix(cal, []string{"SPY"}, map[string][]float64{"SPY": {0.1}})
		assert.Error(t, err)
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := NewReturnMatrix(cal, []string{"SPY"}, map[string][]float64{})
		assert.Error(t, err)
	})

	t.Run("duplicate ticker", func(t *testing.T) {
		_, err := NewReturnMatrix(cal, []string{"SPY", "SPY"}, map[string][]float64{"SPY": {0, 0}})
		assert.Error(t, err)
	})
}

func TestReturnMatrixWindowAndSelect(t *testing.T) {
	cal := calendar.MustNew(calendar.BusinessDays(day(2024, 1, 1), day(2024, 1, 5)))
	m, err := NewReturnMatrix(cal, []string{"A", "B"}, map[string][]float64{
		"A": {1, 2, 3, 4, 5},
		"B": {10, 20, 30, 40, 50},
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{2, 3, 4}, m.Window("A", 1, 4))
	assert.Nil(t, m.Window("A", -1, 2))
	assert.Nil(t, m.Window("A", 3, 6))

	sel, err := m.Select([]string{"B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, sel.Tickers())
	assert.False(t, sel.HasTicker("A"))

	_, err = m.Select([]string{"C"})
	assert.Error(t, err)
}

func TestCleanPrices(t *testing.T) {
	nan := math.NaN()
	raw := &PriceTable{
		// Tue, Mon (dup), Mon, Sat, Thu: unsorted, duplicated, weekend row, gap on Wed
		Dates:   []time.Time{day(2024, 1, 2), day(2024, 1, 1), day(2024, 1, 1), day(2024, 1, 6), day(2024, 1, 4)},
		Tickers: []string{"SPY", "BTC"},
		Values: map[string][]float64{
			"SPY": {101, 100, 999, 103, 102},
			"BTC": {nan, nan, nan, 50, 40},
		},
	}

	clean, err := CleanPrices(raw)
	require.NoError(t, err)

	// Mon 1 .. Fri 5: weekend row dropped, range ends at the last business day
	assert.Equal(t, calendar.BusinessDays(day(2024, 1, 1), day(2024, 1, 5)), clean.Dates)
	assert.Equal(t, []float64{100, 101, 101, 102, 102}, clean.Values["SPY"])

	btc := clean.Values["BTC"]
	assert.True(t, math.IsNaN(btc[0]))
	assert.True(t, math.IsNaN(btc[1]))
	assert.True(t, math.IsNaN(btc[2]))
	assert.Equal(t, 40.0, btc[3])
	assert.Equal(t, 40.0, btc[4])
}

func TestLogReturns(t *testing.T) {
	prices := &PriceTable{
		Dates:   calendar.BusinessDays(day(2024, 1, 1), day(2024, 1, 3)),
		Tickers: []string{"SPY"},
		Values:  map[string][]float64{"SPY": {100, 110, 99}},
	}

	m, err := LogReturns(prices)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(m.At(0, "SPY")))
	assert.InDelta(t, math.Log(1.1), m.At(1, "SPY"), 1e-15)
	assert.InDelta(t, math.Log(0.9), m.At(2, "SPY"), 1e-15)

	t.Run("unclean dates rejected", func(t *testing.T) {
		bad := &PriceTable{
			Dates:   []time.Time{day(2024, 1, 2), day(2024, 1, 1)},
			Tickers: []string{"SPY"},
			Values:  map[string][]float64{"SPY": {1, 2}},
		}
		_, err := LogReturns(bad)
		assert.Error(t, err)
	})
}

func TestReadReturnsCSV(t *testing.T) {
	input := `Date,SPY,TLT
2024-01-01,,
2024-01-02,0.01,-0.005
2024-01-03 00:00:00,NaN,0.002
`
	m, err := ReadReturnsCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []string{"SPY", "TLT"}, m.Tickers())
	assert.True(t, math.IsNaN(m.At(0, "SPY")))
	assert.Equal(t, 0.01, m.At(1, "SPY"))
	assert.True(t, math.IsNaN(m.At(2, "SPY")))
	assert.Equal(t, 0.002, m.At(2, "TLT"))
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"header only date", "Date\n"},
		{"bad number", "Date,SPY\n2024-01-01,abc\n"},
		{"bad date", "Date,SPY\n01/02/2024,0.1\n"},
		{"ragged row", "Date,SPY,TLT\n2024-01-01,0.1\n"},
		{"duplicate ticker", "Date,SPY,SPY\n2024-01-01,0.1,0.2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPricesCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
		})
	}

	t.Run("unsorted returns index", func(t *testing.T) {
		_, err := ReadReturnsCSV(strings.NewReader("Date,SPY\n2024-01-02,0.1\n2024-01-01,0.2\n"))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	})
}

func TestReturnsCSVRoundTrip(t *testing.T) {
	cal := calendar.MustNew(calendar.BusinessDays(day(2024, 1, 1), day(2024, 1, 3)))
	m, err := NewReturnMatrix(cal, []string{"GLD"}, map[string][]float64{"GLD": {math.NaN(), 0.0125, -1e-7}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteReturnsCSV(&buf, m))
	assert.Equal(t, "Date,GLD\n2024-01-01,\n2024-01-02,0.0125\n2024-01-03,-1e-07\n", buf.String())

	path := filepath.Join(t.TempDir(), "nested", "returns.csv")
	require.NoError(t, SaveReturnsCSV(path, m))

	loaded, err := LoadReturnsCSV(path)
	require.NoError(t, err)
	assert.Equal(t, m.Tickers(), loaded.Tickers())
	assert.Equal(t, 0.0125, loaded.At(1, "GLD"))
	assert.True(t, math.IsNaN(loaded.At(0, "GLD")))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadReturnsCSV(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}
