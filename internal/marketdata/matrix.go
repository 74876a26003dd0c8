package marketdata

import (
	"fmt"
	"math"

	"macrostudy/internal/calendar"
)

// ReturnMatrix is a trading-day indexed table of per-ticker log returns. Its
// calendar is the authoritative trading calendar for offset arithmetic. A NaN
// entry marks a missing return (typically the first row of each series).
type ReturnMatrix struct {
	cal     *calendar.Calendar
	tickers []string
	values  map[string][]float64
}

// NewReturnMatrix builds a matrix over cal. Every ticker must have a column of
// exactly cal.Len() values; columns are copied.
func NewReturnMatrix(cal *calendar.Calendar, tickers []string, columns map[string][]float64) (*ReturnMatrix, error) {
	if cal == nil {
		return nil, fmt.Errorf("nil calendar")
	}

	m := &ReturnMatrix{
		cal:     cal,
		tickers: make([]string, 0, len(tickers)),
		values:  make(map[string][]float64, len(tickers)),
	}

	for _, t := range tickers {
		if _, dup := m.values[t]; dup {
			return nil, fmt.Errorf("duplicate ticker %q", t)
		}
		col, ok := columns[t]
		if !ok {
			return nil, fmt.Errorf("missing column for ticker %q", t)
		}
		if len(col) != cal.Len() {
			return nil, fmt.Errorf("ticker %q has %d values for %d trading days", t, len(col), cal.Len())
		}
		m.tickers = append(m.tickers, t)
		m.values[t] = append([]float64(nil), col...)
	}

	return m, nil
}

// Calendar returns the trading calendar
func (m *ReturnMatrix) Calendar() *calendar.Calendar {
	return m.cal
}

// Len returns the number of trading days
func (m *ReturnMatrix) Len() int {
	return m.cal.Len()
}

// Tickers returns the tickers in column order
func (m *ReturnMatrix) Tickers() []string {
	return append([]string(nil), m.tickers...)
}

// HasTicker reports whether the matrix has a column for ticker
func (m *ReturnMatrix) HasTicker(ticker string) bool {
	_, ok := m.values[ticker]
	return ok
}

// At returns the return of ticker at position i, NaN for an unknown ticker
func (m *ReturnMatrix) At(i int, ticker string) float64 {
	col, ok := m.values[ticker]
	if !ok {
		return math.NaN()
	}
	return col[i]
}

// Series returns a copy of the full return series of ticker
func (m *ReturnMatrix) Series(ticker string) []float64 {
	return append([]float64(nil), m.values[ticker]...)
}

// Window returns a chronological copy of ticker's returns over positions [from, to)
func (m *ReturnMatrix) Window(ticker string, from, to int) []float64 {
	col := m.values[ticker]
	if from < 0 || to > len(col) || from > to {
		return nil
	}
	return append([]float64(nil), col[from:to]...)
}

// Select returns a matrix restricted to tickers, in the given order
func (m *ReturnMatrix) Select(tickers []string) (*ReturnMatrix, error) {
	return NewReturnMatrix(m.cal, tickers, m.values)
}
