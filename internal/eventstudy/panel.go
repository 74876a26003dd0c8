package eventstudy

import (
	"sort"

	"macrostudy/internal/events"
	"macrostudy/internal/marketdata"
)

// BuildPanel emits one row per (event, ticker, offset) for every event whose
// whole window [i+Min, i+Max] lies inside the calendar. Rows are sorted by
// (event_date, ticker, t) with event type breaking ties.
func BuildPanel(m *marketdata.ReturnMatrix, evts []events.Event, w Window) ([]PanelRow, SkipStats, error) {
	var skips SkipStats
	if err := w.Validate(); err != nil {
		return nil, skips, err
	}

	cal := m.Calendar()
	tickers := m.Tickers()
	offsets := w.Offsets()
	rows := make([]PanelRow, 0, len(evts)*len(tickers)*len(offsets))

	for _, e := range evts {
		i, ok := cal.Position(e.Date)
		if !ok {
			skips.Unmapped++
			continue
		}
		if !cal.InBounds(i, w.Min, w.Max) {
			skips.OutOfBounds++
			continue
		}

		date := cal.Date(i)
		for _, ticker := range tickers {
			for _, k := range offsets {
				rows = append(rows, PanelRow{
					EventDate: date,
					EventType: e.Type,
					Ticker:    ticker,
					T:         k,
					Ret:       m.At(i+k, ticker),
				})
			}
		}
	}

	SortPanel(rows)
	return rows, skips, nil
}

// SortPanel sorts rows into canonical (event_date, ticker, t, event_type) order
func SortPanel(rows []PanelRow) {
	sort.SliceStable(rows, func(a, b int) bool {
		ra, rb := rows[a], rows[b]
		if !ra.EventDate.Equal(rb.EventDate) {
			return ra.EventDate.Before(rb.EventDate)
		}
		if ra.Ticker != rb.Ticker {
			return ra.Ticker < rb.Ticker
		}
		if ra.T != rb.T {
			return ra.T < rb.T
		}
		return ra.EventType < rb.EventType
	})
}
