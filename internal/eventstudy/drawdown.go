package eventstudy

import (
	"math"
	"sort"
	"time"

	"macrostudy/internal/events"
)

// MaxDrawdown returns the most negative peak-to-trough decline of the wealth
// path implied by chronological log returns. The path starts at the first
// observation, so a loss on the first day is not a drawdown. NaN returns are
// skipped; a window with no valid return yields NaN.
func MaxDrawdown(logReturns []float64) float64 {
	wealth := 1.0
	peak := math.NaN()
	worst := math.NaN()

	for _, r := range logReturns {
		if math.IsNaN(r) {
			continue
		}
		wealth *= 1 + (math.Exp(r) - 1)
		if math.IsNaN(peak) || wealth > peak {
			peak = wealth
		}
		dd := wealth/peak - 1
		if math.IsNaN(worst) || dd < worst {
			worst = dd
		}
	}
	return worst
}

type eventTickerKey struct {
	date   time.Time
	typ    events.EventType
	ticker string
}

// ComputeDrawdowns reduces every (event_date, event_type, ticker) group of the
// panel to its maximum drawdown, ordered by offset within the group. Records
// are sorted by (event_date, event_type, ticker).
func ComputeDrawdowns(panel []PanelRow) []DrawdownRecord {
	groups := make(map[eventTickerKey][]PanelRow)
	for _, row := range panel {
		k := eventTickerKey{date: row.EventDate, typ: row.EventType, ticker: row.Ticker}
		groups[k] = append(groups[k], row)
	}

	out := make([]DrawdownRecord, 0, len(groups))
	for k, rows := range groups {
		sort.SliceStable(rows, func(a, b int) bool { return rows[a].T < rows[b].T })

		rets := make([]float64, len(rows))
		for i, r := range rows {
			rets[i] = r.Ret
		}
		out = append(out, DrawdownRecord{
			EventDate:   k.date,
			EventType:   k.typ,
			Ticker:      k.ticker,
			MaxDrawdown: MaxDrawdown(rets),
		})
	}

	sort.Slice(out, func(a, b int) bool {
		ra, rb := out[a], out[b]
		if !ra.EventDate.Equal(rb.EventDate) {
			return ra.EventDate.Before(rb.EventDate)
		}
		if ra.EventType != rb.EventType {
			return ra.EventType < rb.EventType
		}
		return ra.Ticker < rb.Ticker
	})
	return out
}
