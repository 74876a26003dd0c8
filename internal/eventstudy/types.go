package eventstudy

import (
	"fmt"
	"time"

	"macrostudy/internal/events"
)

// Window is an inclusive range of trading-day offsets around an event
type Window struct {
	Min int `json:"t_min" yaml:"t_min"`
	Max int `json:"t_max" yaml:"t_max"`
}

// DefaultWindow covers three trading days either side of the event
var DefaultWindow = Window{Min: -3, Max: 3}

// Validate checks Min <= 0 <= Max
func (w Window) Validate() error {
	if w.Min > 0 || w.Max < 0 {
		return fmt.Errorf("window [%d, %d] must contain offset 0", w.Min, w.Max)
	}
	return nil
}

// Offsets returns every offset from Min to Max inclusive
func (w Window) Offsets() []int {
	out := make([]int, 0, w.Max-w.Min+1)
	for k := w.Min; k <= w.Max; k++ {
		out = append(out, k)
	}
	return out
}

// Size returns the number of offsets in the window
func (w Window) Size() int {
	return w.Max - w.Min + 1
}

// String renders the window as "[-3,+3]"
func (w Window) String() string {
	return fmt.Sprintf("[%d,%+d]", w.Min, w.Max)
}

// GroupKey is the aggregation key of every summary table
type GroupKey struct {
	EventType events.EventType `json:"event_type"`
	Ticker    string           `json:"ticker"`
}

func (k GroupKey) less(o GroupKey) bool {
	if k.EventType != o.EventType {
		return k.EventType < o.EventType
	}
	return k.Ticker < o.Ticker
}

// PanelRow is the return of one ticker at offset T from one event
type PanelRow struct {
	EventDate time.Time        `json:"event_date"`
	EventType events.EventType `json:"event_type"`
	Ticker    string           `json:"ticker"`
	T         int              `json:"t"`
	Ret       float64          `json:"ret"`
}

// DrawdownRecord is the maximum drawdown of one (event, ticker) window. It is
// zero or negative.
type DrawdownRecord struct {
	EventDate   time.Time        `json:"event_date"`
	EventType   events.EventType `json:"event_type"`
	Ticker      string           `json:"ticker"`
	MaxDrawdown float64          `json:"max_drawdown"`
}

// VolShiftRecord compares annualized volatility before and after one event
// for one ticker.
type VolShiftRecord struct {
	EventDate  time.Time        `json:"event_date"`
	EventType  events.EventType `json:"event_type"`
	Ticker     string           `json:"ticker"`
	VolPre     float64          `json:"vol_pre"`
	VolPost    float64          `json:"vol_post"`
	VolChange  float64          `json:"vol_change"`
	VolRatio   float64          `json:"vol_ratio"`
	EWMAPre    float64          `json:"ewma_pre"`
	EWMAPost   float64          `json:"ewma_post"`
	EWMAChange float64          `json:"ewma_change"`
	EWMARatio  float64          `json:"ewma_ratio"`
}

// PanelSummaryRow aggregates the panel for one group
type PanelSummaryRow struct {
	GroupKey
	MeanRetT0 float64 `json:"mean_ret_t0"`
	CumRet1   float64 `json:"cum_ret_-1_+1"`
	CumRet3   float64 `json:"cum_ret_-3_+3"`
}

// DrawdownSummaryRow aggregates drawdowns for one group
type DrawdownSummaryRow struct {
	GroupKey
	MeanMaxDrawdown float64 `json:"mean_max_drawdown"`
}

// SummaryRow is a panel summary row left-joined with its drawdown summary.
// MeanMaxDrawdown is NaN when the group has no drawdown data.
type SummaryRow struct {
	GroupKey
	MeanRetT0       float64 `json:"mean_ret_t0"`
	CumRet1         float64 `json:"cum_ret_-1_+1"`
	CumRet3         float64 `json:"cum_ret_-3_+3"`
	MeanMaxDrawdown float64 `json:"mean_max_drawdown"`
}

// VolShiftSummaryRow holds the per-column means of the volatility shift table
// for one group.
type VolShiftSummaryRow struct {
	GroupKey
	MeanVolPre     float64 `json:"mean_vol_pre"`
	MeanVolPost    float64 `json:"mean_vol_post"`
	MeanVolChange  float64 `json:"mean_vol_change"`
	MeanVolRatio   float64 `json:"mean_vol_ratio"`
	MeanEWMAPre    float64 `json:"mean_ewma_pre"`
	MeanEWMAPost   float64 `json:"mean_ewma_post"`
	MeanEWMAChange float64 `json:"mean_ewma_change"`
	MeanEWMARatio  float64 `json:"mean_ewma_ratio"`
}

// SkipStats counts the events and pairs left out of a table
type SkipStats struct {
	// Events whose date is not a trading day
	Unmapped int `json:"unmapped"`
	// Events whose window or history crosses a calendar edge
	OutOfBounds int `json:"out_of_bounds"`
	// (event, ticker) pairs with fewer than two valid returns in a window
	Insufficient int `json:"insufficient"`
	// (event, ticker) pairs with zero pre-event volatility
	ZeroPreVol int `json:"zero_pre_vol"`
}

// Events returns the number of skipped events
func (s SkipStats) Events() int {
	return s.Unmapped + s.OutOfBounds
}

// Pairs returns the number of dropped (event, ticker) pairs
func (s SkipStats) Pairs() int {
	return s.Insufficient + s.ZeroPreVol
}

// Result bundles every table produced by one analysis run
type Result struct {
	Panel           []PanelRow           `json:"panel"`
	PanelSummary    []PanelSummaryRow    `json:"panel_summary"`
	Drawdowns       []DrawdownRecord     `json:"drawdowns"`
	DrawdownSummary []DrawdownSummaryRow `json:"drawdown_summary"`
	Summary         []SummaryRow         `json:"summary"`
	VolShift        []VolShiftRecord     `json:"volatility_shift"`
	VolSummary      []VolShiftSummaryRow `json:"volatility_summary"`
	PanelSkips      SkipStats            `json:"panel_skips"`
	ShiftSkips      SkipStats            `json:"shift_skips"`
}
