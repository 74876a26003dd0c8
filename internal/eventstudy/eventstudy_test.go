package eventstudy

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrostudy/internal/calendar"
	"macrostudy/internal/events"
	"macrostudy/internal/marketdata"
	"macrostudy/internal/volatility"
)

// tradingDays returns n consecutive business days starting Monday 2024-01-01
func tradingDays(n int) []time.Time {
	days := make([]time.Time, 0, n)
	for d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); len(days) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}

func newMatrix(t *testing.T, n int, columns map[string][]float64, tickers ...string) *marketdata.ReturnMatrix {
	t.Helper()
	m, err := marketdata.NewReturnMatrix(calendar.MustNew(tradingDays(n)), tickers, columns)
	require.NoError(t, err)
	return m
}

func eventAt(m *marketdata.ReturnMatrix, i int, typ events.EventType) events.Event {
	return events.Event{Date: m.Calendar().Date(i), Type: typ}
}

func seq(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func TestWindow(t *testing.T) {
	assert.NoError(t, DefaultWindow.Validate())
	assert.NoError(t, Window{Min: 0, Max: 0}.Validate())
	assert.Error(t, Window{Min: 1, Max: 3}.Validate())
	assert.Error(t, Window{Min: -3, Max: -1}.Validate())

	assert.Equal(t, []int{-3, -2, -1, 0, 1, 2, 3}, DefaultWindow.Offsets())
	assert.Equal(t, 7, DefaultWindow.Size())
	assert.Equal(t, "[-3,+3]", DefaultWindow.String())
}

func TestBuildPanelBoundaryExclusion(t *testing.T) {
	const n = 10
	m := newMatrix(t, n, map[string][]float64{"SPY": seq(n, func(i int) float64 { return float64(i) })}, "SPY")
	w := Window{Min: -3, Max: 3}

	for i := 0; i < n; i++ {
		panel, skips, err := BuildPanel(m, []events.Event{eventAt(m, i, events.CPI)}, w)
		require.NoError(t, err)

		fits := i+w.Min >= 0 && i+w.Max <= n-1
		if fits {
			assert.Len(t, panel, w.Size(), "event at %d", i)
			assert.Equal(t, 0, skips.OutOfBounds)
		} else {
			assert.Empty(t, panel, "event at %d", i)
			assert.Equal(t, 1, skips.OutOfBounds)
		}
	}
}

func TestBuildPanelRows(t *testing.T) {
	const n = 10
	m := newMatrix(t, n, map[string][]float64{
		"TLT": seq(n, func(i int) float64 { return -float64(i) / 100 }),
		"SPY": seq(n, func(i int) float64 { return float64(i) / 100 }),
	}, "TLT", "SPY")

	evts := []events.Event{
		eventAt(m, 5, events.FOMC),
		{Date: time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), Type: events.CPI}, // Saturday, not a trading day
	}

	panel, skips, err := BuildPanel(m, evts, Window{Min: -1, Max: 1})
	require.NoError(t, err)
	assert.Equal(t, SkipStats{Unmapped: 1}, skips)
	require.Len(t, panel, 6)

	// canonical order: ticker then offset
	assert.Equal(t, PanelRow{EventDate: m.Calendar().Date(5), EventType: events.FOMC, Ticker: "SPY", T: -1, Ret: 0.04}, panel[0])
	assert.Equal(t, "SPY", panel[2].Ticker)
	assert.Equal(t, 1, panel[2].T)
	assert.Equal(t, 0.06, panel[2].Ret)
	assert.Equal(t, "TLT", panel[3].Ticker)
	assert.Equal(t, -0.05, panel[4].Ret)

	_, _, err = BuildPanel(m, evts, Window{Min: 1, Max: 2})
	assert.Error(t, err)
}

func TestMaxDrawdown(t *testing.T) {
	nan := math.NaN()

	tests := []struct {
		name string
		rets []float64
		want float64
	}{
		{"strictly increasing", []float64{0.01, 0.02, 0.005, 0.03}, 0},
		{"single down move", []float64{0, -0.1, 0.05}, math.Exp(-0.1) - 1},
		{"first day loss is not a drawdown", []float64{-0.2, 0.1}, 0},
		{"recovery then deeper trough", []float64{0.1, -0.05, 0.1, -0.2}, math.Exp(-0.2) - 1},
		{"nan skipped", []float64{nan, 0, -0.1, nan}, math.Exp(-0.1) - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDrawdown(tt.rets)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.LessOrEqual(t, got, 0.0)
		})
	}

	assert.Equal(t, 0.0, MaxDrawdown([]float64{0.01, 0.02, 0.03}))
	assert.True(t, math.IsNaN(MaxDrawdown(nil)))
	assert.True(t, math.IsNaN(MaxDrawdown([]float64{nan, nan})))
}

func TestComputeDrawdowns(t *testing.T) {
	d := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	// rows deliberately out of offset order
	panel := []PanelRow{
		{EventDate: d, EventType: events.CPI, Ticker: "SPY", T: 1, Ret: 0.05},
		{EventDate: d, EventType: events.CPI, Ticker: "SPY", T: -1, Ret: 0},
		{EventDate: d, EventType: events.CPI, Ticker: "SPY", T: 0, Ret: -0.1},
		{EventDate: d, EventType: events.FOMC, Ticker: "SPY", T: 0, Ret: 0.01},
		{EventDate: d, EventType: events.FOMC, Ticker: "SPY", T: 1, Ret: 0.01},
	}

	dd := ComputeDrawdowns(panel)
	require.Len(t, dd, 2)
	assert.Equal(t, events.CPI, dd[0].EventType)
	assert.InDelta(t, math.Exp(-0.1)-1, dd[0].MaxDrawdown, 1e-12)
	assert.Equal(t, events.FOMC, dd[1].EventType)
	assert.Equal(t, 0.0, dd[1].MaxDrawdown)
}

func TestComputeVolShiftWindows(t *testing.T) {
	const n = 41
	// event day carries a huge return that must not leak into either window
	spy := seq(n, func(i int) float64 { return 0.001 * float64((i*7)%5-2) })
	spy[20] = 5
	m := newMatrix(t, n, map[string][]float64{"SPY": spy}, "SPY")

	p := DefaultShiftParams()
	evts := []events.Event{
		eventAt(m, 19, events.CPI),  // 19-20 < 0
		eventAt(m, 20, events.CPI),
		eventAt(m, 21, events.FOMC), // 21+20 > 40
	}

	shifts, skips, err := ComputeVolShift(m, evts, p)
	require.NoError(t, err)
	assert.Equal(t, 2, skips.OutOfBounds)
	require.Len(t, shifts, 1)

	pre := spy[0:20]
	post := spy[21:41]
	wantPre := volatility.RealizedVol(pre, p.TradingDays, p.DDOF)
	wantPost := volatility.RealizedVol(post, p.TradingDays, p.DDOF)
	wantEWMAPre, err := volatility.EWMAVol(pre, p.Lambda, p.TradingDays)
	require.NoError(t, err)
	wantEWMAPost, err := volatility.EWMAVol(post, p.Lambda, p.TradingDays)
	require.NoError(t, err)

	rec := shifts[0]
	assert.Equal(t, m.Calendar().Date(20), rec.EventDate)
	assert.Equal(t, wantPre, rec.VolPre)
	assert.Equal(t, wantPost, rec.VolPost)
	assert.Equal(t, wantPost-wantPre, rec.VolChange)
	assert.Equal(t, wantPost/wantPre, rec.VolRatio)
	assert.Equal(t, wantEWMAPre, rec.EWMAPre)
	assert.Equal(t, wantEWMAPost, rec.EWMAPost)
	assert.Equal(t, wantEWMAPost-wantEWMAPre, rec.EWMAChange)
	assert.Equal(t, wantEWMAPost/wantEWMAPre, rec.EWMARatio)
	assert.Less(t, rec.VolPost, 1.0, "event-day return leaked into the post window")
}

func TestComputeVolShiftDrops(t *testing.T) {
	const n = 41
	// flat before the event, active after it
	flat := seq(n, func(i int) float64 {
		if i <= 20 {
			return 0
		}
		return 0.01 * float64(i%3-1)
	})
	missing := seq(n, func(i int) float64 {
		if i < 20 {
			return math.NaN()
		}
		return 0.01
	})
	// valid before the event, a single valid observation after it
	halted := seq(n, func(i int) float64 {
		switch {
		case i < 20:
			return 0.01 * float64(i%3-1)
		case i == 30:
			return 0.02
		default:
			return math.NaN()
		}
	})
	active := seq(n, func(i int) float64 { return 0.01 * float64(i%4-1) })

	m := newMatrix(t, n,
		map[string][]float64{"FLAT": flat, "MISS": missing, "HALT": halted, "ACT": active},
		"FLAT", "MISS", "HALT", "ACT")

	shifts, skips, err := ComputeVolShift(m, []events.Event{eventAt(m, 20, events.FOMC)}, DefaultShiftParams())
	require.NoError(t, err)

	assert.Equal(t, SkipStats{ZeroPreVol: 1, Insufficient: 2}, skips)
	assert.Equal(t, 3, skips.Pairs())
	require.Len(t, shifts, 1)
	assert.Equal(t, "ACT", shifts[0].Ticker)
}

func TestShiftRecordInsufficientPost(t *testing.T) {
	pre := seq(20, func(i int) float64 { return 0.01 * float64(i%3-1) })
	post := seq(20, func(i int) float64 { return math.NaN() })
	post[4] = 0.02

	rec, outcome, err := shiftRecord(pre, post, DefaultShiftParams())
	require.NoError(t, err)
	assert.Equal(t, dropInsufficient, outcome)
	assert.Greater(t, rec.VolPre, 0.0)
	assert.True(t, math.IsNaN(rec.VolPost))
}

func TestComputeVolShiftInvalidParams(t *testing.T) {
	m := newMatrix(t, 5, map[string][]float64{"SPY": make([]float64, 5)}, "SPY")

	p := DefaultShiftParams()
	p.Lambda = 1
	_, _, err := ComputeVolShift(m, nil, p)
	require.Error(t, err)
	assert.ErrorIs(t, err, volatility.ErrInvalidParameter)

	p = DefaultShiftParams()
	p.PreDays = 0
	_, _, err = ComputeVolShift(m, nil, p)
	assert.Error(t, err)
}

func TestSummarizePanel(t *testing.T) {
	d1 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC)

	var panel []PanelRow
	for _, d := range []time.Time{d1, d2} {
		for _, k := range DefaultWindow.Offsets() {
			ret := 0.01 * float64(k)
			if d.Equal(d2) {
				ret = 0.02
			}
			panel = append(panel, PanelRow{EventDate: d, EventType: events.CPI, Ticker: "SPY", T: k, Ret: ret})
		}
	}
	panel = append(panel, PanelRow{EventDate: d1, EventType: events.FOMC, Ticker: "GLD", T: 0, Ret: math.NaN()})

	summary := SummarizePanel(panel)
	require.Len(t, summary, 2)

	// CPI sorts before FOMC
	spy := summary[0]
	assert.Equal(t, GroupKey{EventType: events.CPI, Ticker: "SPY"}, spy.GroupKey)
	assert.InDelta(t, 0.01, spy.MeanRetT0, 1e-15)
	// event 1 contributes -0.01+0+0.01, event 2 contributes 3*0.02
	assert.InDelta(t, 0.06, spy.CumRet1, 1e-15)
	// event 1 sums to 0 over [-3,+3], event 2 contributes 7*0.02
	assert.InDelta(t, 0.14, spy.CumRet3, 1e-15)

	gld := summary[1]
	assert.True(t, math.IsNaN(gld.MeanRetT0))
	assert.Equal(t, 0.0, gld.CumRet1)
}

func TestSummarizeVolShifts(t *testing.T) {
	rows := []VolShiftRecord{
		{EventType: events.CPI, Ticker: "SPY", VolPre: 0.1, VolPost: 0.2, VolChange: 0.1, VolRatio: 2, EWMAPre: 0.1, EWMAPost: 0.3, EWMAChange: 0.2, EWMARatio: 3},
		{EventType: events.CPI, Ticker: "SPY", VolPre: 0.3, VolPost: 0.2, VolChange: -0.1, VolRatio: 2.0 / 3, EWMAPre: 0, EWMAPost: 0.1, EWMAChange: 0.1, EWMARatio: math.NaN()},
		{EventType: events.FOMC, Ticker: "SPY", VolPre: 0.2, VolPost: 0.2, VolRatio: 1, EWMAPre: 0.2, EWMAPost: 0.2, EWMARatio: 1},
	}

	summary := SummarizeVolShifts(rows)
	require.Len(t, summary, 2)

	cpi := summary[0]
	assert.Equal(t, events.CPI, cpi.EventType)
	assert.InDelta(t, 0.2, cpi.MeanVolPre, 1e-15)
	assert.InDelta(t, 0.2, cpi.MeanVolPost, 1e-15)
	assert.InDelta(t, 0.0, cpi.MeanVolChange, 1e-15)
	assert.InDelta(t, 4.0/3, cpi.MeanVolRatio, 1e-15)
	assert.InDelta(t, 0.05, cpi.MeanEWMAPre, 1e-15)
	assert.InDelta(t, 0.15, cpi.MeanEWMAChange, 1e-15)
	// NaN ratio ignored by its own column only
	assert.InDelta(t, 3.0, cpi.MeanEWMARatio, 1e-15)

	assert.Equal(t, 1.0, summary[1].MeanEWMARatio)
}

func TestMergeSummaries(t *testing.T) {
	panel := []PanelSummaryRow{
		{GroupKey: GroupKey{EventType: events.CPI, Ticker: "SPY"}, MeanRetT0: 0.01},
		{GroupKey: GroupKey{EventType: events.FOMC, Ticker: "SPY"}, MeanRetT0: 0.02},
	}
	dd := []DrawdownSummaryRow{
		{GroupKey: GroupKey{EventType: events.CPI, Ticker: "SPY"}, MeanMaxDrawdown: -0.03},
		{GroupKey: GroupKey{EventType: events.CPI, Ticker: "QQQ"}, MeanMaxDrawdown: -0.04},
	}

	merged := MergeSummaries(panel, dd)
	require.Len(t, merged, 2)
	assert.Equal(t, -0.03, merged[0].MeanMaxDrawdown)
	assert.Equal(t, 0.02, merged[1].MeanRetT0)
	assert.True(t, math.IsNaN(merged[1].MeanMaxDrawdown))
}

func TestAnalyzeEndToEnd(t *testing.T) {
	const n = 10
	spy := seq(n, func(i int) float64 { return 0.001 * float64(i+1) })
	tlt := seq(n, func(i int) float64 { return -0.002 * float64(i%3) })
	m := newMatrix(t, n, map[string][]float64{"SPY": spy, "TLT": tlt}, "SPY", "TLT")

	evts := []events.Event{eventAt(m, 5, events.CPI)}

	p := DefaultParams()
	p.Shift.PreDays = 3
	p.Shift.PostDays = 3

	res, err := Analyze(m, evts, p)
	require.NoError(t, err)

	assert.Len(t, res.Panel, 2*7)
	require.Len(t, res.Summary, 2)
	for _, row := range res.Summary {
		col := spy
		if row.Ticker == "TLT" {
			col = tlt
		}
		assert.Equal(t, col[5], row.MeanRetT0, row.Ticker)
		assert.Equal(t, events.CPI, row.EventType)
		assert.False(t, math.IsNaN(row.MeanMaxDrawdown))
	}

	assert.Len(t, res.Drawdowns, 2)
	assert.Equal(t, 0.0, res.Drawdowns[0].MaxDrawdown, "SPY returns are all positive")
	assert.Len(t, res.VolShift, 2)
	assert.Len(t, res.VolSummary, 2)
	assert.Equal(t, SkipStats{}, res.PanelSkips)
	assert.Equal(t, SkipStats{}, res.ShiftSkips)

	// inputs untouched and output reproducible
	again, err := Analyze(m, evts, p)
	require.NoError(t, err)
	assert.Equal(t, res.Panel, again.Panel)
	assert.Equal(t, 0.001*6, m.At(5, "SPY"))
}

func TestGroupCountNeverExceedsDistinctPairs(t *testing.T) {
	const n = 30
	cols := map[string][]float64{
		"SPY": seq(n, func(i int) float64 { return 0.001 * float64(i%5-2) }),
		"QQQ": seq(n, func(i int) float64 { return 0.002 * float64(i%7-3) }),
		"GLD": seq(n, func(i int) float64 { return 0.001 * float64(i%3-1) }),
	}
	m := newMatrix(t, n, cols, "SPY", "QQQ", "GLD")

	evts := []events.Event{
		eventAt(m, 5, events.CPI),
		eventAt(m, 12, events.CPI),
		eventAt(m, 12, events.FOMC),
		eventAt(m, 20, events.FOMC),
		eventAt(m, 1, events.FOMC), // out of bounds for the panel
	}

	panel, _, err := BuildPanel(m, evts, DefaultWindow)
	require.NoError(t, err)

	distinct := make(map[GroupKey]struct{})
	for _, r := range panel {
		distinct[GroupKey{EventType: r.EventType, Ticker: r.Ticker}] = struct{}{}
	}

	summary := SummarizePanel(panel)
	assert.Len(t, summary, len(distinct))
	for _, s := range summary {
		_, ok := distinct[s.GroupKey]
		assert.True(t, ok)
	}

	dd := SummarizeDrawdowns(ComputeDrawdowns(panel))
	assert.Len(t, dd, len(distinct))
}

func TestNaNAggregates(t *testing.T) {
	nan := math.NaN()

	assert.InDelta(t, 0.3, nanSum([]float64{0.1, nan, 0.2}), 1e-12)
	assert.Equal(t, 0.0, nanSum([]float64{nan, nan}), "all-NaN sums to zero")
	assert.Equal(t, 0.0, nanSum(nil))

	assert.InDelta(t, 0.15, nanMean([]float64{0.1, nan, 0.2}), 1e-12)
	assert.True(t, math.IsNaN(nanMean([]float64{nan})), "all-NaN mean is NaN")
}
