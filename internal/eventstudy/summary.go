package eventstudy

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"macrostudy/internal/volatility"
)

// Offset ranges of the cumulative return columns of the panel summary
var (
	CumWindow1 = Window{Min: -1, Max: 1}
	CumWindow3 = Window{Min: -3, Max: 3}
)

type groupAcc struct {
	t0   []float64
	cum1 []float64
	cum3 []float64
}

// SummarizePanel groups the panel by (event_type, ticker) and computes the
// mean return at t=0 and the summed returns over [-1,+1] and [-3,+3]. NaN
// returns are ignored; a sum with no valid return is 0 and a mean is NaN.
func SummarizePanel(panel []PanelRow) []PanelSummaryRow {
	groups := make(map[GroupKey]*groupAcc)
	for _, row := range panel {
		k := GroupKey{EventType: row.EventType, Ticker: row.Ticker}
		acc, ok := groups[k]
		if !ok {
			acc = &groupAcc{}
			groups[k] = acc
		}
		if row.T == 0 {
			acc.t0 = append(acc.t0, row.Ret)
		}
		if row.T >= CumWindow1.Min && row.T <= CumWindow1.Max {
			acc.cum1 = append(acc.cum1, row.Ret)
		}
		if row.T >= CumWindow3.Min && row.T <= CumWindow3.Max {
			acc.cum3 = append(acc.cum3, row.Ret)
		}
	}

	out := make([]PanelSummaryRow, 0, len(groups))
	for k, acc := range groups {
		out = append(out, PanelSummaryRow{
			GroupKey:  k,
			MeanRetT0: nanMean(acc.t0),
			CumRet1:   nanSum(acc.cum1),
			CumRet3:   nanSum(acc.cum3),
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].GroupKey.less(out[b].GroupKey) })
	return out
}

// SummarizeDrawdowns averages max drawdown per (event_type, ticker)
func SummarizeDrawdowns(drawdowns []DrawdownRecord) []DrawdownSummaryRow {
	groups := make(map[GroupKey][]float64)
	for _, d := range drawdowns {
		k := GroupKey{EventType: d.EventType, Ticker: d.Ticker}
		groups[k] = append(groups[k], d.MaxDrawdown)
	}

	out := make([]DrawdownSummaryRow, 0, len(groups))
	for k, values := range groups {
		out = append(out, DrawdownSummaryRow{GroupKey: k, MeanMaxDrawdown: nanMean(values)})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].GroupKey.less(out[b].GroupKey) })
	return out
}

// SummarizeVolShifts averages each volatility shift column per
// (event_type, ticker). Each column ignores its own NaNs.
func SummarizeVolShifts(shifts []VolShiftRecord) []VolShiftSummaryRow {
	groups := make(map[GroupKey][][8]float64)
	for _, s := range shifts {
		k := GroupKey{EventType: s.EventType, Ticker: s.Ticker}
		groups[k] = append(groups[k], [8]float64{
			s.VolPre, s.VolPost, s.VolChange, s.VolRatio,
			s.EWMAPre, s.EWMAPost, s.EWMAChange, s.EWMARatio,
		})
	}

	out := make([]VolShiftSummaryRow, 0, len(groups))
	for k, rows := range groups {
		var means [8]float64
		col := make([]float64, len(rows))
		for c := range means {
			for r := range rows {
				col[r] = rows[r][c]
			}
			means[c] = nanMean(col)
		}
		out = append(out, VolShiftSummaryRow{
			GroupKey:       k,
			MeanVolPre:     means[0],
			MeanVolPost:    means[1],
			MeanVolChange:  means[2],
			MeanVolRatio:   means[3],
			MeanEWMAPre:    means[4],
			MeanEWMAPost:   means[5],
			MeanEWMAChange: means[6],
			MeanEWMARatio:  means[7],
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].GroupKey.less(out[b].GroupKey) })
	return out
}

// MergeSummaries left-joins drawdown summaries onto panel summaries by group.
// Groups without drawdown data get a NaN MeanMaxDrawdown.
func MergeSummaries(panel []PanelSummaryRow, drawdowns []DrawdownSummaryRow) []SummaryRow {
	dd := make(map[GroupKey]float64, len(drawdowns))
	for _, d := range drawdowns {
		dd[d.GroupKey] = d.MeanMaxDrawdown
	}

	out := make([]SummaryRow, 0, len(panel))
	for _, p := range panel {
		mdd, ok := dd[p.GroupKey]
		if !ok {
			mdd = math.NaN()
		}
		out = append(out, SummaryRow{
			GroupKey:        p.GroupKey,
			MeanRetT0:       p.MeanRetT0,
			CumRet1:         p.CumRet1,
			CumRet3:         p.CumRet3,
			MeanMaxDrawdown: mdd,
		})
	}
	return out
}

func nanMean(values []float64) float64 {
	valid := volatility.DropNaN(values)
	if len(valid) == 0 {
		return math.NaN()
	}
	return stat.Mean(valid, nil)
}

// nanSum is 0 when every value is NaN
func nanSum(values []float64) float64 {
	return floats.Sum(volatility.DropNaN(values))
}
