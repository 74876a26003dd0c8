package exporter

import (
	"macrostudy/internal/calendar"
	"macrostudy/internal/services"
)

// Table names, used as CSV file stems and sheet names
const (
	TablePanel             = "event_panel"
	TableSummary           = "panel_summary"
	TableDrawdowns         = "drawdowns"
	TableDrawdownSummary   = "drawdown_summary"
	TableVolShift          = "volatility_shift"
	TableVolSummary        = "volatility_summary"
	TableRollingVolatility = "rolling_volatility"
)

// Table is a named header plus rows of string, int, float64 or nil values
type Table struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// ReportTables flattens report into its output tables in a fixed order
func ReportTables(report *services.Report) []Table {
	res := report.Result

	panel := Table{Name: TablePanel, Headers: []string{"event_date", "event_type", "ticker", "t", "ret"}}
	for _, r := range res.Panel {
		panel.Rows = append(panel.Rows, []interface{}{
			r.EventDate.Format(calendar.DateLayout), string(r.EventType), r.Ticker, r.T, number(r.Ret),
		})
	}

	summary := Table{Name: TableSummary, Headers: []string{
		"event_type", "ticker", "mean_ret_t0", "cum_ret_-1_+1", "cum_ret_-3_+3", "mean_max_drawdown",
	}}
	for _, r := range res.Summary {
		summary.Rows = append(summary.Rows, []interface{}{
			string(r.EventType), r.Ticker, number(r.MeanRetT0), number(r.CumRet1), number(r.CumRet3), number(r.MeanMaxDrawdown),
		})
	}

	drawdowns := Table{Name: TableDrawdowns, Headers: []string{"event_date", "event_type", "ticker", "max_drawdown"}}
	for _, r := range res.Drawdowns {
		drawdowns.Rows = append(drawdowns.Rows, []interface{}{
			r.EventDate.Format(calendar.DateLayout), string(r.EventType), r.Ticker, number(r.MaxDrawdown),
		})
	}

	ddSummary := Table{Name: TableDrawdownSummary, Headers: []string{"event_type", "ticker", "mean_max_drawdown"}}
	for _, r := range res.DrawdownSummary {
		ddSummary.Rows = append(ddSummary.Rows, []interface{}{
			string(r.EventType), r.Ticker, number(r.MeanMaxDrawdown),
		})
	}

	shift := Table{Name: TableVolShift, Headers: []string{
		"event_date", "event_type", "ticker",
		"vol_pre", "vol_post", "vol_change", "vol_ratio",
		"ewma_pre", "ewma_post", "ewma_change", "ewma_ratio",
	}}
	for _, r := range res.VolShift {
		shift.Rows = append(shift.Rows, []interface{}{
			r.EventDate.Format(calendar.DateLayout), string(r.EventType), r.Ticker,
			number(r.VolPre), number(r.VolPost), number(r.VolChange), number(r.VolRatio),
			number(r.EWMAPre), number(r.EWMAPost), number(r.EWMAChange), number(r.EWMARatio),
		})
	}

	volSummary := Table{Name: TableVolSummary, Headers: []string{
		"event_type", "ticker",
		"mean_vol_pre", "mean_vol_post", "mean_vol_change", "mean_vol_ratio",
		"mean_ewma_pre", "mean_ewma_post", "mean_ewma_change", "mean_ewma_ratio",
	}}
	for _, r := range res.VolSummary {
		volSummary.Rows = append(volSummary.Rows, []interface{}{
			string(r.EventType), r.Ticker,
			number(r.MeanVolPre), number(r.MeanVolPost), number(r.MeanVolChange), number(r.MeanVolRatio),
			number(r.MeanEWMAPre), number(r.MeanEWMAPost), number(r.MeanEWMAChange), number(r.MeanEWMARatio),
		})
	}

	rolling := Table{Name: TableRollingVolatility, Headers: []string{"ticker", "window", "date", "vol"}}
	for _, r := range report.Rolling {
		rolling.Rows = append(rolling.Rows, []interface{}{
			r.Ticker, r.Window, r.Date.Format(calendar.DateLayout), number(r.Vol),
		})
	}

	return []Table{panel, summary, drawdowns, ddSummary, shift, volSummary, rolling}
}
