package eventstudy

import (
	"macrostudy/internal/events"
	"macrostudy/internal/marketdata"
)

// Params configures a full analysis
type Params struct {
	Window Window      `json:"window"`
	Shift  ShiftParams `json:"shift"`
}

// DefaultParams returns the (-3,+3) window and the default shift parameters
func DefaultParams() Params {
	return Params{Window: DefaultWindow, Shift: DefaultShiftParams()}
}

// Validate checks both parameter sets
func (p Params) Validate() error {
	if err := p.Window.Validate(); err != nil {
		return err
	}
	return p.Shift.Validate()
}

// AnalyzePanel runs the panel branch: panel, drawdowns and their summaries.
// It fills the panel-side fields of res.
func AnalyzePanel(m *marketdata.ReturnMatrix, evts []events.Event, w Window, res *Result) error {
	panel, skips, err := BuildPanel(m, evts, w)
	if err != nil {
		return err
	}

	res.Panel = panel
	res.PanelSkips = skips
	res.Drawdowns = ComputeDrawdowns(panel)
	res.PanelSummary = SummarizePanel(panel)
	res.DrawdownSummary = SummarizeDrawdowns(res.Drawdowns)
	res.Summary = MergeSummaries(res.PanelSummary, res.DrawdownSummary)
	return nil
}

// AnalyzeVolShift runs the volatility branch and fills the shift-side fields of res
func AnalyzeVolShift(m *marketdata.ReturnMatrix, evts []events.Event, p ShiftParams, res *Result) error {
	shifts, skips, err := ComputeVolShift(m, evts, p)
	if err != nil {
		return err
	}

	res.VolShift = shifts
	res.ShiftSkips = skips
	res.VolSummary = SummarizeVolShifts(shifts)
	return nil
}

// Analyze runs both branches sequentially
func Analyze(m *marketdata.ReturnMatrix, evts []events.Event, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	if err := AnalyzePanel(m, evts, p.Window, res); err != nil {
		return nil, err
	}
	if err := AnalyzeVolShift(m, evts, p.Shift, res); err != nil {
		return nil, err
	}
	return res, nil
}
