// Package eventstudy computes event-conditional statistics on a return matrix.
//
// Given a list of announcements already placed on trading days, it builds
// fixed-offset return windows around each event (the panel), reduces each
// (event, ticker) window to a maximum drawdown, compares realized and EWMA
// volatility before and after each event, and aggregates every table by
// (event type, ticker).
//
// All functions are pure: inputs are never modified and every call returns
// freshly built rows. Events whose window or pre/post history does not fit
// inside the calendar are skipped whole, never clamped, and the number of
// skips is reported in SkipStats.
//
// # Pipeline
//
//	panel, panelSkips, _ := BuildPanel(returns, evts, DefaultWindow)
//	drawdowns := ComputeDrawdowns(panel)
//	summary := MergeSummaries(SummarizePanel(panel), SummarizeDrawdowns(drawdowns))
//
//	shifts, shiftSkips, _ := ComputeVolShift(returns, evts, DefaultShiftParams())
//	volSummary := SummarizeVolShifts(shifts)
package eventstudy
