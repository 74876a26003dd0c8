package http

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"macrostudy/internal/calendar"
	"macrostudy/internal/events"
	"macrostudy/internal/eventstudy"
	"macrostudy/internal/services"
)

// NullFloat marshals NaN and infinities as null
type NullFloat float64

// MarshalJSON implements json.Marshaler
func (f NullFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

// Date marshals a time as YYYY-MM-DD
type Date time.Time

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d).Format(calendar.DateLayout))
}

// ListResponse wraps every table endpoint
type ListResponse struct {
	RunID string      `json:"run_id"`
	Count int         `json:"count"`
	Data  interface{} `json:"data"`
}

// PanelRowDTO is one row of the event panel
type PanelRowDTO struct {
	EventDate Date      `json:"event_date"`
	EventType string    `json:"event_type"`
	Ticker    string    `json:"ticker"`
	T         int       `json:"t"`
	Ret       NullFloat `json:"ret"`
}

// SummaryRowDTO is one row of the joined summary
type SummaryRowDTO struct {
	EventType       string    `json:"event_type"`
	Ticker          string    `json:"ticker"`
	MeanRetT0       NullFloat `json:"mean_ret_t0"`
	CumRet1         NullFloat `json:"cum_ret_-1_+1"`
	CumRet3         NullFloat `json:"cum_ret_-3_+3"`
	MeanMaxDrawdown NullFloat `json:"mean_max_drawdown"`
}

// DrawdownDTO is one per-event drawdown
type DrawdownDTO struct {
	EventDate   Date      `json:"event_date"`
	EventType   string    `json:"event_type"`
	Ticker      string    `json:"ticker"`
	MaxDrawdown NullFloat `json:"max_drawdown"`
}

// DrawdownSummaryDTO is the mean drawdown of one group
type DrawdownSummaryDTO struct {
	EventType       string    `json:"event_type"`
	Ticker          string    `json:"ticker"`
	MeanMaxDrawdown NullFloat `json:"mean_max_drawdown"`
}

// VolShiftDTO is one pre/post volatility comparison
type VolShiftDTO struct {
	EventDate  Date      `json:"event_date"`
	EventType  string    `json:"event_type"`
	Ticker     string    `json:"ticker"`
	VolPre     NullFloat `json:"vol_pre"`
	VolPost    NullFloat `json:"vol_post"`
	VolChange  NullFloat `json:"vol_change"`
	VolRatio   NullFloat `json:"vol_ratio"`
	EWMAPre    NullFloat `json:"ewma_pre"`
	EWMAPost   NullFloat `json:"ewma_post"`
	EWMAChange NullFloat `json:"ewma_change"`
	EWMARatio  NullFloat `json:"ewma_ratio"`
}

// VolSummaryDTO holds the mean volatility shift of one group
type VolSummaryDTO struct {
	EventType      string    `json:"event_type"`
	Ticker         string    `json:"ticker"`
	MeanVolPre     NullFloat `json:"mean_vol_pre"`
	MeanVolPost    NullFloat `json:"mean_vol_post"`
	MeanVolChange  NullFloat `json:"mean_vol_change"`
	MeanVolRatio   NullFloat `json:"mean_vol_ratio"`
	MeanEWMAPre    NullFloat `json:"mean_ewma_pre"`
	MeanEWMAPost   NullFloat `json:"mean_ewma_post"`
	MeanEWMAChange NullFloat `json:"mean_ewma_change"`
	MeanEWMARatio  NullFloat `json:"mean_ewma_ratio"`
}

// RollingDTO is the trailing volatility of one ticker
type RollingDTO struct {
	Ticker string    `json:"ticker"`
	Window int       `json:"window"`
	Date   Date      `json:"date"`
	Vol    NullFloat `json:"vol"`
}

// ReportDTO describes a run without its tables
type ReportDTO struct {
	RunID       string               `json:"run_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	DurationMS  int64                `json:"duration_ms"`
	Params      eventstudy.Params    `json:"params"`
	Tickers     []string             `json:"tickers"`
	Events      int                  `json:"events"`
	Mapping     events.MappingStats  `json:"mapping"`
	PanelSkips  eventstudy.SkipStats `json:"panel_skips"`
	ShiftSkips  eventstudy.SkipStats `json:"shift_skips"`
	Rows        map[string]int       `json:"rows"`
}

func newReportDTO(r *services.Report) ReportDTO {
	res := r.Result
	return ReportDTO{
		RunID:       r.RunID,
		GeneratedAt: r.GeneratedAt,
		DurationMS:  r.Duration.Milliseconds(),
		Params:      r.Params,
		Tickers:     r.Tickers,
		Events:      r.Events,
		Mapping:     r.Mapping,
		PanelSkips:  res.PanelSkips,
		ShiftSkips:  res.ShiftSkips,
		Rows: map[string]int{
			"panel":              len(res.Panel),
			"summary":            len(res.Summary),
			"drawdowns":          len(res.Drawdowns),
			"drawdown_summary":   len(res.DrawdownSummary),
			"volatility_shift":   len(res.VolShift),
			"volatility_summary": len(res.VolSummary),
			"rolling_volatility": len(r.Rolling),
		},
	}
}

func panelDTOs(rows []eventstudy.PanelRow, f ReportFilter) []PanelRowDTO {
	out := make([]PanelRowDTO, 0, len(rows))
	for _, r := range rows {
		if !f.match(string(r.EventType), r.Ticker) {
			continue
		}
		out = append(out, PanelRowDTO{Date(r.EventDate), string(r.EventType), r.Ticker, r.T, NullFloat(r.Ret)})
	}
	return out
}

func summaryDTOs(rows []eventstudy.SummaryRow, f ReportFilter) []SummaryRowDTO {
	out := make([]SummaryRowDTO, 0, len(rows))
	for _, r := range rows {
		if !f.match(string(r.EventType), r.Ticker) {
			continue
		}
		out = append(out, SummaryRowDTO{
			EventType:       string(r.EventType),
			Ticker:          r.Ticker,
			MeanRetT0:       NullFloat(r.MeanRetT0),
			CumRet1:         NullFloat(r.CumRet1),
			CumRet3:         NullFloat(r.CumRet3),
			MeanMaxDrawdown: NullFloat(r.MeanMaxDrawdown),
		})
	}
	return out
}

func drawdownDTOs(rows []eventstudy.DrawdownRecord, f ReportFilter) []DrawdownDTO {
	out := make([]DrawdownDTO, 0, len(rows))
	for _, r := range rows {
		if !f.match(string(r.EventType), r.Ticker) {
			continue
		}
		out = append(out, DrawdownDTO{Date(r.EventDate), string(r.EventType), r.Ticker, NullFloat(r.MaxDrawdown)})
	}
	return out
}

func drawdownSummaryDTOs(rows []eventstudy.DrawdownSummaryRow, f ReportFilter) []DrawdownSummaryDTO {
	out := make([]DrawdownSummaryDTO, 0, len(rows))
	for _, r := range rows {
		if !f.match(string(r.EventType), r.Ticker) {
			continue
		}
		out = append(out, DrawdownSummaryDTO{string(r.EventType), r.Ticker, NullFloat(r.MeanMaxDrawdown)})
	}
	return out
}

func volShiftDTOs(rows []eventstudy.VolShiftRecord, f ReportFilter) []VolShiftDTO {
	out := make([]VolShiftDTO, 0, len(rows))
	for _, r := range rows {
		if !f.match(string(r.EventType), r.Ticker) {
			continue
		}
		out = append(out, VolShiftDTO{
			EventDate:  Date(r.EventDate),
			EventType:  string(r.EventType),
			Ticker:     r.Ticker,
			VolPre:     NullFloat(r.VolPre),
			VolPost:    NullFloat(r.VolPost),
			VolChange:  NullFloat(r.VolChange),
			VolRatio:   NullFloat(r.VolRatio),
			EWMAPre:    NullFloat(r.EWMAPre),
			EWMAPost:   NullFloat(r.EWMAPost),
			EWMAChange: NullFloat(r.EWMAChange),
			EWMARatio:  NullFloat(r.EWMARatio),
		})
	}
	return out
}

func volSummaryDTOs(rows []eventstudy.VolShiftSummaryRow, f ReportFilter) []VolSummaryDTO {
	out := make([]VolSummaryDTO, 0, len(rows))
	for _, r := range rows {
		if !f.match(string(r.EventType), r.Ticker) {
			continue
		}
		out = append(out, VolSummaryDTO{
			EventType:      string(r.EventType),
			Ticker:         r.Ticker,
			MeanVolPre:     NullFloat(r.MeanVolPre),
			MeanVolPost:    NullFloat(r.MeanVolPost),
			MeanVolChange:  NullFloat(r.MeanVolChange),
			MeanVolRatio:   NullFloat(r.MeanVolRatio),
			MeanEWMAPre:    NullFloat(r.MeanEWMAPre),
			MeanEWMAPost:   NullFloat(r.MeanEWMAPost),
			MeanEWMAChange: NullFloat(r.MeanEWMAChange),
			MeanEWMARatio:  NullFloat(r.MeanEWMARatio),
		})
	}
	return out
}

func rollingDTOs(rows []services.RollingVolRow, f ReportFilter) []RollingDTO {
	out := make([]RollingDTO, 0, len(rows))
	for _, r := range rows {
		if f.Ticker != "" && f.Ticker != r.Ticker {
			continue
		}
		out = append(out, RollingDTO{r.Ticker, r.Window, Date(r.Date), NullFloat(r.Vol)})
	}
	return out
}
