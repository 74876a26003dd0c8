package eventstudy

import (
	"fmt"
	"math"

	"macrostudy/internal/events"
	"macrostudy/internal/marketdata"
	"macrostudy/internal/volatility"
)

// ShiftParams configures ComputeVolShift
type ShiftParams struct {
	PreDays     int     `json:"pre_days"`
	PostDays    int     `json:"post_days"`
	TradingDays int     `json:"trading_days"`
	Lambda      float64 `json:"ewma_lambda"`
	DDOF        int     `json:"ddof"`
}

// DefaultShiftParams compares twenty trading days either side of the event
func DefaultShiftParams() ShiftParams {
	return ShiftParams{
		PreDays:     20,
		PostDays:    20,
		TradingDays: volatility.DefaultTradingDays,
		Lambda:      volatility.DefaultLambda,
		DDOF:        volatility.DefaultDDOF,
	}
}

// Validate checks window lengths, the annualization factor and lambda
func (p ShiftParams) Validate() error {
	if p.PreDays < 1 || p.PostDays < 1 {
		return fmt.Errorf("pre_days and post_days must be positive, got %d and %d", p.PreDays, p.PostDays)
	}
	if p.TradingDays < 1 {
		return fmt.Errorf("trading_days must be positive, got %d", p.TradingDays)
	}
	if p.DDOF < 0 {
		return fmt.Errorf("ddof must not be negative, got %d", p.DDOF)
	}
	return volatility.ValidateLambda(p.Lambda)
}

// ComputeVolShift compares volatility over the PreDays trading days strictly
// before each event (positions i-PreDays .. i-1) with the PostDays trading
// days strictly after it (positions i+1 .. i+PostDays). The event day belongs
// to neither window.
//
// A pair is dropped when either realized volatility is insufficient or the
// pre-event realized volatility is zero. VolRatio is only computed for kept
// pairs, while EWMARatio is NaN unless EWMAPre > 0.
func ComputeVolShift(m *marketdata.ReturnMatrix, evts []events.Event, p ShiftParams) ([]VolShiftRecord, SkipStats, error) {
	var skips SkipStats
	if err := p.Validate(); err != nil {
		return nil, skips, err
	}

	cal := m.Calendar()
	tickers := m.Tickers()
	out := make([]VolShiftRecord, 0, len(evts)*len(tickers))

	for _, e := range evts {
		i, ok := cal.Position(e.Date)
		if !ok {
			skips.Unmapped++
			continue
		}
		if !cal.InBounds(i, -p.PreDays, p.PostDays) {
			skips.OutOfBounds++
			continue
		}

		date := cal.Date(i)
		for _, ticker := range tickers {
			pre := m.Window(ticker, i-p.PreDays, i)
			post := m.Window(ticker, i+1, i+1+p.PostDays)

			rec, keep, err := shiftRecord(pre, post, p)
			if err != nil {
				return nil, skips, err
			}
			switch keep {
			case dropInsufficient:
				skips.Insufficient++
				continue
			case dropZeroPreVol:
				skips.ZeroPreVol++
				continue
			}

			rec.EventDate = date
			rec.EventType = e.Type
			rec.Ticker = ticker
			out = append(out, rec)
		}
	}

	return out, skips, nil
}

type pairOutcome int

const (
	keepPair pairOutcome = iota
	dropInsufficient
	dropZeroPreVol
)

func shiftRecord(pre, post []float64, p ShiftParams) (VolShiftRecord, pairOutcome, error) {
	var rec VolShiftRecord

	rec.VolPre = volatility.RealizedVol(pre, p.TradingDays, p.DDOF)
	rec.VolPost = volatility.RealizedVol(post, p.TradingDays, p.DDOF)

	var err error
	if rec.EWMAPre, err = volatility.EWMAVol(pre, p.Lambda, p.TradingDays); err != nil {
		return rec, keepPair, err
	}
	if rec.EWMAPost, err = volatility.EWMAVol(post, p.Lambda, p.TradingDays); err != nil {
		return rec, keepPair, err
	}

	rec.EWMAChange = rec.EWMAPost - rec.EWMAPre
	rec.EWMARatio = math.NaN()
	if rec.EWMAPre > 0 {
		rec.EWMARatio = rec.EWMAPost / rec.EWMAPre
	}

	if volatility.Insufficient(rec.VolPre) || volatility.Insufficient(rec.VolPost) {
		return rec, dropInsufficient, nil
	}
	if rec.VolPre == 0 {
		return rec, dropZeroPreVol, nil
	}

	rec.VolChange = rec.VolPost - rec.VolPre
	rec.VolRatio = rec.VolPost / rec.VolPre
	return rec, keepPair, nil
}
