package marketdata

import (
	"fmt"
	"math"
	"sort"
	"time"

	"macrostudy/internal/calendar"
)

// PriceTable is a date-indexed table of per-ticker prices as delivered by a
// vendor. Dates may be unsorted or duplicated until cleaned.
type PriceTable struct {
	Dates   []time.Time
	Tickers []string
	Values  map[string][]float64
}

// Validate checks that every ticker has one value per date
func (p *PriceTable) Validate() error {
	for _, t := range p.Tickers {
		col, ok := p.Values[t]
		if !ok {
			return fmt.Errorf("missing column for ticker %q", t)
		}
		if len(col) != len(p.Dates) {
			return fmt.Errorf("ticker %q has %d values for %d dates", t, len(col), len(p.Dates))
		}
	}
	return nil
}

// CleanPrices sorts by date, drops duplicate dates keeping the first
// occurrence, reindexes onto every business day between the first and last
// date and forward-fills gaps. Leading gaps stay NaN.
func CleanPrices(p *PriceTable) (*PriceTable, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(p.Dates) == 0 {
		return &PriceTable{Tickers: append([]string(nil), p.Tickers...), Values: map[string][]float64{}}, nil
	}

	order := make([]int, len(p.Dates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return calendar.Normalize(p.Dates[order[a]]).Before(calendar.Normalize(p.Dates[order[b]]))
	})

	// first occurrence in sorted order wins; stable sort keeps file order among equals
	rowFor := make(map[time.Time]int, len(order))
	for _, idx := range order {
		d := calendar.Normalize(p.Dates[idx])
		if _, seen := rowFor[d]; !seen {
			rowFor[d] = idx
		}
	}

	first := calendar.Normalize(p.Dates[order[0]])
	last := calendar.Normalize(p.Dates[order[len(order)-1]])
	bdays := calendar.BusinessDays(first, last)

	out := &PriceTable{
		Dates:   bdays,
		Tickers: append([]string(nil), p.Tickers...),
		Values:  make(map[string][]float64, len(p.Tickers)),
	}

	for _, t := range p.Tickers {
		src := p.Values[t]
		col := make([]float64, len(bdays))
		prev := math.NaN()
		for i, d := range bdays {
			v := math.NaN()
			if idx, ok := rowFor[d]; ok {
				v = src[idx]
			}
			if math.IsNaN(v) {
				v = prev
			}
			col[i] = v
			prev = v
		}
		out.Values[t] = col
	}

	return out, nil
}

// LogReturns converts a cleaned price table into a return matrix of
// ln(p_t / p_{t-1}). The first row of every ticker is NaN.
func LogReturns(p *PriceTable) (*ReturnMatrix, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	cal, err := calendar.New(p.Dates)
	if err != nil {
		return nil, fmt.Errorf("price dates must be cleaned first: %w", err)
	}

	columns := make(map[string][]float64, len(p.Tickers))
	for _, t := range p.Tickers {
		src := p.Values[t]
		col := make([]float64, len(src))
		for i := range src {
			if i == 0 {
				col[i] = math.NaN()
				continue
			}
			col[i] = math.Log(src[i] / src[i-1])
		}
		columns[t] = col
	}

	return NewReturnMatrix(cal, p.Tickers, columns)
}
