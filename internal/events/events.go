package events

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"macrostudy/internal/calendar"
)

// EventType is the kind of macro announcement
type EventType string

const (
	// CPI is a consumer price index release
	CPI EventType = "CPI"
	// FOMC is a Federal Open Market Committee rate decision
	FOMC EventType = "FOMC"
)

// AllowedTypes lists every supported event type in display order
var AllowedTypes = []EventType{CPI, FOMC}

// String returns the event type label
func (t EventType) String() string {
	return string(t)
}

// Valid reports whether t belongs to the supported set
func (t EventType) Valid() bool {
	switch t {
	case CPI, FOMC:
		return true
	default:
		return false
	}
}

// ParseEventType parses an event label. Matching is exact after trimming
// surrounding whitespace.
func ParseEventType(s string) (EventType, error) {
	t := EventType(strings.TrimSpace(s))
	if !t.Valid() {
		return "", fmt.Errorf("unknown event type %q", s)
	}
	return t, nil
}

// Event is a single announcement. After MapToTradingDays, Date is a trading day.
type Event struct {
	Date time.Time `json:"date"`
	Type EventType `json:"event_type"`
}

// Key identifies an event in output tables
func (e Event) Key() string {
	return e.Date.Format(calendar.DateLayout) + "/" + string(e.Type)
}

// SortEvents orders events by date, then type. The sort is stable.
func SortEvents(evts []Event) {
	sort.SliceStable(evts, func(a, b int) bool {
		if !evts[a].Date.Equal(evts[b].Date) {
			return evts[a].Date.Before(evts[b].Date)
		}
		return evts[a].Type < evts[b].Type
	})
}

// MappingStats describes what MapToTradingDays did with its input
type MappingStats struct {
	OnCalendar int `json:"on_calendar"`
	Advanced   int `json:"advanced"`
	Dropped    int `json:"dropped"`
	Duplicates int `json:"duplicates"`
}

// MapToTradingDays places each event on a trading day. Events already on the
// calendar are kept, others move to the first trading day after their date,
// and events after the last trading day are dropped. Two events of the same
// type that land on the same trading day collapse into one.
func MapToTradingDays(evts []Event, cal *calendar.Calendar) ([]Event, MappingStats) {
	var stats MappingStats
	out := make([]Event, 0, len(evts))
	seen := make(map[string]struct{}, len(evts))

	for _, e := range evts {
		d := calendar.Normalize(e.Date)
		if cal.Contains(d) {
			stats.OnCalendar++
		} else {
			next, ok := cal.NextOnOrAfter(d)
			if !ok {
				stats.Dropped++
				continue
			}
			d = next
			stats.Advanced++
		}

		mapped := Event{Date: d, Type: e.Type}
		if _, dup := seen[mapped.Key()]; dup {
			stats.Duplicates++
			continue
		}
		seen[mapped.Key()] = struct{}{}
		out = append(out, mapped)
	}

	SortEvents(out)
	return out, stats
}

// Filter returns the events of the given type. An empty type returns a copy of all events.
func Filter(evts []Event, t EventType) []Event {
	out := make([]Event, 0, len(evts))
	for _, e := range evts {
		if t == "" || e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// CountByType tallies events per type
func CountByType(evts []Event) map[EventType]int {
	counts := make(map[EventType]int, len(AllowedTypes))
	for _, e := range evts {
		counts[e.Type]++
	}
	return counts
}
