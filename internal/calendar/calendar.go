package calendar

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the layout used for trading days in CSV files and API payloads
const DateLayout = "2006-01-02"

// Calendar is an ordered set of trading days
type Calendar struct {
	days  []time.Time
	index map[time.Time]int
}

// Normalize truncates t to midnight UTC of its calendar date
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// New builds a calendar from days, which must be strictly increasing after
// normalization to UTC midnight.
func New(days []time.Time) (*Calendar, error) {
	c := &Calendar{
		days:  make([]time.Time, len(days)),
		index: make(map[time.Time]int, len(days)),
	}

	for i, d := range days {
		nd := Normalize(d)
		if i > 0 && !nd.After(c.days[i-1]) {
			return nil, fmt.Errorf("trading days not strictly increasing at position %d: %s after %s",
				i, nd.Format(DateLayout), c.days[i-1].Format(DateLayout))
		}
		c.days[i] = nd
		c.index[nd] = i
	}

	return c, nil
}

// MustNew is like New but panics on error. Intended for tests and fixtures.
func MustNew(days []time.Time) *Calendar {
	c, err := New(days)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of trading days
func (c *Calendar) Len() int {
	return len(c.days)
}

// Date returns the trading day at position i
func (c *Calendar) Date(i int) time.Time {
	return c.days[i]
}

// Position returns the zero-based position of d, and false when d is not a trading day
func (c *Calendar) Position(d time.Time) (int, bool) {
	i, ok := c.index[Normalize(d)]
	return i, ok
}

// Contains reports whether d is a trading day
func (c *Calendar) Contains(d time.Time) bool {
	_, ok := c.Position(d)
	return ok
}

// InBounds reports whether the offset range [from, to] around position i lies
// fully inside the calendar.
func (c *Calendar) InBounds(i, from, to int) bool {
	return i+from >= 0 && i+to <= len(c.days)-1
}

// Days returns a copy of the trading days
func (c *Calendar) Days() []time.Time {
	out := make([]time.Time, len(c.days))
	copy(out, c.days)
	return out
}

// First returns the first trading day. It panics on an empty calendar.
func (c *Calendar) First() time.Time {
	return c.days[0]
}

// Last returns the last trading day. It panics on an empty calendar.
func (c *Calendar) Last() time.Time {
	return c.days[len(c.days)-1]
}

// NextOnOrAfter returns the first trading day on or after d
func (c *Calendar) NextOnOrAfter(d time.Time) (time.Time, bool) {
	nd := Normalize(d)
	if i, ok := c.index[nd]; ok {
		return c.days[i], true
	}

	i := sort.Search(len(c.days), func(k int) bool {
		return !c.days[k].Before(nd)
	})
	if i == len(c.days) {
		return time.Time{}, false
	}
	return c.days[i], true
}

// BusinessDays returns every Monday-Friday date between start and end inclusive
func BusinessDays(start, end time.Time) []time.Time {
	start, end = Normalize(start), Normalize(end)
	if end.Before(start) {
		return nil
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		}
		days = append(days, d)
	}
	return days
}

// ParseDate parses a YYYY-MM-DD trading day
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}
