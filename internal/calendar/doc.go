// Package calendar provides the trading-day calendar that every event-study
// computation uses for offset arithmetic.
//
// A Calendar is an immutable, strictly increasing sequence of trading days with
// O(1) lookups in both directions: position to date and date to position. Event
// windows are expressed as integer offsets from an event's position, so all
// window bounds checks reduce to comparisons against [0, Len()-1].
package calendar
