// Package marketdata holds the return matrix consumed by the event-study engine
// and the ingestion steps that produce it: wide CSV parsing, price cleaning onto
// a business-day calendar and log-return computation.
package marketdata
