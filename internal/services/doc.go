// Package services orchestrates the event study.
//
// AnalysisService loads the returns and events files, maps events onto the
// returns calendar and runs the panel branch (panel, drawdowns, summaries),
// the volatility shift branch and the rolling volatility snapshot
// concurrently. Each branch fills its own fields of the report. The latest
// successful report is kept for the HTTP API and handed to every registered
// ReportWriter.
//
// HealthService reports liveness and readiness (input files present and a
// report available).
package services
