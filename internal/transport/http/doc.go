// Package http exposes the latest event-study report over a JSON API.
//
// Handlers are thin: they read the report held by the analysis service,
// filter it by the event_type and ticker query parameters and render it
// with go-chi/render. Errors are answered as RFC 7807 problem details by
// the shared errors.ErrorHandler.
//
// Routes, all under /api/v1:
//
//	GET  /health                 liveness summary
//	GET  /health/ready           input files and report availability
//	GET  /health/live            runtime details
//	GET  /report                 run metadata and skip counters
//	GET  /panel                  event-window returns
//	GET  /summary                panel summary joined with drawdowns
//	GET  /drawdowns              per-event maximum drawdowns
//	GET  /drawdowns/summary      mean drawdown per group
//	GET  /volatility             pre/post volatility shift records
//	GET  /volatility/summary     mean volatility shift per group
//	GET  /rolling                trailing volatility on the last day
//	POST /runs                   re-run the analysis from the input files
//
// Non-finite floats are rendered as JSON null.
package http
