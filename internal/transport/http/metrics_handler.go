package http

import (
	"net/http"
)

// MetricsHandler serves the Prometheus registry fed by the OpenTelemetry
// meter provider
type MetricsHandler struct {
	prom http.Handler
}

// NewMetricsHandler wraps a promhttp handler. A nil handler means metrics
// export is disabled and the endpoint answers 404.
func NewMetricsHandler(prom http.Handler) *MetricsHandler {
	return &MetricsHandler{prom: prom}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.prom == nil {
		http.NotFound(w, r)
		return
	}
	h.prom.ServeHTTP(w, r)
}
