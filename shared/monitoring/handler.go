package monitoring

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler exposes the monitor over HTTP.
type Handler struct {
	monitor *Monitor
}

func NewHandler(monitor *Monitor) *Handler {
	return &Handler{monitor: monitor}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if h.monitor.IsHealthy() {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK - %s", h.monitor.GetStatusSummary())
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	fmt.Fprintf(w, "Service unhealthy - %s", h.monitor.GetStatusSummary())
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, h.monitor.GetStatusSummary())
}

// Metrics serves the Prometheus registry.
func (h *Handler) Metrics() http.Handler {
	return promhttp.Handler()
}
