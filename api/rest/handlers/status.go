package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"training-orchestrator/core/monitoring"
)

// StatusHandler exposes the live state of the current training run
type StatusHandler struct {
	tracker *monitoring.Tracker
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(tracker *monitoring.Tracker) *StatusHandler {
	return &StatusHandler{tracker: tracker}
}

// GetRun handles GET /v1/run
func (h *StatusHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.tracker.Snapshot())
}

// GetEvents handles GET /v1/run/events?limit=N
func (h *StatusHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	writeJSON(w, h.tracker.Events(limit))
}

// GetHistory handles GET /v1/run/history
func (h *StatusHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.tracker.History())
}

// GetMetrics handles GET /metrics in Prometheus text format
func (h *StatusHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.Write([]byte(h.tracker.PrometheusMetrics()))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
