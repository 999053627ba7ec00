package routes

import (
	"net/http"

	"training-orchestrator/api/rest/handlers"
	"training-orchestrator/core/monitoring"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all status API routes
func SetupRoutes(r *mux.Router, tracker *monitoring.Tracker) {
	statusHandler := handlers.NewStatusHandler(tracker)

	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/run", statusHandler.GetRun).Methods("GET")
	api.HandleFunc("/run/events", statusHandler.GetEvents).Methods("GET")
	api.HandleFunc("/run/history", statusHandler.GetHistory).Methods("GET")

	r.HandleFunc("/metrics", statusHandler.GetMetrics).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")
}
