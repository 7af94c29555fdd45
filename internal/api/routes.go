package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Reports
	api.HandleFunc("/report", handler.GetReport).Methods("GET")
	api.HandleFunc("/decisions", handler.GetDecisions).Methods("GET")
	api.HandleFunc("/deltas", handler.GetDeltas).Methods("GET")
	api.HandleFunc("/brief", handler.GetBrief).Methods("GET")
	api.HandleFunc("/brief", handler.RecordBrief).Methods("POST")
	api.HandleFunc("/brief/latest", handler.GetLatestBrief).Methods("GET")

	// Journal
	api.HandleFunc("/journal", handler.GetJournal).Methods("GET")
	api.HandleFunc("/roi", handler.GetROIHistory).Methods("GET")
	api.HandleFunc("/orders", handler.PostOrders).Methods("POST")

	// Snapshot uploads
	api.HandleFunc("/portfolio", handler.PutPortfolio).Methods("PUT")
	api.HandleFunc("/screens/{group}/{date}", handler.PutScreen).Methods("PUT")

	return r
}
