package main

import (
	"encoding/json"
	"net/http"
	"time"

	"demo-options-trader/internal/history"
	"demo-options-trader/internal/models"
	"go.uber.org/zap"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log   *zap.Logger
	store history.Store
	now   func() time.Time
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, store history.Store) *APIHandler {
	return &APIHandler{log: log, store: store, now: time.Now}
}

// TradesHandler returns the persisted trade history, newest first.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	trades, err := h.store.LoadHistory(r.Context())
	if err != nil {
		h.log.Error("Failed to get trades from database", zap.Error(err))
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []models.Trade{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(trades)
}

// StatisticsResponse is the structure for the /api/statistics endpoint.
type StatisticsResponse struct {
	Since24h history.Stats `json:"since_24h"`
	AllTime  history.Stats `json:"all_time"`
}

// StatisticsHandler calculates and returns trading statistics.
func (h *APIHandler) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	trades, err := h.store.LoadHistory(r.Context())
	if err != nil {
		h.log.Error("Failed to get trades for statistics", zap.Error(err))
		http.Error(w, "Failed to calculate statistics", http.StatusInternalServerError)
		return
	}

	since24h := h.now().Add(-24 * time.Hour)
	var recent []models.Trade
	for _, t := range trades {
		if t.ResolvedAt != nil && t.ResolvedAt.After(since24h) {
			recent = append(recent, t)
		}
	}

	response := StatisticsResponse{
		Since24h: history.Summarize(recent),
		AllTime:  history.Summarize(trades),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}
