package handler

import (
	"log/slog"
	"net/http"

	"github.com/flipfinder/flipfinder/internal/engine"
)

// FeesHandler exposes the marketplace fee schedule so the dashboard can
// show the same numbers the engine uses.
type FeesHandler struct {
	logger *slog.Logger
}

// NewFeesHandler creates a FeesHandler.
func NewFeesHandler(logger *slog.Logger) *FeesHandler {
	return &FeesHandler{logger: logger}
}

// FeeSchedule returns the fee percentage per marketplace.
// GET /api/fees
func (h *FeesHandler) FeeSchedule(w http.ResponseWriter, r *http.Request) {
	schedule := engine.FeeSchedule()
	fees := make(map[string]float64, len(schedule))
	for m, pct := range schedule {
		fees[string(m)] = pct
	}
	writeJSON(w, http.StatusOK, map[string]any{"fees": fees})
}
