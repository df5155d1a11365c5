package handler

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"planetguard/internal/service"
)

// PlayerHandler serves per-user history, stats and the global leaderboard
type PlayerHandler struct {
	gameSvc *service.GameService
	logger  *zap.Logger
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(gameSvc *service.GameService, logger *zap.Logger) *PlayerHandler {
	return &PlayerHandler{gameSvc: gameSvc, logger: logger}
}

// History handles GET /v1/games/history
func (h *PlayerHandler) History(w http.ResponseWriter, r *http.Request) {
	games, err := h.gameSvc.History(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"games": games})
}

// Stats handles GET /v1/me/stats
func (h *PlayerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.gameSvc.PlayerStats(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Leaderboard handles GET /v1/leaderboard
func (h *PlayerHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	top := 0
	if topStr := r.URL.Query().Get("top"); topStr != "" {
		if n, err := strconv.Atoi(topStr); err == nil && n > 0 {
			top = n
		}
	}

	entries, err := h.gameSvc.Leaderboard(r.Context(), top)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})
}
