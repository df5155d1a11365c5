package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"planetguard/internal/model"
	"planetguard/internal/service"
	"planetguard/internal/transport/rest/middleware"
)

// GameHandler handles game session endpoints
type GameHandler struct {
	gameSvc *service.GameService
	logger  *zap.Logger
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameSvc *service.GameService, logger *zap.Logger) *GameHandler {
	return &GameHandler{gameSvc: gameSvc, logger: logger}
}

func caller(r *http.Request) model.Identity {
	identity, _ := middleware.GetIdentity(r.Context())
	return identity
}

// Create handles POST /v1/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	summary, err := h.gameSvc.CreateSession(r.Context(), caller(r), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

// List handles GET /v1/games
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	games, err := h.gameSvc.ListOpenSessions(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"games": games})
}

// Get handles GET /v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.gameSvc.GetSession(r.Context(), caller(r).UserID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Join handles POST /v1/games/{id}/join
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	summary, err := h.gameSvc.JoinSession(r.Context(), caller(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Leave handles POST /v1/games/{id}/leave
func (h *GameHandler) Leave(w http.ResponseWriter, r *http.Request) {
	res, err := h.gameSvc.LeaveSession(r.Context(), caller(r).UserID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Start handles POST /v1/games/{id}/start
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	res, err := h.gameSvc.StartSession(r.Context(), caller(r).UserID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Answer handles POST /v1/games/{id}/answer
func (h *GameHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var in model.AnswerInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.gameSvc.SubmitAnswer(r.Context(), caller(r).UserID, mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Monster handles POST /v1/games/{id}/monster
func (h *GameHandler) Monster(w http.ResponseWriter, r *http.Request) {
	var in model.MonsterInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.gameSvc.DefeatMonster(r.Context(), caller(r).UserID, mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// EndBattle handles POST /v1/games/{id}/battle/end
func (h *GameHandler) EndBattle(w http.ResponseWriter, r *http.Request) {
	res, err := h.gameSvc.EndBattle(r.Context(), caller(r).UserID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Vote handles POST /v1/games/{id}/vote
func (h *GameHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var in model.VoteInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.gameSvc.SubmitVote(r.Context(), caller(r).UserID, mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
