package ws

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"planetguard/internal/apperr"
	"planetguard/internal/model"
	"planetguard/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	maxChatLength  = 500
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler handles WebSocket connections
type Handler struct {
	hub     *Hub
	authSvc *service.AuthService
	gameSvc *service.GameService
	logger  *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authSvc *service.AuthService, gameSvc *service.GameService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		hub:     hub,
		authSvc: authSvc,
		gameSvc: gameSvc,
		logger:  logger.Named("ws"),
	}
}

// client is the per-connection state owned by the read pump.
type client struct {
	conn     *Connection
	identity model.Identity
	joined   map[string]bool
	ctx      context.Context
}

// actionPayload is the union of every client action's fields.
type actionPayload struct {
	GameID        string `json:"gameId"`
	QuestionIndex *int   `json:"questionIndex"`
	AnswerIndex   *int   `json:"answerIndex"`
	MonsterID     string `json:"monsterId"`
	TargetID      string `json:"targetId"`
	Present       *bool  `json:"present"`
	Message       string `json:"message"`
}

// ActionResult acknowledges a successful client action
type ActionResult struct {
	Action string      `json:"action"`
	GameID string      `json:"gameId"`
	Result interface{} `json:"result"`
}

// ErrorEvent reports a rejected client action
type ErrorEvent struct {
	Action  string `json:"action"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Monster is a battle target spawned by a client
type Monster struct {
	ID       string   `json:"id"`
	Health   int      `json:"health"`
	Size     int      `json:"size"`
	Position Position `json:"position"`
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type MonsterSpawnedEvent struct {
	SessionID string  `json:"sessionId"`
	Monster   Monster `json:"monster"`
}

// ServeWS handles GET /v1/ws. The token comes from the "token" query
// parameter or the Authorization header and is verified before upgrading.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r)
	}

	identity, err := h.authSvc.VerifyToken(token)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error(), "code": string(apperr.CodeOf(err))})
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &Connection{
		UserID:   identity.UserID,
		Username: identity.Username,
		Send:     make(chan []byte, 256),
		Hub:      h.hub,
	}
	h.hub.Register(conn)
	h.logger.Info("user connected", zap.String("user", identity.UserID))

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn, *identity)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return auth[7:]
	}
	return ""
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection, identity model.Identity) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &client{conn: conn, identity: identity, joined: make(map[string]bool), ctx: ctx}
	defer func() {
		cancel()
		for sessionID := range c.joined {
			h.gameSvc.DetachRealtime(identity, sessionID)
		}
		h.hub.Unregister(conn)
		wsConn.Close()
		h.logger.Info("user disconnected", zap.String("user", identity.UserID))
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read failed", zap.String("user", identity.UserID), zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reply(c, MsgError, ErrorEvent{Code: string(apperr.CodeInvalidPayload), Message: "malformed message"})
			continue
		}
		h.dispatch(c, msg)
	}
}

func (h *Handler) dispatch(c *client, msg Message) {
	var p actionPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			h.fail(c, msg.Type, apperr.Validation(apperr.CodeInvalidPayload, "malformed payload"))
			return
		}
	}

	var (
		result interface{}
		err    error
	)
	switch msg.Type {
	case MsgJoinGame:
		var detail *model.SessionDetail
		detail, err = h.gameSvc.AttachRealtime(c.ctx, c.identity, p.GameID)
		if err == nil {
			c.joined[p.GameID] = true
			h.reply(c, service.EventGameState, detail)
			return
		}
	case MsgLeaveGame:
		if c.joined[p.GameID] {
			delete(c.joined, p.GameID)
			h.gameSvc.DetachRealtime(c.identity, p.GameID)
		}
		result = map[string]bool{"left": true}
	case MsgSubmitAnswer:
		result, err = h.gameSvc.SubmitAnswer(c.ctx, c.identity.UserID, p.GameID, model.AnswerInput{
			QuestionIndex: p.QuestionIndex,
			AnswerIndex:   p.AnswerIndex,
		})
	case MsgAttackMonster:
		result, err = h.gameSvc.DefeatMonster(c.ctx, c.identity.UserID, p.GameID, model.MonsterInput{MonsterID: p.MonsterID})
	case MsgEndBattle:
		result, err = h.gameSvc.EndBattle(c.ctx, c.identity.UserID, p.GameID)
	case MsgSubmitVote:
		result, err = h.gameSvc.SubmitVote(c.ctx, c.identity.UserID, p.GameID, model.VoteInput{TargetID: p.TargetID})
	case MsgSpawnMonster, MsgPresence, MsgChat:
		err = h.relay(c, msg.Type, p)
		if err == nil {
			return
		}
	default:
		err = apperr.Validation(apperr.CodeInvalidPayload, "unknown message type")
	}

	if err != nil {
		h.fail(c, msg.Type, err)
		return
	}
	h.reply(c, MsgActionResult, ActionResult{Action: msg.Type, GameID: p.GameID, Result: result})
}

// relay forwards cosmetic events to the room without touching game state.
// Only rooms this connection joined may be addressed.
func (h *Handler) relay(c *client, action string, p actionPayload) error {
	if !c.joined[p.GameID] {
		return apperr.Authorization(apperr.CodeNotMember, "join the game before sending events")
	}

	switch action {
	case MsgSpawnMonster:
		h.hub.Broadcast(p.GameID, service.EventMonsterSpawned, MonsterSpawnedEvent{
			SessionID: p.GameID,
			Monster:   spawnMonster(),
		})
	case MsgPresence:
		present := true
		if p.Present != nil {
			present = *p.Present
		}
		h.hub.BroadcastExcept(p.GameID, c.identity.UserID, service.EventPresence, service.PresenceEvent{
			SessionID: p.GameID,
			UserID:    c.identity.UserID,
			Username:  c.identity.Username,
			Present:   present,
		})
	case MsgChat:
		text := strings.TrimSpace(p.Message)
		if text == "" || utf8.RuneCountInString(text) > maxChatLength {
			return apperr.Validation(apperr.CodeInvalidPayload, "message must be 1-500 characters")
		}
		h.hub.Broadcast(p.GameID, service.EventChatMessage, service.ChatMessageEvent{
			SessionID: p.GameID,
			UserID:    c.identity.UserID,
			Username:  c.identity.Username,
			Message:   text,
			At:        time.Now().UTC(),
		})
	}
	return nil
}

func spawnMonster() Monster {
	return Monster{
		ID:     uuid.New().String(),
		Health: 100,
		Size:   40 + rand.IntN(41),
		Position: Position{
			X: 10 + rand.IntN(81),
			Y: 10 + rand.IntN(81),
		},
	}
}

func (h *Handler) fail(c *client, action string, err error) {
	e, ok := apperr.As(err)
	if !ok {
		h.logger.Error("action failed", zap.String("action", action), zap.Error(err))
		e = apperr.New(apperr.KindInternal, apperr.CodeInternal, "internal error")
	}
	h.reply(c, MsgError, ErrorEvent{Action: action, Code: string(e.Code), Message: e.Message})
}

// reply sends a message to this connection only.
func (h *Handler) reply(c *client, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("encode reply failed", zap.String("type", msgType), zap.Error(err))
		return
	}
	out, _ := json.Marshal(&Message{Type: msgType, Payload: data})
	select {
	case c.conn.Send <- out:
	default:
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
