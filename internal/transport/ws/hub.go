package ws

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Client action types
const (
	MsgJoinGame      = "join_game"
	MsgLeaveGame     = "leave_game"
	MsgSubmitAnswer  = "submit_answer"
	MsgAttackMonster = "attack_monster"
	MsgEndBattle     = "end_battle"
	MsgSubmitVote    = "submit_vote"
	MsgSpawnMonster  = "spawn_monster"
	MsgPresence      = "player_presence"
	MsgChat          = "chat_message"
)

// Server-only message types. Game events use the service.Event* names.
const (
	MsgActionResult = "action_result"
	MsgError        = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub routes messages to connections. Every connection belongs to one user;
// a user may hold several connections and be in several session rooms.
// Room membership is counted, so a user stays subscribed until every
// connection that joined the room has left it.
type Hub struct {
	conns map[string]map[*Connection]bool // userID -> connections
	rooms map[string]map[string]int       // sessionID -> userID -> joins

	register   chan *Connection
	unregister chan *Connection
	membership chan membership
	broadcast  chan *BroadcastMessage
	done       chan struct{}

	logger *zap.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	UserID   string
	Username string
	Send     chan []byte
	Hub      *Hub
}

type membershipOp int

const (
	opJoin membershipOp = iota
	opLeave
	opEvict
)

type membership struct {
	sessionID string
	userID    string
	op        membershipOp
}

// BroadcastMessage is a message to deliver. With ToUser set it goes to that
// user only, otherwise to every user in Room except ExceptUser.
type BroadcastMessage struct {
	Room       string
	ToUser     string
	ExceptUser string
	Message    *Message
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		conns:      make(map[string]map[*Connection]bool),
		rooms:      make(map[string]map[string]int),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		membership: make(chan membership),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		logger:     logger.Named("ws"),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return

		case conn := <-h.register:
			if h.conns[conn.UserID] == nil {
				h.conns[conn.UserID] = make(map[*Connection]bool)
			}
			h.conns[conn.UserID][conn] = true
			h.logger.Debug("client connected", zap.String("user", conn.UserID))

		case conn := <-h.unregister:
			if set, ok := h.conns[conn.UserID]; ok && set[conn] {
				delete(set, conn)
				close(conn.Send)
				if len(set) == 0 {
					delete(h.conns, conn.UserID)
				}
				h.logger.Debug("client disconnected", zap.String("user", conn.UserID))
			}

		case m := <-h.membership:
			h.applyMembership(m)

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.logger.Error("encode message failed", zap.String("type", msg.Message.Type), zap.Error(err))
				continue
			}
			if msg.ToUser != "" {
				h.send(msg.ToUser, data)
				continue
			}
			for userID := range h.rooms[msg.Room] {
				if userID != msg.ExceptUser {
					h.send(userID, data)
				}
			}
		}
	}
}

func (h *Hub) applyMembership(m membership) {
	if m.op == opJoin {
		if h.rooms[m.sessionID] == nil {
			h.rooms[m.sessionID] = make(map[string]int)
		}
		h.rooms[m.sessionID][m.userID]++
		return
	}

	room, ok := h.rooms[m.sessionID]
	if !ok {
		return
	}
	if m.op == opLeave && room[m.userID] > 1 {
		room[m.userID]--
		return
	}
	delete(room, m.userID)
	if len(room) == 0 {
		delete(h.rooms, m.sessionID)
	}
}

// send queues data on every connection of userID. A full buffer drops the
// message; clients recover by reloading the session.
func (h *Hub) send(userID string, data []byte) {
	for conn := range h.conns[userID] {
		select {
		case conn.Send <- data:
		default:
			h.logger.Debug("dropped message for slow client", zap.String("user", userID))
		}
	}
}

// Stop ends the run loop. Queued messages are discarded.
func (h *Hub) Stop() {
	close(h.done)
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// JoinRoom subscribes userID to the session's events (implements service.Notifier)
func (h *Hub) JoinRoom(sessionID, userID string) {
	h.updateMembership(membership{sessionID: sessionID, userID: userID, op: opJoin})
}

// LeaveRoom drops one subscription of userID (implements service.Notifier)
func (h *Hub) LeaveRoom(sessionID, userID string) {
	h.updateMembership(membership{sessionID: sessionID, userID: userID, op: opLeave})
}

// EvictFromRoom drops every subscription of userID (implements service.Notifier)
func (h *Hub) EvictFromRoom(sessionID, userID string) {
	h.updateMembership(membership{sessionID: sessionID, userID: userID, op: opEvict})
}

func (h *Hub) updateMembership(m membership) {
	select {
	case h.membership <- m:
	case <-h.done:
	}
}

// Broadcast sends a message to everyone in the session room (implements service.Notifier)
func (h *Hub) Broadcast(sessionID, msgType string, payload interface{}) {
	h.enqueue(&BroadcastMessage{Room: sessionID}, msgType, payload)
}

// BroadcastExcept sends a message to the session room except one user (implements service.Notifier)
func (h *Hub) BroadcastExcept(sessionID, exceptUserID, msgType string, payload interface{}) {
	h.enqueue(&BroadcastMessage{Room: sessionID, ExceptUser: exceptUserID}, msgType, payload)
}

// EmitTo sends a message to every connection of one user (implements service.Notifier)
func (h *Hub) EmitTo(userID, msgType string, payload interface{}) {
	h.enqueue(&BroadcastMessage{ToUser: userID}, msgType, payload)
}

func (h *Hub) enqueue(msg *BroadcastMessage, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("encode payload failed", zap.String("type", msgType), zap.Error(err))
		return
	}
	msg.Message = &Message{Type: msgType, Payload: data}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}
