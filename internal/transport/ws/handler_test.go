package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planetguard/internal/model"
	"planetguard/internal/repository"
	"planetguard/internal/service"
)

type wsEnv struct {
	server *httptest.Server
	auth   *service.AuthService
	games  *service.GameService
}

func newWSEnv(t *testing.T) *wsEnv {
	t.Helper()
	games := service.NewGameService(
		repository.NewMemorySessionRepo(),
		repository.NewMemoryQuestionRepo(model.Question{
			ID:            "q1",
			Text:          "Largest planet?",
			Options:       []string{"Mars", "Jupiter", "Venus", "Earth"},
			CorrectAnswer: 1,
			Category:      model.CategoryGeneral,
		}),
		repository.NewMemoryProfileRepo(),
		nil,
		service.DefaultGameOptions(),
	)
	hub := NewHub(nil)
	games.SetNotifier(hub)
	auth := service.NewAuthService("ws-secret", time.Hour)

	server := httptest.NewServer(http.HandlerFunc(NewHandler(hub, auth, games, nil).ServeWS))
	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})
	return &wsEnv{server: server, auth: auth, games: games}
}

func (e *wsEnv) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	token, err := e.auth.IssueToken(userID, "name-"+userID)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{Type: msgType, Payload: data}))
}

// readUntil reads messages until one of msgType arrives. Events and replies
// travel different paths, so their relative order is not fixed.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", msgType)
		if msg.Type == msgType {
			return msg.Payload
		}
	}
}

func TestRejectsMissingToken(t *testing.T) {
	env := newWSEnv(t)
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestJoinGameAndPlayQuiz(t *testing.T) {
	env := newWSEnv(t)
	ctx := context.Background()

	summary, err := env.games.CreateSession(ctx, model.Identity{UserID: "alice", Username: "name-alice"}, model.CreateSessionRequest{Mode: model.ModeImposter})
	require.NoError(t, err)
	_, err = env.games.JoinSession(ctx, model.Identity{UserID: "bob", Username: "name-bob"}, summary.ID)
	require.NoError(t, err)

	alice := env.dial(t, "alice")
	bob := env.dial(t, "bob")

	send(t, alice, MsgJoinGame, map[string]string{"gameId": summary.ID})
	var state model.SessionDetail
	require.NoError(t, json.Unmarshal(readUntil(t, alice, service.EventGameState), &state))
	assert.Equal(t, summary.ID, state.ID)
	assert.Len(t, state.Players, 2)

	send(t, bob, MsgJoinGame, map[string]string{"gameId": summary.ID})
	readUntil(t, bob, service.EventGameState)

	var presence service.PresenceEvent
	require.NoError(t, json.Unmarshal(readUntil(t, alice, service.EventPresence), &presence))
	assert.Equal(t, "bob", presence.UserID)
	assert.True(t, presence.Present)

	_, err = env.games.StartSession(ctx, "alice", summary.ID)
	require.NoError(t, err)

	var started service.GameStartedEvent
	require.NoError(t, json.Unmarshal(readUntil(t, bob, service.EventGameStarted), &started))
	require.NotNil(t, started.Session.Role)
	for _, p := range started.Session.Players {
		if p.ID != "bob" {
			assert.Nil(t, p.Role)
		}
	}

	send(t, bob, MsgSubmitAnswer, map[string]int{"questionIndex": 0, "answerIndex": 1})
	payload := readUntil(t, bob, MsgError)
	var errEvent ErrorEvent
	require.NoError(t, json.Unmarshal(payload, &errEvent))
	assert.Equal(t, MsgSubmitAnswer, errEvent.Action)
	assert.Equal(t, "MISSING_SESSION_ID", errEvent.Code)

	send(t, bob, MsgSubmitAnswer, map[string]interface{}{"gameId": summary.ID, "questionIndex": 0, "answerIndex": 1})
	var result struct {
		Action string             `json:"action"`
		Result model.AnswerResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(readUntil(t, bob, MsgActionResult), &result))
	assert.Equal(t, MsgSubmitAnswer, result.Action)
	assert.True(t, result.Result.IsCorrect)

	var answered service.PlayerAnsweredEvent
	require.NoError(t, json.Unmarshal(readUntil(t, alice, service.EventPlayerAnswered), &answered))
	assert.Equal(t, "bob", answered.UserID)
}

func TestRelaysRequireJoinedRoom(t *testing.T) {
	env := newWSEnv(t)
	ctx := context.Background()
	summary, err := env.games.CreateSession(ctx, model.Identity{UserID: "alice", Username: "name-alice"}, model.CreateSessionRequest{Mode: model.ModeChaos})
	require.NoError(t, err)

	alice := env.dial(t, "alice")

	send(t, alice, MsgChat, map[string]string{"gameId": summary.ID, "message": "hi"})
	var errEvent ErrorEvent
	require.NoError(t, json.Unmarshal(readUntil(t, alice, MsgError), &errEvent))
	assert.Equal(t, "NOT_A_MEMBER", errEvent.Code)

	send(t, alice, MsgJoinGame, map[string]string{"gameId": summary.ID})
	readUntil(t, alice, service.EventGameState)

	send(t, alice, MsgChat, map[string]string{"gameId": summary.ID, "message": "  hello team  "})
	var chat service.ChatMessageEvent
	require.NoError(t, json.Unmarshal(readUntil(t, alice, service.EventChatMessage), &chat))
	assert.Equal(t, "hello team", chat.Message)
	assert.Equal(t, "name-alice", chat.Username)

	send(t, alice, MsgSpawnMonster, map[string]string{"gameId": summary.ID})
	var spawned MonsterSpawnedEvent
	require.NoError(t, json.Unmarshal(readUntil(t, alice, service.EventMonsterSpawned), &spawned))
	assert.NotEmpty(t, spawned.Monster.ID)
	assert.Equal(t, 100, spawned.Monster.Health)
	assert.GreaterOrEqual(t, spawned.Monster.Size, 40)
	assert.LessOrEqual(t, spawned.Monster.Size, 80)
	assert.GreaterOrEqual(t, spawned.Monster.Position.X, 10)
	assert.LessOrEqual(t, spawned.Monster.Position.Y, 90)

	send(t, alice, "dance", map[string]string{"gameId": summary.ID})
	require.NoError(t, json.Unmarshal(readUntil(t, alice, MsgError), &errEvent))
	assert.Equal(t, "dance", errEvent.Action)
	assert.Equal(t, "INVALID_PAYLOAD", errEvent.Code)
}

func TestJoinGameRequiresMembership(t *testing.T) {
	env := newWSEnv(t)
	summary, err := env.games.CreateSession(context.Background(), model.Identity{UserID: "alice", Username: "a"}, model.CreateSessionRequest{Mode: model.ModeImposter})
	require.NoError(t, err)

	mallory := env.dial(t, "mallory")
	send(t, mallory, MsgJoinGame, map[string]string{"gameId": summary.ID})
	var errEvent ErrorEvent
	require.NoError(t, json.Unmarshal(readUntil(t, mallory, MsgError), &errEvent))
	assert.Equal(t, MsgJoinGame, errEvent.Action)
	assert.Equal(t, "NOT_A_MEMBER", errEvent.Code)
}
