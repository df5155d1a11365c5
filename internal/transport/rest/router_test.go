package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planetguard/internal/model"
	"planetguard/internal/repository"
	"planetguard/internal/service"
	"planetguard/internal/transport/ws"
)

type testAPI struct {
	handler http.Handler
	auth    *service.AuthService
	games   *service.GameService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	questions := repository.NewMemoryQuestionRepo(model.Question{
		ID:            "q1",
		Text:          "2+2?",
		Options:       []string{"3", "4", "5", "6"},
		CorrectAnswer: 1,
		Category:      model.CategoryGeneral,
	})
	games := service.NewGameService(
		repository.NewMemorySessionRepo(),
		questions,
		repository.NewMemoryProfileRepo(),
		nil,
		service.DefaultGameOptions(),
	)
	hub := ws.NewHub(nil)
	t.Cleanup(hub.Stop)
	games.SetNotifier(hub)

	auth := service.NewAuthService("test-secret", time.Hour)
	return &testAPI{
		handler: NewRouter(&Container{AuthService: auth, GameService: games, WSHub: hub}),
		auth:    auth,
		games:   games,
	}
}

func (a *testAPI) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := a.auth.IssueToken(userID, "name-"+userID)
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+a.token(t, userID))
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decode[map[string]string](t, rec)
	assert.Equal(t, code, body["code"])
	assert.NotEmpty(t, body["error"])
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/v1/games", "", nil)
	requireError(t, rec, http.StatusUnauthorized, "MISSING_TOKEN")

	req := httptest.NewRequest(http.MethodGet, "/v1/games", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	requireError(t, rec, http.StatusUnauthorized, "INVALID_TOKEN")
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodOptions, "/v1/games", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGameLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/v1/games", "alice", map[string]interface{}{"mode": "salvation", "maxPlayers": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.SessionSummary](t, rec)
	assert.Equal(t, "name-alice", created.CreatorName)
	assert.Equal(t, model.SessionWaiting, created.Status)
	base := "/v1/games/" + created.ID

	rec = api.do(t, http.MethodGet, "/v1/games", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[map[string][]model.SessionSummary](t, rec)
	require.Len(t, list["games"], 1)

	rec = api.do(t, http.MethodPost, base+"/join", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[model.SessionSummary](t, rec).PlayerCount)

	requireError(t, api.do(t, http.MethodPost, base+"/join", "carol", nil), http.StatusConflict, "GAME_FULL")
	requireError(t, api.do(t, http.MethodPost, base+"/start", "bob", nil), http.StatusForbidden, "NOT_CREATOR")

	rec = api.do(t, http.MethodPost, base+"/start", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	started := decode[model.StartResult](t, rec)
	assert.Equal(t, 0, started.CurrentRound)
	require.NotNil(t, started.Round)
	require.Len(t, started.Round.Questions, 1)
	assert.NotContains(t, rec.Body.String(), "correctAnswer")
	assert.Len(t, started.Roles, 2, "the creator gets every role")

	requireError(t, api.do(t, http.MethodPost, base+"/vote", "alice", map[string]string{"targetId": "bob"}),
		http.StatusUnprocessableEntity, "WRONG_ROUND")
	requireError(t, api.do(t, http.MethodPost, base+"/answer", "alice", map[string]int{"questionIndex": 0}),
		http.StatusBadRequest, "MISSING_ANSWER")
	requireError(t, api.do(t, http.MethodPost, base+"/leave", "alice", nil),
		http.StatusUnprocessableEntity, "GAME_ALREADY_STARTED")

	for _, user := range []string{"alice", "bob"} {
		rec = api.do(t, http.MethodPost, base+"/answer", user, map[string]int{"questionIndex": 0, "answerIndex": 1})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	assert.Equal(t, 1, decode[model.AnswerResult](t, rec).CurrentRound)

	rec = api.do(t, http.MethodPost, base+"/monster", "bob", map[string]string{"monsterId": "m-1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[model.DefeatResult](t, rec).MonstersDefeated)

	rec = api.do(t, http.MethodPost, base+"/battle/end", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[model.EndBattleResult](t, rec).CurrentRound)

	requireError(t, api.do(t, http.MethodPost, base+"/vote", "alice", map[string]string{"targetId": "alice"}),
		http.StatusBadRequest, "SELF_VOTE")

	rec = api.do(t, http.MethodPost, base+"/vote", "alice", map[string]string{"targetId": "bob"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(t, http.MethodPost, base+"/vote", "bob", map[string]string{"targetId": "alice"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	vote := decode[model.VoteResult](t, rec)
	assert.True(t, vote.AllVoted)
	require.NotNil(t, vote.Outcome)

	rec = api.do(t, http.MethodGet, base, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[model.SessionDetail](t, rec)
	assert.Equal(t, model.SessionCompleted, detail.Status)
	for _, p := range detail.Players {
		assert.NotNil(t, p.Role)
	}

	rec = api.do(t, http.MethodGet, "/v1/games/history", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[map[string][]model.HistoryEntry](t, rec)
	require.Len(t, history["games"], 1)
	assert.Equal(t, created.ID, history["games"][0].ID)

	api.games.Wait()
	rec = api.do(t, http.MethodGet, "/v1/me/stats", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[model.Stats](t, rec)
	assert.Equal(t, 1, stats.GamesPlayed)
	assert.Positive(t, stats.TokensEarned)
}

func TestUnknownGameAndBadBody(t *testing.T) {
	api := newTestAPI(t)
	requireError(t, api.do(t, http.MethodGet, "/v1/games/nope", "alice", nil), http.StatusNotFound, "SESSION_NOT_FOUND")

	req := httptest.NewRequest(http.MethodPost, "/v1/games", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+api.token(t, "alice"))
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	requireError(t, rec, http.StatusBadRequest, "INVALID_PAYLOAD")

	requireError(t, api.do(t, http.MethodPost, "/v1/games", "alice", map[string]string{"mode": "arcade"}),
		http.StatusBadRequest, "INVALID_MODE")
}

func TestLeaderboardIsPublic(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/v1/leaderboard?top=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"leaderboard":[]}`, rec.Body.String())
}
