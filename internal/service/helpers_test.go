package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"planetguard/internal/cache"
	"planetguard/internal/model"
	"planetguard/internal/repository"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type sentEvent struct {
	Room    string
	To      string
	Except  string
	Type    string
	Payload interface{}
}

// fakeNotifier records every event instead of delivering it.
type fakeNotifier struct {
	mu     sync.Mutex
	events []sentEvent
	rooms  map[string]map[string]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{rooms: make(map[string]map[string]bool)}
}

func (n *fakeNotifier) JoinRoom(sessionID, userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.rooms[sessionID] == nil {
		n.rooms[sessionID] = make(map[string]bool)
	}
	n.rooms[sessionID][userID] = true
}

func (n *fakeNotifier) LeaveRoom(sessionID, userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.rooms[sessionID], userID)
}

func (n *fakeNotifier) EvictFromRoom(sessionID, userID string) {
	n.LeaveRoom(sessionID, userID)
}

func (n *fakeNotifier) Broadcast(sessionID, msgType string, payload interface{}) {
	n.record(sentEvent{Room: sessionID, Type: msgType, Payload: payload})
}

func (n *fakeNotifier) BroadcastExcept(sessionID, exceptUserID, msgType string, payload interface{}) {
	n.record(sentEvent{Room: sessionID, Except: exceptUserID, Type: msgType, Payload: payload})
}

func (n *fakeNotifier) EmitTo(userID, msgType string, payload interface{}) {
	n.record(sentEvent{To: userID, Type: msgType, Payload: payload})
}

func (n *fakeNotifier) record(e sentEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *fakeNotifier) ofType(msgType string) []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentEvent
	for _, e := range n.events {
		if e.Type == msgType {
			out = append(out, e)
		}
	}
	return out
}

func (n *fakeNotifier) inRoom(sessionID, userID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rooms[sessionID][userID]
}

// flakySessions fails the first failSaves saves and can simulate another
// process committing right before a save. The next lostAcks saves are
// applied but still report a failure. When gate is set, loads block
// until it is closed or their context ends.
type flakySessions struct {
	*repository.MemorySessionRepo

	mu           sync.Mutex
	failSaves    int
	failLoads    int
	lostAcks     int
	gate         chan struct{}
	interleave   func(ctx context.Context, id string)
	saves, loads int
}

func (f *flakySessions) GetByID(ctx context.Context, id string) (*model.Session, error) {
	f.mu.Lock()
	f.loads++
	fail := f.failLoads > 0
	if fail {
		f.failLoads--
	}
	gate := f.gate
	f.mu.Unlock()
	if fail {
		return nil, errors.New("server selection timeout")
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.MemorySessionRepo.GetByID(ctx, id)
}

func (f *flakySessions) Save(ctx context.Context, s *model.Session) error {
	f.mu.Lock()
	f.saves++
	fail := f.failSaves > 0
	if fail {
		f.failSaves--
	}
	lost := !fail && f.lostAcks > 0
	if lost {
		f.lostAcks--
	}
	interleave := f.interleave
	f.interleave = nil
	f.mu.Unlock()

	if fail {
		return errors.New("connection reset by peer")
	}
	if interleave != nil {
		interleave(ctx, s.ID)
	}
	if err := f.MemorySessionRepo.Save(ctx, s); err != nil || !lost {
		return err
	}
	return errors.New("incomplete read of message header: EOF")
}

func (f *flakySessions) counts() (loads, saves int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads, f.saves
}

// brokenSnapshots fails the next failSets writes to the wrapped cache.
type brokenSnapshots struct {
	cache.SessionCache

	mu       sync.Mutex
	failSets int
}

func (b *brokenSnapshots) Set(ctx context.Context, session *model.Session) error {
	b.mu.Lock()
	fail := b.failSets > 0
	if fail {
		b.failSets--
	}
	b.mu.Unlock()
	if fail {
		return errors.New("redis: connection pool timeout")
	}
	return b.SessionCache.Set(ctx, session)
}

// fakeLeaderboard is an in-memory cache.LeaderboardCache.
type fakeLeaderboard struct {
	mu     sync.Mutex
	tokens map[string]int
}

func (l *fakeLeaderboard) AddTokens(_ context.Context, userID, _ string, tokens int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens[userID] += tokens
	return nil
}

func (l *fakeLeaderboard) GetTop(_ context.Context, limit int) ([]cache.LeaderboardEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []cache.LeaderboardEntry
	for id, n := range l.tokens {
		out = append(out, cache.LeaderboardEntry{UserID: id, Tokens: n})
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *fakeLeaderboard) GetRank(context.Context, string) (int64, error) {
	return -1, nil
}

type fixture struct {
	svc         *GameService
	sessions    *flakySessions
	questions   *repository.MemoryQuestionRepo
	profiles    *repository.MemoryProfileRepo
	notifier    *fakeNotifier
	leaderboard *fakeLeaderboard
}

func newFixture(t *testing.T, questions ...model.Question) *fixture {
	t.Helper()
	f := &fixture{
		sessions:    &flakySessions{MemorySessionRepo: repository.NewMemorySessionRepo()},
		questions:   repository.NewMemoryQuestionRepo(questions...),
		profiles:    repository.NewMemoryProfileRepo(),
		notifier:    newFakeNotifier(),
		leaderboard: &fakeLeaderboard{tokens: make(map[string]int)},
	}
	f.svc = f.newService()
	return f
}

// newService builds another gateway over the same stores, like a second
// server process would.
func (f *fixture) newService() *GameService {
	svc := NewGameService(f.sessions, f.questions, f.profiles, zap.NewNop(), GameOptions{
		StoreTimeout: time.Second,
		Retries:      3,
		RetryBackoff: time.Millisecond,
	})
	svc.SetNotifier(f.notifier)
	svc.SetLeaderboard(f.leaderboard)
	svc.now = func() time.Time { return t0 }
	svc.rng = rand.New(rand.NewPCG(11, 22))
	return svc
}

func user(n int) model.Identity {
	return model.Identity{UserID: fmt.Sprintf("u%d", n), Username: fmt.Sprintf("player%d", n)}
}

func generalQuestion(id string, correct int) model.Question {
	return model.Question{
		ID:            id,
		Text:          "question " + id,
		Options:       []string{"a", "b", "c", "d"},
		CorrectAnswer: correct,
		Category:      model.CategoryGeneral,
		Difficulty:    model.DifficultyEasy,
	}
}

func intPtr(n int) *int { return &n }

// lobby creates a session owned by user(0) with players-1 more members.
func (f *fixture) lobby(t *testing.T, players, maxPlayers int) string {
	t.Helper()
	ctx := context.Background()
	summary, err := f.svc.CreateSession(ctx, user(0), model.CreateSessionRequest{Mode: model.ModeSalvation, MaxPlayers: maxPlayers})
	require.NoError(t, err)
	for i := 1; i < players; i++ {
		_, err := f.svc.JoinSession(ctx, user(i), summary.ID)
		require.NoError(t, err)
	}
	return summary.ID
}

// started creates and starts a session and returns the id and the imposter.
func (f *fixture) started(t *testing.T, players int) (string, string) {
	t.Helper()
	id := f.lobby(t, players, model.MaxPlayersLimit)
	_, err := f.svc.StartSession(context.Background(), "u0", id)
	require.NoError(t, err)
	return id, f.imposter(t, id)
}

func (f *fixture) stored(t *testing.T, id string) *model.Session {
	t.Helper()
	s, err := f.sessions.MemorySessionRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

func (f *fixture) imposter(t *testing.T, id string) string {
	t.Helper()
	for _, p := range f.stored(t, id).Players {
		if p.Role == model.RoleImposter {
			return p.UserID
		}
	}
	t.Fatal("no imposter assigned")
	return ""
}
