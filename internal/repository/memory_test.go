package repository

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planetguard/internal/engine"
	"planetguard/internal/model"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func playingSession(t *testing.T, id string) *model.Session {
	t.Helper()
	s, err := engine.NewSession(id, model.Identity{UserID: "u0", Username: "ada"}, model.ModeImposter, 4, t0)
	require.NoError(t, err)
	require.NoError(t, engine.Join(s, model.Identity{UserID: "u1", Username: "bo"}, t0))
	_, err = engine.Start(s, "u0", nil, rand.New(rand.NewPCG(1, 1)), t0)
	require.NoError(t, err)
	return s
}

func TestMemorySessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepo()
	s := playingSession(t, "room-1")

	for qi := range s.Rounds[0].Quiz.Questions {
		for _, p := range s.Players {
			_, err := engine.SubmitAnswer(s, p.UserID, qi, 0, t0)
			require.NoError(t, err)
		}
	}
	require.NoError(t, repo.Create(ctx, s))
	assert.Equal(t, int64(1), s.Version)

	loaded, err := repo.GetByID(ctx, "room-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, engine.CurrentRoundIndex(s), engine.CurrentRoundIndex(loaded))
	assert.Equal(t, 1, engine.CurrentRoundIndex(loaded))
	require.Len(t, loaded.Rounds, 2)
	assert.NotNil(t, loaded.Rounds[0].Quiz)
	assert.Nil(t, loaded.Rounds[0].Battle)
	assert.NotNil(t, loaded.Rounds[1].Battle)
	assert.Equal(t, s.PlanetHealth, loaded.PlanetHealth)
	for i := range s.Players {
		assert.Equal(t, s.Players[i].Role, loaded.Players[i].Role)
	}

	loaded.Players[0].Score = 999
	again, err := repo.GetByID(ctx, "room-1")
	require.NoError(t, err)
	assert.NotEqual(t, 999, again.Players[0].Score, "store does not share memory with callers")
}

func TestMemorySessionGetMissing(t *testing.T) {
	s, err := NewMemorySessionRepo().GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestMemorySessionVersionConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepo()
	require.NoError(t, repo.Create(ctx, playingSession(t, "room-1")))

	a, err := repo.GetByID(ctx, "room-1")
	require.NoError(t, err)
	b, err := repo.GetByID(ctx, "room-1")
	require.NoError(t, err)

	a.PlanetHealth = 50
	require.NoError(t, repo.Save(ctx, a))
	assert.Equal(t, int64(2), a.Version)

	b.PlanetHealth = 10
	assert.ErrorIs(t, repo.Save(ctx, b), ErrVersionConflict)

	stored, err := repo.GetByID(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, 50, stored.PlanetHealth)

	assert.ErrorIs(t, repo.Delete(ctx, "room-1", 1), ErrVersionConflict)
	require.NoError(t, repo.Delete(ctx, "room-1", 2))
	gone, err := repo.GetByID(ctx, "room-1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMemorySessionLists(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepo()

	for i, id := range []string{"late", "early"} {
		s, err := engine.NewSession(id, model.Identity{UserID: "u9"}, model.ModeChaos, 4, t0.Add(time.Duration(1-i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, s))
	}
	for i, id := range []string{"done-1", "done-2"} {
		s := playingSession(t, id)
		done := t0.Add(time.Duration(i) * time.Hour)
		s.Status = model.SessionCompleted
		s.CompletedAt = &done
		require.NoError(t, repo.Create(ctx, s))
	}

	waiting, err := repo.ListWaiting(ctx)
	require.NoError(t, err)
	require.Len(t, waiting, 2)
	assert.Equal(t, "early", waiting[0].ID)
	assert.Equal(t, "late", waiting[1].ID)

	history, err := repo.ListCompletedByPlayer(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "done-2", history[0].ID, "newest first")

	none, err := repo.ListCompletedByPlayer(ctx, "u9")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryQuestionSample(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryQuestionRepo(
		model.Question{ID: "1", Category: "science"},
		model.Question{ID: "2", Category: "science"},
		model.Question{ID: "3", Category: "music"},
		model.Question{ID: "4", Category: "art"},
	)

	got, err := repo.Sample(ctx, []string{"science", "music"}, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2", "3"}, ids(got))

	got, err = repo.Sample(ctx, []string{"science", "music"}, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.Sample(ctx, []string{"history"}, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, repo.IncrementUsage(ctx, []string{"1", "4"}))
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func ids(questions []model.Question) []string {
	out := make([]string, len(questions))
	for i, q := range questions {
		out[i] = q.ID
	}
	return out
}

func TestMemoryProfileStats(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProfileRepo()
	require.NoError(t, repo.Upsert(ctx, &model.Profile{ID: "u0", Username: "ada", Interests: []string{"science"}}))

	delta := model.StatsDelta{GamesPlayed: 1, GamesWon: 1, TokensEarned: 200}
	require.NoError(t, repo.ApplyStats(ctx, "u0", "ada", delta))
	require.NoError(t, repo.ApplyStats(ctx, "u0", "ada", delta))
	require.NoError(t, repo.ApplyStats(ctx, "u7", "new", delta))

	p, err := repo.GetByID(ctx, "u0")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stats.GamesPlayed)
	assert.Equal(t, 400, p.Stats.TokensEarned)
	assert.Equal(t, []string{"science"}, p.Interests)

	fresh, err := repo.GetByID(ctx, "u7")
	require.NoError(t, err)
	assert.Equal(t, "new", fresh.Username)
	assert.Equal(t, 1, fresh.Stats.GamesWon)

	interests, err := repo.GetInterests(ctx, []string{"u0", "u7", "missing"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"science"}, {}}, interests)
}
