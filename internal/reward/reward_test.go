package reward

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planetguard/internal/apperr"
	"planetguard/internal/model"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// completedSession is a three player game: u2 is the imposter. u0 and u1
// vote for u2, u2 votes for u0.
func completedSession() *model.Session {
	q1 := model.RoundQuestion{
		QuestionID: "q1", CorrectAnswer: 1,
		PlayerAnswers: []model.PlayerAnswer{
			{UserID: "u0", AnswerIndex: 1, IsCorrect: true},
			{UserID: "u1", AnswerIndex: 0},
			{UserID: "u2", AnswerIndex: 1, IsCorrect: true},
		},
	}
	q2 := model.RoundQuestion{
		QuestionID: "q2", CorrectAnswer: 0,
		PlayerAnswers: []model.PlayerAnswer{
			{UserID: "u0", AnswerIndex: 0, IsCorrect: true},
			{UserID: "u1", AnswerIndex: 0, IsCorrect: true},
			{UserID: "u2", AnswerIndex: 3},
		},
	}
	quiz := model.NewQuizRound([]model.RoundQuestion{q1, q2}, now)
	quiz.CompletedAt = &now

	battle := model.NewBattleRound(now)
	battle.CompletedAt = &now
	battle.Battle.MonstersDefeated = 3
	battle.Battle.PlayerActions = []model.PlayerAction{
		{UserID: "u0", Action: model.ActionDefeat, TargetID: "m1"},
		{UserID: "u1", Action: model.ActionDefeat, TargetID: "m2"},
		{UserID: "u1", Action: model.ActionDefeat, TargetID: "m3"},
	}

	vote := model.NewVoteRound(now)
	vote.CompletedAt = &now
	vote.Vote.Votes = []model.Vote{
		{VoterID: "u0", TargetID: "u2"},
		{VoterID: "u1", TargetID: "u2"},
		{VoterID: "u2", TargetID: "u0"},
	}

	return &model.Session{
		ID:     "room",
		Status: model.SessionCompleted,
		Players: []model.Player{
			{UserID: "u0", Username: "ada", Role: model.RoleDefender, Score: 40},
			{UserID: "u1", Username: "bo", Role: model.RoleDefender, Score: 50},
			{UserID: "u2", Username: "cy", Role: model.RoleImposter, Score: 10},
		},
		Rounds:       []model.Round{quiz, battle, vote},
		PlanetHealth: model.MaxPlanetHealth,
		Outcome:      model.OutcomeTeamWin,
		CompletedAt:  &now,
	}
}

func TestComputeImposterCaught(t *testing.T) {
	rewards, err := Compute(completedSession())
	require.NoError(t, err)
	require.Len(t, rewards, 3)

	// 50 + 100 + 40/10 + 5*2 + 2*1 + 50
	assert.Equal(t, Reward{
		UserID: "u0", Username: "ada", Role: model.RoleDefender, Tokens: 216,
		Won: true, CorrectAnswers: 2, MonstersDefeated: 1, IdentifiedImposter: true,
	}, rewards[0])
	// 50 + 100 + 50/10 + 5*1 + 2*2 + 50
	assert.Equal(t, 214, rewards[1].Tokens)
	assert.True(t, rewards[1].IdentifiedImposter)
	// 50 + 10/10 + 5*1
	assert.Equal(t, 56, rewards[2].Tokens)
	assert.False(t, rewards[2].Won)
	assert.False(t, rewards[2].IdentifiedImposter)
}

func TestComputeImposterWins(t *testing.T) {
	s := completedSession()
	s.Outcome = model.OutcomeImposterWin
	s.PlanetHealth = 0

	rewards, err := Compute(s)
	require.NoError(t, err)
	assert.False(t, rewards[0].IdentifiedImposter, "no identification bonus without a team win")
	assert.Equal(t, 66, rewards[0].Tokens)
	assert.True(t, rewards[2].Won)
	assert.Equal(t, 156, rewards[2].Tokens)
}

func TestComputeIsDeterministic(t *testing.T) {
	first, err := Compute(completedSession())
	require.NoError(t, err)
	second, err := Compute(completedSession())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeRequiresCompletedSession(t *testing.T) {
	s := completedSession()
	s.Status = model.SessionInProgress
	_, err := Compute(s)
	assert.Equal(t, apperr.CodeGameNotCompleted, apperr.CodeOf(err))

	_, err = Apply(s)
	assert.Equal(t, apperr.KindIllegalState, apperr.KindOf(err))
	assert.Zero(t, s.Players[0].TokensEarned)
}

func TestApplyWritesTokens(t *testing.T) {
	s := completedSession()
	rewards, err := Apply(s)
	require.NoError(t, err)
	for i, r := range rewards {
		assert.Equal(t, r.Tokens, s.Players[i].TokensEarned)
	}
}

func TestStats(t *testing.T) {
	rewards, err := Compute(completedSession())
	require.NoError(t, err)

	assert.Equal(t, model.StatsDelta{
		GamesPlayed: 1, GamesWon: 1, CorrectAnswers: 2, MonstersDefeated: 1,
		CorrectImpostersIdentified: 1, TokensEarned: 216,
	}, rewards[0].Stats())

	assert.Equal(t, model.StatsDelta{
		GamesPlayed: 1, CorrectAnswers: 1, TokensEarned: 56,
	}, rewards[2].Stats())
}
