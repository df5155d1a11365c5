package engine

import (
	"time"

	"planetguard/internal/model"
)

const (
	monsterDefeatScore  = 20
	monsterDefeatHealth = 3
)

// DefeatOutcome is the effect of one monster defeat
type DefeatOutcome struct {
	MonstersDefeated int
}

// DefeatMonster records a hit by userID. Every attack the server receives
// counts; the imposter's visual misses are a client presentation concern.
func DefeatMonster(s *model.Session, userID, monsterID string, now time.Time) (*DefeatOutcome, error) {
	playerIdx, roundIdx, err := requireActiveRound(s, userID, model.RoundBattle)
	if err != nil {
		return nil, err
	}
	battle := s.Rounds[roundIdx].Battle

	battle.PlayerActions = append(battle.PlayerActions, model.PlayerAction{
		UserID:   userID,
		Action:   model.ActionDefeat,
		TargetID: monsterID,
		At:       now,
	})
	battle.MonstersDefeated++

	player := &s.Players[playerIdx]
	player.Score += monsterDefeatScore
	if player.Role != model.RoleImposter {
		adjustHealth(s, monsterDefeatHealth)
	}
	return &DefeatOutcome{MonstersDefeated: battle.MonstersDefeated}, nil
}

// EndBattle closes the active battle round and opens the vote round.
func EndBattle(s *model.Session, userID string, now time.Time) (Transition, error) {
	_, roundIdx, err := requireActiveRound(s, userID, model.RoundBattle)
	if err != nil {
		return noTransition(), err
	}
	s.Rounds[roundIdx].CompletedAt = &now

	t := noTransition()
	t.CompletedRound = roundIdx
	if len(s.Rounds) == roundIdx+1 {
		s.Rounds = append(s.Rounds, model.NewVoteRound(now))
		t.StartedRound = len(s.Rounds) - 1
	}
	return t, nil
}
