// Package engine holds the authoritative game rules. Every function here
// operates on an already loaded session and never touches storage; the
// session gateway serializes calls per session and persists the result.
package engine

import (
	"planetguard/internal/apperr"
	"planetguard/internal/model"
)

// Transition describes how an action moved the session's round pointer.
type Transition struct {
	CompletedRound int  `json:"completedRound"`
	StartedRound   int  `json:"startedRound"`
	GameCompleted  bool `json:"gameCompleted"`
}

func noTransition() Transition {
	return Transition{CompletedRound: -1, StartedRound: -1}
}

// RoundCompleted reports whether the action closed a round.
func (t Transition) RoundCompleted() bool {
	return t.CompletedRound >= 0
}

// CurrentRoundIndex returns the index of the earliest round that has not
// been completed, or -1 if the session is not in progress or every round is
// complete.
func CurrentRoundIndex(s *model.Session) int {
	if s.Status != model.SessionInProgress {
		return -1
	}
	for i := range s.Rounds {
		if !s.Rounds[i].Completed() {
			return i
		}
	}
	return -1
}

// ActiveRound returns the round CurrentRoundIndex points at.
func ActiveRound(s *model.Session) (*model.Round, int) {
	idx := CurrentRoundIndex(s)
	if idx < 0 {
		return nil, -1
	}
	return &s.Rounds[idx], idx
}

// requireActiveRound runs the shared preconditions of every in-game action:
// the session is in progress, the actor is a member and the active round is
// of the wanted type. It returns the actor's player index and the active
// round index.
func requireActiveRound(s *model.Session, userID string, want model.RoundType) (int, int, error) {
	if s.Status != model.SessionInProgress {
		return -1, -1, apperr.IllegalState(apperr.CodeGameNotInProgress, "game is not in progress")
	}
	playerIdx := s.PlayerIndex(userID)
	if playerIdx < 0 {
		return -1, -1, apperr.Authorization(apperr.CodeNotMember, "you are not in this game")
	}
	round, roundIdx := ActiveRound(s)
	if round == nil || round.Type != want {
		return -1, -1, apperr.IllegalState(apperr.CodeWrongRound, "current round is not "+string(want))
	}
	return playerIdx, roundIdx, nil
}

// adjustHealth applies delta to the planet and keeps it within [0,100].
func adjustHealth(s *model.Session, delta int) {
	s.PlanetHealth = clampHealth(s.PlanetHealth + delta)
}

func clampHealth(h int) int {
	if h < 0 {
		return 0
	}
	if h > model.MaxPlanetHealth {
		return model.MaxPlanetHealth
	}
	return h
}
