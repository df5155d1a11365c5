// Package reward computes per-player token rewards and lifetime stats
// increments for a completed session.
package reward

import (
	"github.com/samber/lo"

	"planetguard/internal/apperr"
	"planetguard/internal/model"
)

const (
	participationTokens  = 50
	winTokens            = 100
	correctAnswerTokens  = 5
	monsterDefeatTokens  = 2
	identificationTokens = 50
	scoreTokenDivisor    = 10
)

// Reward is what one player earned from a completed session.
type Reward struct {
	UserID             string     `json:"userId"`
	Username           string     `json:"username"`
	Role               model.Role `json:"role"`
	Tokens             int        `json:"tokens"`
	Won                bool       `json:"won"`
	CorrectAnswers     int        `json:"correctAnswers"`
	MonstersDefeated   int        `json:"monstersDefeated"`
	IdentifiedImposter bool       `json:"identifiedImposter"`
}

// Stats returns the lifetime increment this reward contributes to the
// player's profile.
func (r Reward) Stats() model.StatsDelta {
	d := model.StatsDelta{
		GamesPlayed:      1,
		CorrectAnswers:   r.CorrectAnswers,
		MonstersDefeated: r.MonstersDefeated,
		TokensEarned:     r.Tokens,
	}
	if r.Won {
		d.GamesWon = 1
	}
	if r.IdentifiedImposter {
		d.CorrectImpostersIdentified = 1
	}
	return d
}

// Compute derives every player's reward from a completed session. It does
// not modify the session.
func Compute(s *model.Session) ([]Reward, error) {
	if s.Status != model.SessionCompleted || s.Outcome == model.OutcomeNone {
		return nil, apperr.IllegalState(apperr.CodeGameNotCompleted, "rewards need a completed game")
	}

	rewards := make([]Reward, 0, len(s.Players))
	for i := range s.Players {
		p := &s.Players[i]
		r := Reward{
			UserID:             p.UserID,
			Username:           p.Username,
			Role:               p.Role,
			Won:                p.Won(s.Outcome),
			CorrectAnswers:     correctAnswers(s, p.UserID),
			MonstersDefeated:   monsterDefeats(s, p.UserID),
			IdentifiedImposter: identifiedImposter(s, p),
		}

		tokens := participationTokens
		if r.Won {
			tokens += winTokens
		}
		tokens += p.Score / scoreTokenDivisor
		tokens += correctAnswerTokens * r.CorrectAnswers
		tokens += monsterDefeatTokens * r.MonstersDefeated
		if r.IdentifiedImposter {
			tokens += identificationTokens
		}
		r.Tokens = tokens
		rewards = append(rewards, r)
	}
	return rewards, nil
}

// Apply computes rewards and writes them to each player's TokensEarned.
// Callers must invoke it exactly once per session.
func Apply(s *model.Session) ([]Reward, error) {
	rewards, err := Compute(s)
	if err != nil {
		return nil, err
	}
	for i, r := range rewards {
		s.Players[i].TokensEarned = r.Tokens
	}
	return rewards, nil
}

func correctAnswers(s *model.Session, userID string) int {
	n := 0
	for _, round := range s.Rounds {
		if round.Quiz == nil {
			continue
		}
		n += lo.CountBy(round.Quiz.Questions, func(q model.RoundQuestion) bool {
			a, ok := q.AnswerBy(userID)
			return ok && a.IsCorrect
		})
	}
	return n
}

func monsterDefeats(s *model.Session, userID string) int {
	n := 0
	for _, round := range s.Rounds {
		if round.Battle == nil {
			continue
		}
		n += lo.CountBy(round.Battle.PlayerActions, func(a model.PlayerAction) bool {
			return a.UserID == userID && a.Action == model.ActionDefeat
		})
	}
	return n
}

// identifiedImposter reports whether a defender on the winning team voted for
// an imposter.
func identifiedImposter(s *model.Session, p *model.Player) bool {
	if p.Role != model.RoleDefender || s.Outcome != model.OutcomeTeamWin {
		return false
	}
	for _, round := range s.Rounds {
		if round.Vote == nil {
			continue
		}
		vote, ok := round.Vote.VoteBy(p.UserID)
		if !ok {
			continue
		}
		target, ok := s.Player(vote.TargetID)
		if ok && target.Role == model.RoleImposter {
			return true
		}
	}
	return false
}
