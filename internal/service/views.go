package service

import (
	"github.com/samber/lo"

	"planetguard/internal/engine"
	"planetguard/internal/model"
)

func summarize(s *model.Session) model.SessionSummary {
	return model.SessionSummary{
		ID:          s.ID,
		Mode:        s.Mode,
		MaxPlayers:  s.MaxPlayers,
		Status:      s.Status,
		CreatorID:   s.CreatorID,
		CreatorName: creatorName(s),
		Players: lo.Map(s.Players, func(p model.Player, _ int) model.PlayerSummary {
			return model.PlayerSummary{ID: p.UserID, Username: p.Username, Score: p.Score}
		}),
		PlayerCount: len(s.Players),
		CreatedAt:   s.CreatedAt,
	}
}

func creatorName(s *model.Session) string {
	if p, ok := s.Player(s.CreatorID); ok {
		return p.Username
	}
	return ""
}

// roleVisible reports whether viewerID may see the role of player. The
// creator sees every role; other players only their own until the game is
// over.
func roleVisible(s *model.Session, viewerID string, player *model.Player) bool {
	if player.Role == model.RoleNone {
		return false
	}
	if s.Status == model.SessionCompleted || player.UserID == viewerID {
		return true
	}
	return viewerID != "" && viewerID == s.CreatorID
}

func playerViews(s *model.Session, viewerID string) []model.PlayerView {
	views := make([]model.PlayerView, 0, len(s.Players))
	for i := range s.Players {
		p := &s.Players[i]
		v := model.PlayerView{ID: p.UserID, Username: p.Username, Score: p.Score, TokensEarned: p.TokensEarned}
		if roleVisible(s, viewerID, p) {
			v.Role = lo.ToPtr(p.Role)
		}
		views = append(views, v)
	}
	return views
}

// detailFor is the session as viewerID may see it.
func detailFor(s *model.Session, viewerID string) model.SessionDetail {
	d := model.SessionDetail{
		ID:           s.ID,
		Mode:         s.Mode,
		MaxPlayers:   s.MaxPlayers,
		Status:       s.Status,
		PlanetHealth: s.PlanetHealth,
		CreatorID:    s.CreatorID,
		CreatorName:  creatorName(s),
		Players:      playerViews(s, viewerID),
		CurrentRound: engine.CurrentRoundIndex(s),
		CreatedAt:    s.CreatedAt,
		StartedAt:    s.StartedAt,
		CompletedAt:  s.CompletedAt,
	}
	if p, ok := s.Player(viewerID); ok && p.Role != model.RoleNone {
		d.Role = lo.ToPtr(p.Role)
	}
	if d.CurrentRound >= 0 {
		d.Round = roundView(s, d.CurrentRound, viewerID)
	}
	if s.Outcome != model.OutcomeNone {
		d.Outcome = lo.ToPtr(s.Outcome)
	}
	return d
}

// roundView renders round idx without correct answers or who voted for whom.
// viewerID may be empty for views broadcast to the whole room.
func roundView(s *model.Session, idx int, viewerID string) *model.RoundView {
	if idx < 0 || idx >= len(s.Rounds) {
		return nil
	}
	r := &s.Rounds[idx]
	v := &model.RoundView{
		Index:       idx,
		Type:        r.Type,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
	switch {
	case r.Quiz != nil:
		v.Questions = make([]model.QuestionView, 0, len(r.Quiz.Questions))
		for qi := range r.Quiz.Questions {
			q := &r.Quiz.Questions[qi]
			v.Questions = append(v.Questions, model.QuestionView{
				Index:       qi,
				Text:        q.Text,
				Options:     q.Options,
				AnswerCount: len(q.PlayerAnswers),
			})
			if _, answered := q.AnswerBy(viewerID); viewerID != "" && answered {
				v.AnsweredQuestions = append(v.AnsweredQuestions, qi)
			}
		}
	case r.Battle != nil:
		v.MonstersDefeated = r.Battle.MonstersDefeated
	case r.Vote != nil:
		v.VotesCast = len(r.Vote.Votes)
		_, v.HasVoted = r.Vote.VoteBy(viewerID)
	}
	return v
}

// roleAssignments lists every assigned role for the creator.
func roleAssignments(s *model.Session) []model.RoleAssignment {
	out := make([]model.RoleAssignment, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Role != model.RoleNone {
			out = append(out, model.RoleAssignment{ID: p.UserID, Role: p.Role})
		}
	}
	return out
}

func historyEntry(s *model.Session, userID string) model.HistoryEntry {
	e := model.HistoryEntry{
		ID:          s.ID,
		Mode:        s.Mode,
		Status:      s.Status,
		Outcome:     s.Outcome,
		CreatedAt:   s.CreatedAt,
		CompletedAt: s.CompletedAt,
	}
	if p, ok := s.Player(userID); ok {
		e.Role = p.Role
		e.Score = p.Score
		e.TokensEarned = p.TokensEarned
	}
	return e
}
