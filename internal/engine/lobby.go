package engine

import (
	"math/rand/v2"
	"time"

	"planetguard/internal/apperr"
	"planetguard/internal/model"
)

// NewSession builds a waiting session with creator as its only player.
func NewSession(id string, creator model.Identity, mode model.Mode, maxPlayers int, now time.Time) (*model.Session, error) {
	if !mode.Valid() {
		return nil, apperr.Validation(apperr.CodeInvalidMode, "mode must be one of imposter, salvation, chaos")
	}
	if maxPlayers == 0 {
		maxPlayers = model.DefaultMaxPlayers
	}
	if maxPlayers < model.MinPlayers || maxPlayers > model.MaxPlayersLimit {
		return nil, apperr.Validation(apperr.CodeInvalidMaxPlayers, "maxPlayers must be between 2 and 8")
	}

	return &model.Session{
		ID:           id,
		Mode:         mode,
		MaxPlayers:   maxPlayers,
		Status:       model.SessionWaiting,
		CreatorID:    creator.UserID,
		Players:      []model.Player{newPlayer(creator, now)},
		Rounds:       []model.Round{},
		PlanetHealth: model.StartingPlanetHealth,
		CreatedAt:    now,
	}, nil
}

// Join adds the user to a waiting session.
func Join(s *model.Session, user model.Identity, now time.Time) error {
	if s.Status != model.SessionWaiting {
		return apperr.IllegalState(apperr.CodeGameAlreadyStarted, "game has already started")
	}
	if s.IsMember(user.UserID) {
		return apperr.Conflict(apperr.CodeAlreadyMember, "you are already in this game")
	}
	if len(s.Players) >= s.MaxPlayers {
		return apperr.Conflict(apperr.CodeGameFull, "game is full")
	}
	s.Players = append(s.Players, newPlayer(user, now))
	return nil
}

// Leave removes the user from a waiting session. If the creator leaves, the
// next remaining player becomes creator. It reports whether the session is
// now empty and should be deleted.
func Leave(s *model.Session, userID string) (bool, error) {
	if s.Status != model.SessionWaiting {
		return false, apperr.IllegalState(apperr.CodeGameAlreadyStarted, "cannot leave a game that has started")
	}
	idx := s.PlayerIndex(userID)
	if idx < 0 {
		return false, apperr.Authorization(apperr.CodeNotMember, "you are not in this game")
	}
	s.Players = append(s.Players[:idx], s.Players[idx+1:]...)

	if len(s.Players) == 0 {
		return true, nil
	}
	if s.CreatorID == userID {
		s.CreatorID = s.Players[0].UserID
	}
	return false, nil
}

// CheckStart reports whether callerID may start the session now.
func CheckStart(s *model.Session, callerID string) error {
	if s.CreatorID != callerID {
		return apperr.Authorization(apperr.CodeNotCreator, "only the creator can start the game")
	}
	if s.Status != model.SessionWaiting {
		return apperr.IllegalState(apperr.CodeGameAlreadyStarted, "game has already started")
	}
	if len(s.Players) < model.MinPlayers {
		return apperr.IllegalState(apperr.CodeNotEnoughPlayers, "need at least 2 players to start")
	}
	return nil
}

// Start moves a waiting session into play: roles are assigned and the quiz
// round is created from questions.
func Start(s *model.Session, callerID string, questions []model.RoundQuestion, rng *rand.Rand, now time.Time) (Transition, error) {
	if err := CheckStart(s, callerID); err != nil {
		return noTransition(), err
	}

	if len(questions) == 0 {
		questions = RoundQuestions(nil)
	}
	AssignRoles(s.Players, rng)
	s.Rounds = append(s.Rounds, model.NewQuizRound(questions, now))
	s.Status = model.SessionInProgress
	s.StartedAt = &now

	t := noTransition()
	t.StartedRound = len(s.Rounds) - 1
	return t, nil
}

func newPlayer(user model.Identity, now time.Time) model.Player {
	return model.Player{UserID: user.UserID, Username: user.Username, JoinedAt: now}
}
