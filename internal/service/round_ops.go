package service

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"planetguard/internal/apperr"
	"planetguard/internal/engine"
	"planetguard/internal/model"
)

// SubmitAnswer records a quiz answer.
func (s *GameService) SubmitAnswer(ctx context.Context, userID, sessionID string, in model.AnswerInput) (*model.AnswerResult, error) {
	if err := requireSessionID(sessionID); err != nil {
		return nil, err
	}
	if in.QuestionIndex == nil || in.AnswerIndex == nil {
		return nil, apperr.Validation(apperr.CodeMissingAnswer, "questionIndex and answerIndex are required")
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	var out *engine.AnswerOutcome
	session, _, err := s.mutate(ctx, sessionID, func(session *model.Session) (commit, error) {
		var err error
		out, err = engine.SubmitAnswer(session, userID, *in.QuestionIndex, *in.AnswerIndex, s.now())
		return commitSave, err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Broadcast(sessionID, EventPlayerAnswered, PlayerAnsweredEvent{
		SessionID:     sessionID,
		UserID:        userID,
		QuestionIndex: out.QuestionIndex,
		PlanetHealth:  session.PlanetHealth,
	})
	s.announceRound(session, out.Transition)

	return &model.AnswerResult{
		IsCorrect:    out.IsCorrect,
		PlanetHealth: session.PlanetHealth,
		CurrentRound: engine.CurrentRoundIndex(session),
	}, nil
}

// DefeatMonster records a monster kill in the battle round.
func (s *GameService) DefeatMonster(ctx context.Context, userID, sessionID string, in model.MonsterInput) (*model.DefeatResult, error) {
	if err := requireSessionID(sessionID); err != nil {
		return nil, err
	}
	if in.MonsterID == "" {
		return nil, apperr.Validation(apperr.CodeMissingMonsterID, "monsterId is required")
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	var out *engine.DefeatOutcome
	session, _, err := s.mutate(ctx, sessionID, func(session *model.Session) (commit, error) {
		var err error
		out, err = engine.DefeatMonster(session, userID, in.MonsterID, s.now())
		return commitSave, err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Broadcast(sessionID, EventMonsterDefeated, MonsterDefeatedEvent{
		SessionID:        sessionID,
		UserID:           userID,
		MonsterID:        in.MonsterID,
		MonstersDefeated: out.MonstersDefeated,
		PlanetHealth:     session.PlanetHealth,
	})
	return &model.DefeatResult{MonstersDefeated: out.MonstersDefeated, PlanetHealth: session.PlanetHealth}, nil
}

// EndBattle closes the battle round and opens the vote.
func (s *GameService) EndBattle(ctx context.Context, userID, sessionID string) (*model.EndBattleResult, error) {
	if err := requireSessionID(sessionID); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	var t engine.Transition
	session, _, err := s.mutate(ctx, sessionID, func(session *model.Session) (commit, error) {
		var err error
		t, err = engine.EndBattle(session, userID, s.now())
		return commitSave, err
	})
	if err != nil {
		return nil, err
	}

	s.announceRound(session, t)
	return &model.EndBattleResult{CurrentRound: engine.CurrentRoundIndex(session)}, nil
}

// SubmitVote records a vote. The last vote resolves the game.
func (s *GameService) SubmitVote(ctx context.Context, userID, sessionID string, in model.VoteInput) (*model.VoteResult, error) {
	if err := requireSessionID(sessionID); err != nil {
		return nil, err
	}
	if in.TargetID == "" {
		return nil, apperr.Validation(apperr.CodeMissingTarget, "targetId is required")
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	var out *engine.VoteOutcome
	session, _, err := s.mutate(ctx, sessionID, func(session *model.Session) (commit, error) {
		var err error
		out, err = engine.SubmitVote(session, userID, in.TargetID, s.now())
		return commitSave, err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Broadcast(sessionID, EventVoteSubmitted, VoteSubmittedEvent{
		SessionID: sessionID,
		VoterID:   userID,
		VotesCast: out.VotesCast,
		AllVoted:  out.AllVoted,
	})

	result := &model.VoteResult{AllVoted: out.AllVoted, VotesCast: out.VotesCast}
	if !out.GameCompleted {
		return result, nil
	}

	result.Outcome = lo.ToPtr(session.Outcome)
	s.notifier.Broadcast(sessionID, EventGameEnded, GameEndedEvent{
		SessionID:        sessionID,
		Outcome:          session.Outcome,
		PlanetHealth:     session.PlanetHealth,
		VotedOutID:       out.VotedOutID,
		ImposterVotedOut: out.ImposterVotedOut,
		Tally:            out.Tally,
		Players:          playerViews(session, ""),
		Rewards:          out.Rewards,
	})
	s.logger.Info("game completed",
		zap.String("session", sessionID),
		zap.String("outcome", string(session.Outcome)),
		zap.String("voted_out", out.VotedOutID),
	)
	s.applyStats(ctx, sessionID, out.Rewards)
	return result, nil
}

// announceRound tells the room about a round opened by t.
func (s *GameService) announceRound(session *model.Session, t engine.Transition) {
	if t.StartedRound < 0 {
		return
	}
	s.notifier.Broadcast(session.ID, EventRoundStarted, RoundStartedEvent{
		SessionID:    session.ID,
		RoundIndex:   t.StartedRound,
		PlanetHealth: session.PlanetHealth,
		Round:        roundView(session, t.StartedRound, ""),
	})
}
