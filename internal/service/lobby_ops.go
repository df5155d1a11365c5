package service

import (
	"context"

	"go.uber.org/zap"

	"planetguard/internal/apperr"
	"planetguard/internal/engine"
	"planetguard/internal/model"
)

// CreateSession opens a new waiting session with user as creator and only
// player.
func (s *GameService) CreateSession(ctx context.Context, user model.Identity, req model.CreateSessionRequest) (*model.SessionSummary, error) {
	session, err := engine.NewSession(s.newID(), user, req.Mode, req.MaxPlayers, s.now())
	if err != nil {
		return nil, err
	}

	err = s.retry(ctx, "create session", func() error {
		cctx, cancel := s.storeCtx(ctx)
		defer cancel()
		if err := s.sessions.Create(cctx, session); err != nil {
			return apperr.TransientStorage("create session", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.syncSnapshot(ctx, session, commitSave)

	s.logger.Info("game created",
		zap.String("session", session.ID),
		zap.String("creator", user.UserID),
		zap.String("mode", string(session.Mode)),
		zap.Int("max_players", session.MaxPlayers),
	)
	summary := summarize(session)
	return &summary, nil
}

// JoinSession adds user to a waiting session.
func (s *GameService) JoinSession(ctx context.Context, user model.Identity, sessionID string) (*model.SessionSummary, error) {
	if err := requireSessionID(sessionID); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, _, err := s.mutate(ctx, sessionID, func(session *model.Session) (commit, error) {
		return commitSave, engine.Join(session, user, s.now())
	})
	if err != nil {
		return nil, err
	}

	summary := summarize(session)
	player, _ := session.Player(user.UserID)
	s.notifier.Broadcast(sessionID, EventPlayerJoined, PlayerJoinedEvent{
		SessionID: sessionID,
		Player:    model.PlayerSummary{ID: player.UserID, Username: player.Username, Score: player.Score},
		Session:   summary,
	})
	s.logger.Info("player joined", zap.String("session", sessionID), zap.String("user", user.UserID))
	return &summary, nil
}

// LeaveSession removes userID from a waiting session. The session is
// deleted when its last player leaves.
func (s *GameService) LeaveSession(ctx context.Context, userID, sessionID string) (*model.LeaveResult, error) {
	if err := requireSessionID(sessionID); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, action, err := s.mutate(ctx, sessionID, func(session *model.Session) (commit, error) {
		empty, err := engine.Leave(session, userID)
		if err != nil {
			return commitSave, err
		}
		if empty {
			return commitDelete, nil
		}
		return commitSave, nil
	})
	if err != nil {
		return nil, err
	}

	deleted := action == commitDelete
	s.notifier.EvictFromRoom(sessionID, userID)
	s.notifier.Broadcast(sessionID, EventPlayerLeft, PlayerLeftEvent{
		SessionID: sessionID,
		UserID:    userID,
		CreatorID: session.CreatorID,
		Deleted:   deleted,
	})
	s.logger.Info("player left", zap.String("session", sessionID), zap.String("user", userID), zap.Bool("deleted", deleted))
	return &model.LeaveResult{Deleted: deleted}, nil
}

// StartSession assigns roles and opens the quiz round. Only the creator may
// start a session.
func (s *GameService) StartSession(ctx context.Context, userID, sessionID string) (*model.StartResult, error) {
	if err := requireSessionID(sessionID); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	var questionIDs []string
	session, _, err := s.mutate(ctx, sessionID, func(session *model.Session) (commit, error) {
		if err := engine.CheckStart(session, userID); err != nil {
			return commitSave, err
		}
		questions := s.pickQuestions(ctx, session)
		questionIDs = make([]string, 0, len(questions))
		for _, q := range questions {
			questionIDs = append(questionIDs, q.QuestionID)
		}
		_, err := engine.Start(session, userID, questions, s.roll(), s.now())
		return commitSave, err
	})
	if err != nil {
		return nil, err
	}
	s.recordQuestionUsage(ctx, questionIDs)

	for _, p := range session.Players {
		s.notifier.EmitTo(p.UserID, EventGameStarted, GameStartedEvent{Session: detailFor(session, p.UserID)})
	}
	s.notifier.Broadcast(sessionID, EventRoundStarted, RoundStartedEvent{
		SessionID:    sessionID,
		RoundIndex:   0,
		PlanetHealth: session.PlanetHealth,
		Round:        roundView(session, 0, ""),
	})
	s.logger.Info("game started", zap.String("session", sessionID), zap.Int("players", len(session.Players)))

	res := &model.StartResult{
		SessionSummary: summarize(session),
		CurrentRound:   engine.CurrentRoundIndex(session),
		PlanetHealth:   session.PlanetHealth,
		Round:          roundView(session, 0, userID),
	}
	if userID == session.CreatorID {
		res.Roles = roleAssignments(session)
	}
	return res, nil
}

// pickQuestions samples the quiz from the members' interests. Any failure
// falls back to the generic question set.
func (s *GameService) pickQuestions(ctx context.Context, session *model.Session) []model.RoundQuestion {
	ids := make([]string, 0, len(session.Players))
	for _, p := range session.Players {
		ids = append(ids, p.UserID)
	}

	cctx, cancel := s.storeCtx(ctx)
	interests, err := s.profiles.GetInterests(cctx, ids)
	cancel()
	if err != nil {
		s.logger.Warn("load interests failed", zap.String("session", session.ID), zap.Error(err))
	}
	categories := engine.InterestCategories(interests...)

	cctx, cancel = s.storeCtx(ctx)
	sampled, err := s.questions.Sample(cctx, categories, engine.QuizQuestionCount)
	cancel()
	if err != nil {
		s.logger.Warn("sample questions failed", zap.String("session", session.ID), zap.Error(err))
		sampled = nil
	}
	return engine.RoundQuestions(sampled)
}

func (s *GameService) recordQuestionUsage(ctx context.Context, ids []string) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.questions.IncrementUsage(ctx, ids); err != nil {
		s.logger.Warn("record question usage failed", zap.Error(err))
	}
}

// GetSession returns the session as userID may see it.
func (s *GameService) GetSession(ctx context.Context, userID, sessionID string) (*model.SessionDetail, error) {
	if err := requireSessionID(sessionID); err != nil {
		return nil, err
	}
	session, err := s.read(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	detail := detailFor(session, userID)
	return &detail, nil
}

// ListOpenSessions returns every waiting session, oldest first.
func (s *GameService) ListOpenSessions(ctx context.Context) ([]model.SessionSummary, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()
	sessions, err := s.sessions.ListWaiting(cctx)
	if err != nil {
		return nil, apperr.TransientStorage("list games", err)
	}
	out := make([]model.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, summarize(session))
	}
	return out, nil
}

// History returns the completed sessions userID played, newest first.
func (s *GameService) History(ctx context.Context, userID string) ([]model.HistoryEntry, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()
	sessions, err := s.sessions.ListCompletedByPlayer(cctx, userID)
	if err != nil {
		return nil, apperr.TransientStorage("list history", err)
	}
	out := make([]model.HistoryEntry, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, historyEntry(session, userID))
	}
	return out, nil
}

// AttachRealtime subscribes user to the session's room and returns the
// state the client should render.
func (s *GameService) AttachRealtime(ctx context.Context, user model.Identity, sessionID string) (*model.SessionDetail, error) {
	if err := requireSessionID(sessionID); err != nil {
		return nil, err
	}
	session, err := s.read(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsMember(user.UserID) {
		return nil, apperr.Authorization(apperr.CodeNotMember, "you are not in this game")
	}

	s.notifier.JoinRoom(sessionID, user.UserID)
	s.notifier.BroadcastExcept(sessionID, user.UserID, EventPresence, PresenceEvent{
		SessionID: sessionID,
		UserID:    user.UserID,
		Username:  user.Username,
		Present:   true,
	})
	detail := detailFor(session, user.UserID)
	return &detail, nil
}

// DetachRealtime unsubscribes user from the session's room.
func (s *GameService) DetachRealtime(user model.Identity, sessionID string) {
	if sessionID == "" {
		return
	}
	s.notifier.LeaveRoom(sessionID, user.UserID)
	s.notifier.BroadcastExcept(sessionID, user.UserID, EventPresence, PresenceEvent{
		SessionID: sessionID,
		UserID:    user.UserID,
		Username:  user.Username,
		Present:   false,
	})
}
