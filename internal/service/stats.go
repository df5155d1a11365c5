package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"planetguard/internal/apperr"
	"planetguard/internal/cache"
	"planetguard/internal/model"
	"planetguard/internal/reward"
)

const (
	statsConcurrency   = 4
	defaultLeaderboard = 10
	maxLeaderboard     = 100
)

// applyStats adds every player's rewards to their profile and the token
// leaderboard in the background. Each player is updated independently;
// failures are logged and never affect the committed game.
func (s *GameService) applyStats(ctx context.Context, sessionID string, rewards []reward.Reward) {
	ctx = context.WithoutCancel(ctx)

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()

		var g errgroup.Group
		g.SetLimit(statsConcurrency)
		for _, r := range rewards {
			g.Go(func() error {
				s.applyPlayerStats(ctx, sessionID, r)
				return nil
			})
		}
		_ = g.Wait()
	}()
}

func (s *GameService) applyPlayerStats(ctx context.Context, sessionID string, r reward.Reward) {
	log := s.logger.With(zap.String("session", sessionID), zap.String("user", r.UserID))

	cctx, cancel := s.storeCtx(ctx)
	err := s.profiles.ApplyStats(cctx, r.UserID, r.Username, r.Stats())
	cancel()
	if err != nil {
		log.Warn("update player stats failed", zap.Error(err))
	}

	if s.leaderboard == nil {
		return
	}
	cctx, cancel = s.storeCtx(ctx)
	err = s.leaderboard.AddTokens(cctx, r.UserID, r.Username, r.Tokens)
	cancel()
	if err != nil {
		log.Warn("update leaderboard failed", zap.Error(err))
	}
}

// PlayerStats returns userID's lifetime stats. Users without a profile have
// zero stats.
func (s *GameService) PlayerStats(ctx context.Context, userID string) (*model.Stats, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()
	profile, err := s.profiles.GetByID(cctx, userID)
	if err != nil {
		return nil, apperr.TransientStorage("load profile", err)
	}
	if profile == nil {
		return &model.Stats{}, nil
	}
	return &profile.Stats, nil
}

// Leaderboard returns the top players by lifetime tokens. limit defaults to
// 10 and is capped at 100.
func (s *GameService) Leaderboard(ctx context.Context, limit int) ([]cache.LeaderboardEntry, error) {
	if s.leaderboard == nil {
		return []cache.LeaderboardEntry{}, nil
	}
	if limit <= 0 {
		limit = defaultLeaderboard
	}
	limit = min(limit, maxLeaderboard)

	cctx, cancel := s.storeCtx(ctx)
	defer cancel()
	entries, err := s.leaderboard.GetTop(cctx, limit)
	if err != nil {
		return nil, apperr.TransientStorage("load leaderboard", err)
	}
	return entries, nil
}
