package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"planetguard/internal/apperr"
	"planetguard/internal/cache"
	"planetguard/internal/model"
	"planetguard/internal/repository"
)

// GameOptions tunes storage access of the GameService
type GameOptions struct {
	// StoreTimeout bounds every single storage call.
	StoreTimeout time.Duration
	// Retries is how many times a failed load-mutate-save is retried.
	Retries      int
	RetryBackoff time.Duration
}

// DefaultGameOptions returns the options used when none are configured
func DefaultGameOptions() GameOptions {
	return GameOptions{
		StoreTimeout: 5 * time.Second,
		Retries:      3,
		RetryBackoff: 50 * time.Millisecond,
	}
}

// GameService is the single entry point for session reads and mutations.
// Both the REST handlers and the websocket handler call into it. Mutations
// of one session are serialized by an in-process lock and guarded across
// processes by the store's version check.
type GameService struct {
	sessions  repository.SessionRepo
	questions repository.QuestionRepo
	profiles  repository.ProfileRepo

	snapshots   cache.SessionCache
	leaderboard cache.LeaderboardCache
	notifier    Notifier

	logger *zap.Logger
	opts   GameOptions

	locks *keyedMutex
	reads singleflight.Group
	bg    sync.WaitGroup

	now   func() time.Time
	newID func() string
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewGameService creates a new game service
func NewGameService(
	sessions repository.SessionRepo,
	questions repository.QuestionRepo,
	profiles repository.ProfileRepo,
	logger *zap.Logger,
	opts GameOptions,
) *GameService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GameService{
		sessions:  sessions,
		questions: questions,
		profiles:  profiles,
		notifier:  noopNotifier{},
		logger:    logger.Named("game"),
		opts:      opts,
		locks:     newKeyedMutex(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// SetNotifier sets the notifier for realtime events
func (s *GameService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetSnapshotCache enables the read-through snapshot cache
func (s *GameService) SetSnapshotCache(c cache.SessionCache) {
	s.snapshots = c
}

// SetLeaderboard enables lifetime token ranking
func (s *GameService) SetLeaderboard(lb cache.LeaderboardCache) {
	s.leaderboard = lb
}

// Wait blocks until background stats updates have finished.
func (s *GameService) Wait() {
	s.bg.Wait()
}

type commit int

const (
	commitSave commit = iota
	commitDelete
)

// mutate loads the session, applies fn and persists the result according
// to the returned commit. Storage failures and version conflicts restart
// the whole cycle from a fresh load; errors returned by fn abort without
// writing anything. Callers must hold the session lock.
func (s *GameService) mutate(ctx context.Context, sessionID string, fn func(*model.Session) (commit, error)) (*model.Session, commit, error) {
	var (
		session *model.Session
		action  commit
		pending *unconfirmedWrite
	)
	err := s.retry(ctx, "mutate session", func() error {
		loaded, err := s.load(ctx, sessionID)
		if pending != nil {
			if done, ok := pending.landed(loaded, err); ok {
				s.logger.Info("failed session write had been committed", zap.String("session", sessionID))
				session, action = done, pending.action
				return nil
			}
			if err == nil {
				pending = nil
			}
		}
		if err != nil {
			return err
		}

		c, err := fn(loaded)
		if err != nil {
			return err
		}
		loaded.CommitID = s.newID()
		if err := s.persist(ctx, loaded, c); err != nil {
			if !errors.Is(err, repository.ErrVersionConflict) {
				pending = &unconfirmedWrite{commitID: loaded.CommitID, action: c, session: loaded}
			}
			return err
		}
		session, action = loaded, c
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	s.syncSnapshot(ctx, session, action)
	return session, action, nil
}

// unconfirmedWrite is a persist call that failed without a version
// conflict. The store may still have applied it.
type unconfirmedWrite struct {
	commitID string
	action   commit
	session  *model.Session
}

// landed reports whether the write is visible in the result of the next
// load, returning the committed session if so.
func (w *unconfirmedWrite) landed(current *model.Session, loadErr error) (*model.Session, bool) {
	if w.action == commitDelete {
		return w.session, apperr.KindOf(loadErr) == apperr.KindNotFound
	}
	if loadErr == nil && current.CommitID == w.commitID {
		return current, true
	}
	return nil, false
}

// retry runs fn until it succeeds, fails with a non-retryable error or the
// configured attempts are used up.
func (s *GameService) retry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= s.opts.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return apperr.TransientStorage(op, ctx.Err())
			case <-time.After(time.Duration(attempt) * s.opts.RetryBackoff):
			}
		}

		err = fn()
		if err == nil {
			return nil
		}
		conflict := errors.Is(err, repository.ErrVersionConflict)
		if !conflict && !apperr.Retryable(err) {
			return err
		}
		s.logger.Warn("session storage attempt failed",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Bool("conflict", conflict),
			zap.Error(err),
		)
	}
	if errors.Is(err, repository.ErrVersionConflict) {
		return apperr.TransientStorage(op+": too many concurrent updates", err)
	}
	return err
}

func (s *GameService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.StoreTimeout)
}

// load reads the authoritative session from the store.
func (s *GameService) load(ctx context.Context, sessionID string) (*model.Session, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, apperr.TransientStorage("load session", err)
	}
	if session == nil {
		return nil, apperr.NotFound(apperr.CodeSessionNotFound, "game not found")
	}
	return session, nil
}

func (s *GameService) persist(ctx context.Context, session *model.Session, c commit) error {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	var err error
	switch c {
	case commitDelete:
		err = s.sessions.Delete(ctx, session.ID, session.Version)
	default:
		err = s.sessions.Save(ctx, session)
	}
	if err == nil || errors.Is(err, repository.ErrVersionConflict) {
		return err
	}
	return apperr.TransientStorage("save session", err)
}

// syncSnapshot writes the committed state through to the snapshot cache.
// If the write fails the key is dropped so reads fall back to the store.
func (s *GameService) syncSnapshot(ctx context.Context, session *model.Session, c commit) {
	if s.snapshots == nil {
		return
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if c == commitSave {
		err := s.snapshots.Set(ctx, session)
		if err == nil {
			return
		}
		s.logger.Warn("snapshot cache write failed", zap.String("session", session.ID), zap.Error(err))
	}
	if err := s.snapshots.Delete(ctx, session.ID); err != nil {
		s.logger.Warn("snapshot cache delete failed", zap.String("session", session.ID), zap.Error(err))
	}
}

// read returns the latest committed session. Concurrent reads of the same
// session share one store round trip and one value, which callers must not
// modify. The shared load is not tied to any one caller's cancellation.
func (s *GameService) read(ctx context.Context, sessionID string) (*model.Session, error) {
	if s.snapshots != nil {
		cctx, cancel := s.storeCtx(ctx)
		cached, err := s.snapshots.Get(cctx, sessionID)
		cancel()
		if err != nil {
			s.logger.Warn("snapshot cache read failed", zap.String("session", sessionID), zap.Error(err))
		}
		if cached != nil {
			return cached, nil
		}
	}

	ch := s.reads.DoChan(sessionID, func() (interface{}, error) {
		return s.load(context.WithoutCancel(ctx), sessionID)
	})
	select {
	case <-ctx.Done():
		return nil, apperr.TransientStorage("load session", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Session), nil
	}
}

func (s *GameService) roll() *rand.Rand {
	s.rngMu.Lock()
	seed1, seed2 := s.rng.Uint64(), s.rng.Uint64()
	s.rngMu.Unlock()
	return rand.New(rand.NewPCG(seed1, seed2))
}

func requireSessionID(sessionID string) error {
	if sessionID == "" {
		return apperr.Validation(apperr.CodeMissingSessionID, "game id is required")
	}
	return nil
}
