package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"

	"planetguard/internal/model"
)

var (
	_ SessionRepo  = (*MemorySessionRepo)(nil)
	_ QuestionRepo = (*MemoryQuestionRepo)(nil)
	_ ProfileRepo  = (*MemoryProfileRepo)(nil)
)

// MemorySessionRepo is a SessionRepo kept in process memory. Sessions are
// stored in their BSON encoding so callers never share state with the store.
type MemorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{sessions: make(map[string][]byte)}
}

func (r *MemorySessionRepo) Create(_ context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[session.ID]; exists {
		return fmt.Errorf("insert session: duplicate id %s", session.ID)
	}
	session.Version = 1
	return r.put(session)
}

func (r *MemorySessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	raw, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return decodeSession(raw)
}

func (r *MemorySessionRepo) Save(_ context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, err := r.version(session.ID)
	if err != nil {
		return err
	}
	if stored != session.Version {
		return ErrVersionConflict
	}

	next := *session
	next.Version++
	if err := r.put(&next); err != nil {
		return err
	}
	session.Version = next.Version
	return nil
}

func (r *MemorySessionRepo) Delete(_ context.Context, id string, version int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, err := r.version(id)
	if err != nil {
		return err
	}
	if stored != version {
		return ErrVersionConflict
	}
	delete(r.sessions, id)
	return nil
}

func (r *MemorySessionRepo) ListWaiting(_ context.Context) ([]*model.Session, error) {
	sessions, err := r.filter(func(s *model.Session) bool {
		return s.Status == model.SessionWaiting
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(sessions, func(a, b *model.Session) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return sessions, nil
}

func (r *MemorySessionRepo) ListCompletedByPlayer(_ context.Context, userID string) ([]*model.Session, error) {
	sessions, err := r.filter(func(s *model.Session) bool {
		return s.Status == model.SessionCompleted && s.IsMember(userID)
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(sessions, func(a, b *model.Session) int {
		return b.CompletedAt.Compare(*a.CompletedAt)
	})
	return sessions, nil
}

func (r *MemorySessionRepo) filter(keep func(*model.Session) bool) ([]*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*model.Session{}
	for _, raw := range r.sessions {
		s, err := decodeSession(raw)
		if err != nil {
			return nil, err
		}
		if keep(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

// version returns the stored version of id. Callers hold the lock.
func (r *MemorySessionRepo) version(id string) (int64, error) {
	raw, ok := r.sessions[id]
	if !ok {
		return 0, ErrVersionConflict
	}
	s, err := decodeSession(raw)
	if err != nil {
		return 0, err
	}
	return s.Version, nil
}

func (r *MemorySessionRepo) put(session *model.Session) error {
	raw, err := bson.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	r.sessions[session.ID] = raw
	return nil
}

func decodeSession(raw []byte) (*model.Session, error) {
	var s model.Session
	if err := bson.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// MemoryQuestionRepo is a QuestionRepo over a fixed in-process bank.
type MemoryQuestionRepo struct {
	mu        sync.Mutex
	questions []model.Question
	rng       *rand.Rand
}

func NewMemoryQuestionRepo(questions ...model.Question) *MemoryQuestionRepo {
	return &MemoryQuestionRepo{
		questions: questions,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

func (r *MemoryQuestionRepo) Sample(_ context.Context, categories []string, size int) ([]model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := lo.Filter(r.questions, func(q model.Question, _ int) bool {
		return lo.Contains(categories, q.Category)
	})
	r.rng.Shuffle(len(matched), func(i, j int) { matched[i], matched[j] = matched[j], matched[i] })
	if len(matched) > size {
		matched = matched[:size]
	}
	return matched, nil
}

func (r *MemoryQuestionRepo) InsertMany(_ context.Context, questions []model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions = append(r.questions, questions...)
	return nil
}

func (r *MemoryQuestionRepo) IncrementUsage(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.questions {
		if lo.Contains(ids, r.questions[i].ID) {
			r.questions[i].UsageCount++
		}
	}
	return nil
}

func (r *MemoryQuestionRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.questions)), nil
}

// MemoryProfileRepo is a ProfileRepo kept in process memory.
type MemoryProfileRepo struct {
	mu       sync.RWMutex
	profiles map[string]model.Profile
}

func NewMemoryProfileRepo() *MemoryProfileRepo {
	return &MemoryProfileRepo{profiles: make(map[string]model.Profile)}
}

func (r *MemoryProfileRepo) GetByID(_ context.Context, id string) (*model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, nil
	}
	p.Interests = slices.Clone(p.Interests)
	return &p, nil
}

func (r *MemoryProfileRepo) GetInterests(_ context.Context, ids []string) ([][]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([][]string, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.profiles[id]; ok {
			out = append(out, slices.Clone(p.Interests))
		}
	}
	return out, nil
}

func (r *MemoryProfileRepo) Upsert(_ context.Context, profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := *profile
	p.Interests = slices.Clone(p.Interests)
	r.profiles[p.ID] = p
	return nil
}

func (r *MemoryProfileRepo) ApplyStats(_ context.Context, userID, username string, delta model.StatsDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		p = model.Profile{ID: userID, Username: username, Interests: []string{}}
	}
	p.Stats = p.Stats.Add(delta)
	r.profiles[userID] = p
	return nil
}
