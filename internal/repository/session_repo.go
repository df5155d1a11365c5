package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"planetguard/internal/model"
)

// ErrVersionConflict is returned when a session was changed by someone else
// between load and save.
var ErrVersionConflict = errors.New("session version conflict")

// SessionRepo persists game sessions. Save and Delete are optimistic: they
// only apply when the stored version matches the one that was loaded.
type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	Save(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, id string, version int64) error
	ListWaiting(ctx context.Context) ([]*model.Session, error)
	ListCompletedByPlayer(ctx context.Context, userID string) ([]*model.Session, error)
}

type sessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("games"),
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	session.Version = 1
	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepo) Save(ctx context.Context, session *model.Session) error {
	next := *session
	next.Version = session.Version + 1

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": session.ID, "version": session.Version}, &next)
	if err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	session.Version = next.Version
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string, version int64) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "version": version})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *sessionRepo) ListWaiting(ctx context.Context) ([]*model.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return r.find(ctx, bson.M{"status": model.SessionWaiting}, opts)
}

func (r *sessionRepo) ListCompletedByPlayer(ctx context.Context, userID string) ([]*model.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "completedAt", Value: -1}})
	return r.find(ctx, bson.M{"status": model.SessionCompleted, "players.userId": userID}, opts)
}

func (r *sessionRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Session, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find sessions: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := []*model.Session{}
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return sessions, nil
}
