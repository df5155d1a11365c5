package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"planetguard/internal/model"
)

// ProfileRepo reads interests from and adds stats to user profiles.
// Profiles are owned by the identity service; a missing profile is not an
// error.
type ProfileRepo interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	GetInterests(ctx context.Context, ids []string) ([][]string, error)
	Upsert(ctx context.Context, profile *model.Profile) error
	ApplyStats(ctx context.Context, userID, username string, delta model.StatsDelta) error
}

type profileRepo struct {
	collection *mongo.Collection
}

func NewProfileRepo(db *mongo.Database) ProfileRepo {
	return &profileRepo{
		collection: db.Collection("profiles"),
	}
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var profile model.Profile
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &profile, nil
}

func (r *profileRepo) GetInterests(ctx context.Context, ids []string) ([][]string, error) {
	opts := options.Find().SetProjection(bson.M{"interests": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find interests: %w", err)
	}
	defer cursor.Close(ctx)

	var profiles []model.Profile
	if err = cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("decode interests: %w", err)
	}
	interests := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		interests = append(interests, p.Interests)
	}
	return interests, nil
}

func (r *profileRepo) Upsert(ctx context.Context, profile *model.Profile) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": profile.ID}, profile, opts); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *profileRepo) ApplyStats(ctx context.Context, userID, username string, delta model.StatsDelta) error {
	update := bson.M{
		"$inc": bson.M{
			"stats.gamesPlayed":                delta.GamesPlayed,
			"stats.gamesWon":                   delta.GamesWon,
			"stats.correctAnswers":             delta.CorrectAnswers,
			"stats.monstersDefeated":           delta.MonstersDefeated,
			"stats.correctImpostersIdentified": delta.CorrectImpostersIdentified,
			"stats.tokensEarned":               delta.TokensEarned,
		},
		"$setOnInsert": bson.M{"username": username, "interests": []string{}},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update, opts); err != nil {
		return fmt.Errorf("apply stats: %w", err)
	}
	return nil
}
