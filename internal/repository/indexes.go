package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the lobby, history and question
// selection queries rely on. Every index is attempted; the returned error
// joins all failures.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	games := db.Collection("games")
	questions := db.Collection("questions")

	return errors.Join(
		createIndex(ctx, games, bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}, false),
		createIndex(ctx, games, bson.D{{Key: "players.userId", Value: 1}, {Key: "status", Value: 1}}, false),
		createIndex(ctx, questions, bson.D{{Key: "category", Value: 1}}, false),
		createIndex(ctx, questions, bson.D{{Key: "text", Value: 1}}, true),
	)
}

func createIndex(ctx context.Context, coll *mongo.Collection, keys bson.D, unique bool) error {
	opts := options.Index().SetUnique(unique)
	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts}); err != nil {
		return fmt.Errorf("create index on %s: %w", coll.Name(), err)
	}
	return nil
}
