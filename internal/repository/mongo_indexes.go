package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoIndexes はコレクションごとに作成するインデックス。
// メールアドレスの照合に使うインデックスはクエリと同じcollationで作成しないと使われない。
var mongoIndexes = map[string][]mongo.IndexModel{
	CollectionListings: {
		{
			Keys:    bson.D{{Key: "submitted_by", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("submitted_by_status").SetCollation(emailCollation),
		},
	},
	CollectionAccounts: {
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email").SetCollation(emailCollation),
		},
	},
	CollectionRevenue: {
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email").SetCollation(emailCollation),
		},
	},
	CollectionInstallations: {
		{
			Keys:    bson.D{{Key: "teamId", Value: 1}},
			Options: options.Index().SetName("team_id").SetUnique(true),
		},
	},
}

// mongoIndexOrder はインデックス作成順。
var mongoIndexOrder = []string{
	CollectionListings,
	CollectionAccounts,
	CollectionRevenue,
	CollectionInstallations,
}

// EnsureMongoIndexes は必要なインデックスを作成する。既存のインデックスはそのまま残る。
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	for _, name := range mongoIndexOrder {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, mongoIndexes[name]); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}
