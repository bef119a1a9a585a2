package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hitoshi/removify/internal/model"
)

// MongoInstallationRepo はMongoDBを使用したSlackインストール記録リポジトリ。
type MongoInstallationRepo struct {
	coll *mongo.Collection
}

// NewMongoInstallationRepo はMongoInstallationRepoを生成する。
func NewMongoInstallationRepo(db *mongo.Database) *MongoInstallationRepo {
	return &MongoInstallationRepo{coll: db.Collection(CollectionInstallations)}
}

// Upsert はteamIdをキーにインストール記録を作成または更新する。
func (r *MongoInstallationRepo) Upsert(ctx context.Context, inst *model.SlackInstallation) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"teamId": inst.TeamID},
		bson.M{"$set": bson.M{
			"teamId": inst.TeamID,
			"installation": bson.M{
				"team":                bson.M{"id": inst.TeamID, "name": inst.TeamName},
				"bot":                 bson.M{"token": inst.BotToken, "userId": inst.BotUserID},
				"incomingWebhook":     bson.M{"url": inst.IncomingWebhookURL},
				"user":                bson.M{"id": inst.UserID},
				"isEnterpriseInstall": false,
			},
			"userId":    inst.UserID,
			"userEmail": inst.UserEmail,
			"updatedAt": inst.UpdatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert slack installation: %w", err)
	}
	return nil
}

// compile-time interface check
var _ InstallationRepository = (*MongoInstallationRepo)(nil)
