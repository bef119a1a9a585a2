package repository

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hitoshi/removify/internal/model"
)

// accountDocument はUsersコレクションのドキュメント。
type accountDocument struct {
	Email          string               `bson:"email"`
	SlackConnected bool                 `bson:"slackConnected,omitempty"`
	SlackTeamID    string               `bson:"slackTeamId,omitempty"`
	Slack          *slackCredentialsDoc `bson:"Slack_Notifications,omitempty"`
	UpdatedAt      time.Time            `bson:"updatedAt,omitempty"`
}

type slackCredentialsDoc struct {
	TeamID             string    `bson:"teamId"`
	BotToken           string    `bson:"botToken"`
	BotUserID          string    `bson:"botUserId"`
	IncomingWebhookURL string    `bson:"incomingWebhookUrl,omitempty"`
	AuthedUserID       string    `bson:"authedUserId"`
	InstalledAt        time.Time `bson:"installedAt"`
	UpdatedAt          time.Time `bson:"updatedAt"`
}

// MongoAccountRepo はMongoDBを使用したアカウントリポジトリ。
// プロフィールはUsers、年間売上はweekly_scrapesから読む。
type MongoAccountRepo struct {
	accounts *mongo.Collection
	revenue  *mongo.Collection
}

// NewMongoAccountRepo はMongoAccountRepoを生成する。
func NewMongoAccountRepo(db *mongo.Database) *MongoAccountRepo {
	return &MongoAccountRepo{
		accounts: db.Collection(CollectionAccounts),
		revenue:  db.Collection(CollectionRevenue),
	}
}

// FindByEmail はメールアドレスでアカウントを取得する。見つからない場合はnilを返す。
func (r *MongoAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	var doc accountDocument
	err := r.accounts.FindOne(ctx,
		bson.M{"email": email},
		options.FindOne().SetCollation(emailCollation),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}

	account := &model.Account{
		Email:          doc.Email,
		SlackConnected: doc.SlackConnected,
		SlackTeamID:    doc.SlackTeamID,
		UpdatedAt:      doc.UpdatedAt,
	}
	if doc.Slack != nil {
		account.Slack = &model.SlackCredentials{
			TeamID:             doc.Slack.TeamID,
			BotToken:           doc.Slack.BotToken,
			BotUserID:          doc.Slack.BotUserID,
			IncomingWebhookURL: doc.Slack.IncomingWebhookURL,
			AuthedUserID:       doc.Slack.AuthedUserID,
			InstalledAt:        doc.Slack.InstalledAt,
			UpdatedAt:          doc.Slack.UpdatedAt,
		}
	}
	return account, nil
}

// FindYearlyRevenue はweekly_scrapesから年間売上を取得する。
// yearly_revenueは文字列または数値で保存されている。
func (r *MongoAccountRepo) FindYearlyRevenue(ctx context.Context, email string) (*model.Revenue, error) {
	var doc bson.M
	err := r.revenue.FindOne(ctx,
		bson.M{"email": email},
		options.FindOne().SetCollation(emailCollation),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find yearly revenue: %w", err)
	}

	value, ok := parseRevenue(doc["yearly_revenue"])
	if !ok {
		return nil, nil
	}
	return &model.Revenue{Email: stringValue(doc["email"]), YearlyRevenue: value}, nil
}

// SaveSlackCredentials はSlack認証情報をアカウントに保存する。
func (r *MongoAccountRepo) SaveSlackCredentials(ctx context.Context, email string, creds *model.SlackCredentials) (bool, error) {
	res, err := r.accounts.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{
			"Slack_Notifications": slackCredentialsDoc{
				TeamID:             creds.TeamID,
				BotToken:           creds.BotToken,
				BotUserID:          creds.BotUserID,
				IncomingWebhookURL: creds.IncomingWebhookURL,
				AuthedUserID:       creds.AuthedUserID,
				InstalledAt:        creds.InstalledAt,
				UpdatedAt:          creds.UpdatedAt,
			},
			"slackConnected": true,
			"slackTeamId":    creds.TeamID,
			"updatedAt":      creds.UpdatedAt,
		}},
		options.Update().SetCollation(emailCollation),
	)
	if err != nil {
		return false, fmt.Errorf("failed to save slack credentials: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// parseRevenue はyearly_revenueの値を数値に変換する。
// 欠落、空文字、0、数値として解釈できない値はfalseを返す。
func parseRevenue(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case primitive.Decimal128:
		parsed, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// compile-time interface check
var _ AccountRepository = (*MongoAccountRepo)(nil)
