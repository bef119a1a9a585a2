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

// コレクション名
const (
	CollectionListings      = "Scrapes"
	CollectionRevenue       = "weekly_scrapes"
	CollectionAccounts      = "Users"
	CollectionInstallations = "slack_installations"
)

// emailCollation はメールアドレスを大文字小文字を区別せずに照合するためのcollation。
var emailCollation = &options.Collation{Locale: "en", Strength: 2}

// MongoListingRepo はMongoDBを使用したリスティングリポジトリ。
type MongoListingRepo struct {
	db   *mongo.Database
	coll *mongo.Collection
}

// NewMongoListingRepo はMongoListingRepoを生成する。
func NewMongoListingRepo(db *mongo.Database) *MongoListingRepo {
	return &MongoListingRepo{db: db, coll: db.Collection(CollectionListings)}
}

// FindByID は指定IDのリスティングを取得する。見つからない場合はnilを返す。
func (r *MongoListingRepo) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc bson.M
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find listing by ID: %w", err)
	}

	return listingFromDocument(doc), nil
}

// FindByIDs は指定IDのうちownerが所有するリスティングを取得する。
func (r *MongoListingRepo) FindByIDs(ctx context.Context, ids []string, owner string) ([]*model.Listing, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return nil, nil
	}

	filter := bson.M{"_id": bson.M{"$in": oids}, "submitted_by": owner}
	return r.find(ctx, filter)
}

// ListByOwner はownerが所有する全リスティングを返す。
func (r *MongoListingRepo) ListByOwner(ctx context.Context, owner string) ([]*model.Listing, error) {
	return r.find(ctx, bson.M{"submitted_by": owner})
}

func (r *MongoListingRepo) find(ctx context.Context, filter bson.M) ([]*model.Listing, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetCollation(emailCollation))
	if err != nil {
		return nil, fmt.Errorf("failed to find listings: %w", err)
	}
	defer cur.Close(ctx)

	var listings []*model.Listing
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode listing: %w", err)
		}
		listings = append(listings, listingFromDocument(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listings: %w", err)
	}

	return listings, nil
}

// UpdateStatus はownerが所有する1件のステータスを更新する。
// フィルタに所有者を含めるため、所有確認と書き込みは1回の操作で行われる。
func (r *MongoListingRepo) UpdateStatus(ctx context.Context, id, owner string, status model.ListingStatus) (UpdateResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return UpdateResult{}, nil
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "submitted_by": owner},
		bson.M{"$set": bson.M{"status": string(status)}},
		options.Update().SetCollation(emailCollation),
	)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("failed to update listing status: %w", err)
	}

	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// UpdateStatusMany は指定IDのうち現在fromの状態にあるものだけをtoへ一括更新する。
func (r *MongoListingRepo) UpdateStatusMany(ctx context.Context, ids []string, owner string, from, to model.ListingStatus) (UpdateResult, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return UpdateResult{}, nil
	}

	res, err := r.coll.UpdateMany(ctx,
		bson.M{
			"_id":          bson.M{"$in": oids},
			"submitted_by": owner,
			"status":       string(from),
		},
		bson.M{"$set": bson.M{"status": string(to)}},
		options.Update().SetCollation(emailCollation),
	)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("failed to bulk update listing status: %w", err)
	}

	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// Ping はMongoDBへの疎通を確認する。
func (r *MongoListingRepo) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, nil)
}

// objectIDs は16進文字列をObjectIDに変換する。形式不正と重複は除外する。
func objectIDs(ids []string) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		if _, ok := seen[oid]; ok {
			continue
		}
		seen[oid] = struct{}{}
		oids = append(oids, oid)
	}
	return oids
}

// listingFromDocument はScrapesのドキュメントをListingに変換する。
// スクレイパーが書き込むため型は揃っていない前提で読む。
func listingFromDocument(doc bson.M) *model.Listing {
	l := &model.Listing{Extra: map[string]any{}}
	for k, v := range doc {
		switch k {
		case "_id":
			l.ID = idString(v)
		case "submitted_by":
			l.SubmittedBy = stringValue(v)
		case "source":
			l.Source = stringValue(v)
		case "summary":
			l.Summary = stringValue(v)
		case "text":
			l.Text = stringValue(v)
		case "description":
			l.Description = stringValue(v)
		case "url":
			l.URL = stringValue(v)
		case "link":
			l.Link = stringValue(v)
		case "timestamp":
			l.Timestamp = timeValue(v)
		case "status":
			l.Status = model.ListingStatus(stringValue(v))
		default:
			l.Extra[k] = v
		}
	}
	return l
}

func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return fmt.Sprint(v)
	}
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}

// timeValue はtimestampフィールドを時刻に変換する。
// BSON日時、エポックミリ秒の数値、RFC3339文字列を受け付ける。
func timeValue(v any) *time.Time {
	var t time.Time
	switch ts := v.(type) {
	case primitive.DateTime:
		t = ts.Time()
	case time.Time:
		t = ts
	case int64:
		t = time.UnixMilli(ts)
	case int32:
		t = time.UnixMilli(int64(ts))
	case float64:
		if math.IsNaN(ts) || math.IsInf(ts, 0) {
			return nil
		}
		t = time.UnixMilli(int64(ts))
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			ms, perr := strconv.ParseInt(strings.TrimSpace(ts), 10, 64)
			if perr != nil {
				return nil
			}
			parsed = time.UnixMilli(ms)
		}
		t = parsed
	default:
		return nil
	}
	return &t
}

// compile-time interface check
var _ ListingRepository = (*MongoListingRepo)(nil)
