// Package database はデータベース接続とマイグレーション管理を提供する。
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Backend はDATABASE_URLのスキームから判定したストアの種類。
type Backend string

const (
	// BackendMongo はMongoDB（mongodb:// または mongodb+srv://）。
	BackendMongo Backend = "mongodb"
	// BackendPostgres はPostgreSQL（postgres:// または postgresql://）。
	BackendPostgres Backend = "postgres"
)

// DetectBackend は接続URLのスキームからストアの種類を判定する。
func DetectBackend(databaseURL string) (Backend, error) {
	switch {
	case strings.HasPrefix(databaseURL, "mongodb://"), strings.HasPrefix(databaseURL, "mongodb+srv://"):
		return BackendMongo, nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return BackendPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database URL scheme")
	}
}

// Open はPostgreSQLデータベース接続を開く。
// sql.Openは接続を試行しないため、実際の接続確認にはdb.Ping()を使用すること。
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}

// ConnectMongo はMongoDBに接続し、指定名のデータベースを返す。
// mongo.Connectは接続を遅延させるため、疎通確認はPingで行う。
// MongoDB以外のスキームは接続前に拒否する。
func ConnectMongo(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	if backend, err := DetectBackend(uri); err != nil || backend != BackendMongo {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: invalid URI scheme")
	}

	opts := options.Client().ApplyURI(uri)
	if err := opts.Validate(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	return client, client.Database(dbName), nil
}
