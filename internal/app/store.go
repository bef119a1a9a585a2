package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/removify/internal/cache"
	"github.com/hitoshi/removify/internal/config"
	"github.com/hitoshi/removify/internal/database"
	"github.com/hitoshi/removify/internal/handler"
	"github.com/hitoshi/removify/internal/repository"
)

// store はDATABASE_URLのスキームに応じて選択したリポジトリ群。
type store struct {
	listings      repository.ListingRepository
	accounts      repository.AccountRepository
	installations repository.InstallationRepository
	pinger        handler.Pinger
	close         func(ctx context.Context) error
}

// openStore はストアに接続し、疎通を確認してリポジトリを構築する。
func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	backend, err := database.DetectBackend(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	switch backend {
	case database.BackendMongo:
		client, db, err := database.ConnectMongo(ctx, cfg.DatabaseURL, cfg.DatabaseName)
		if err != nil {
			return nil, err
		}
		listings := repository.NewMongoListingRepo(db)
		if err := listings.Ping(ctx); err != nil {
			client.Disconnect(ctx)
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established", slog.String("backend", string(backend)))

		return &store{
			listings:      listings,
			accounts:      repository.NewMongoAccountRepo(db),
			installations: repository.NewMongoInstallationRepo(db),
			pinger:        listings,
			close:         client.Disconnect,
		}, nil

	default:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		listings := repository.NewPostgresListingRepo(db)
		if err := listings.Ping(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established", slog.String("backend", string(backend)))

		return &store{
			listings:      listings,
			accounts:      repository.NewPostgresAccountRepo(db),
			installations: repository.NewPostgresInstallationRepo(db),
			pinger:        listings,
			close:         func(context.Context) error { return db.Close() },
		}, nil
	}
}

// wrapRevenueCache はREDIS_URLが設定されていればアカウントリポジトリを
// 年間売上のRedisキャッシュで包み、クローズ関数を返す。
// Redisに接続できない場合はキャッシュなしで続行する。
func wrapRevenueCache(ctx context.Context, cfg *config.Config, accounts *repository.AccountRepository) func() {
	if cfg.RedisURL == "" {
		return nil
	}

	rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
	if err != nil {
		slog.Warn("revenue cache disabled", slog.String("error", err.Error()))
		return nil
	}

	*accounts = repository.NewCachedAccountRepo(*accounts, rc, cfg.RevenueCacheTTL)
	slog.Info("revenue cache enabled", slog.Duration("ttl", cfg.RevenueCacheTTL))
	return func() {
		if err := rc.Close(); err != nil {
			slog.Error("failed to close redis", slog.String("error", err.Error()))
		}
	}
}
