package repository

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/removify/internal/cache"
	"github.com/hitoshi/removify/internal/model"
)

// CachedAccountRepo は年間売上の読み出しをキャッシュするAccountRepositoryのデコレーター。
// 売上は週次で更新されるため、TTL内の古い値は許容する。
type CachedAccountRepo struct {
	AccountRepository
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedAccountRepo はCachedAccountRepoを生成する。
func NewCachedAccountRepo(inner AccountRepository, c cache.Cache, ttl time.Duration) *CachedAccountRepo {
	return &CachedAccountRepo{AccountRepository: inner, cache: c, ttl: ttl}
}

// revenueCacheKey はメールアドレスから大文字小文字を無視したキャッシュキーを生成する。
func revenueCacheKey(email string) string {
	return "revenue:" + strings.ToLower(model.NormalizeEmail(email))
}

// FindYearlyRevenue はキャッシュを優先して年間売上を返す。
// キャッシュの障害は読み出しを妨げず、下位リポジトリへフォールバックする。
func (r *CachedAccountRepo) FindYearlyRevenue(ctx context.Context, email string) (*model.Revenue, error) {
	key := revenueCacheKey(email)

	var cached model.Revenue
	err := cache.GetJSON(ctx, r.cache, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		slog.Warn("revenue cache read failed", slog.String("error", err.Error()))
	}

	rev, err := r.AccountRepository.FindYearlyRevenue(ctx, email)
	if err != nil || rev == nil {
		return rev, err
	}

	if err := cache.SetJSON(ctx, r.cache, key, rev, r.ttl); err != nil {
		slog.Warn("revenue cache write failed", slog.String("error", err.Error()))
	}
	return rev, nil
}

// compile-time interface check
var _ AccountRepository = (*CachedAccountRepo)(nil)
