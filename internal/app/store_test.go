package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/hitoshi/removify/internal/config"
	"github.com/hitoshi/removify/internal/model"
	"github.com/hitoshi/removify/internal/repository"
)

// stubAccountRepo はAccountRepositoryの最小実装。
type stubAccountRepo struct{}

func (stubAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	return nil, nil
}

func (stubAccountRepo) FindYearlyRevenue(ctx context.Context, email string) (*model.Revenue, error) {
	return &model.Revenue{Email: email, YearlyRevenue: 10000}, nil
}

func (stubAccountRepo) SaveSlackCredentials(ctx context.Context, email string, creds *model.SlackCredentials) (bool, error) {
	return true, nil
}

func TestWrapRevenueCache_Disabled(t *testing.T) {
	var accounts repository.AccountRepository = stubAccountRepo{}

	closeFn := wrapRevenueCache(context.Background(), &config.Config{}, &accounts)

	if closeFn != nil {
		t.Error("expected nil close function without REDIS_URL")
	}
	if _, ok := accounts.(stubAccountRepo); !ok {
		t.Errorf("accounts = %T, want unchanged", accounts)
	}
}

func TestWrapRevenueCache_Enabled(t *testing.T) {
	mr := miniredis.RunT(t)
	var accounts repository.AccountRepository = stubAccountRepo{}

	cfg := &config.Config{RedisURL: "redis://" + mr.Addr(), RevenueCacheTTL: time.Minute}
	closeFn := wrapRevenueCache(context.Background(), cfg, &accounts)
	if closeFn == nil {
		t.Fatal("expected close function when Redis is reachable")
	}
	defer closeFn()

	if _, ok := accounts.(*repository.CachedAccountRepo); !ok {
		t.Fatalf("accounts = %T, want *repository.CachedAccountRepo", accounts)
	}

	rev, err := accounts.FindYearlyRevenue(context.Background(), "owner@example.com")
	if err != nil {
		t.Fatalf("FindYearlyRevenue: %v", err)
	}
	if rev.YearlyRevenue != 10000 {
		t.Errorf("YearlyRevenue = %v, want 10000", rev.YearlyRevenue)
	}
	if len(mr.Keys()) != 1 {
		t.Errorf("cached keys = %v, want one entry", mr.Keys())
	}
}

func TestWrapRevenueCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	var accounts repository.AccountRepository = stubAccountRepo{}
	cfg := &config.Config{RedisURL: "redis://" + addr, RevenueCacheTTL: time.Minute}

	if closeFn := wrapRevenueCache(context.Background(), cfg, &accounts); closeFn != nil {
		t.Error("expected nil close function when Redis is unreachable")
	}
	if _, ok := accounts.(stubAccountRepo); !ok {
		t.Errorf("accounts = %T, want unchanged", accounts)
	}
}
