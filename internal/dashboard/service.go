// Package dashboard はアカウント単位のダッシュボード集計を提供する。
package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hitoshi/removify/internal/metrics"
	"github.com/hitoshi/removify/internal/model"
	"github.com/hitoshi/removify/internal/repository"
	"github.com/hitoshi/removify/internal/tracing"
)

// SourceCount はバケットごとのリスティング件数。
type SourceCount struct {
	Source model.SourceBucket
	Count  int
}

// SourceCommission はバケットごとのコミッション見積もり。
type SourceCommission struct {
	Source     model.SourceBucket
	Commission float64
}

// Snapshot はダッシュボードに表示する集計結果。
// SourceCountsとCommissionBySourceは常にmodel.SourceBucketsの順で5件。
type Snapshot struct {
	Listings           []*model.Listing
	SourceCounts       []SourceCount
	CommissionBySource []SourceCommission
	TotalCommission    float64
	TodayCount         int
	DeletedCount       int
}

// Service はダッシュボード集計のサービス層。
// 読み取りのみで副作用は持たない。
type Service struct {
	listingRepo repository.ListingRepository
	accountRepo repository.AccountRepository
	metrics     metrics.MetricsCollector
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	listingRepo repository.ListingRepository,
	accountRepo repository.AccountRepository,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		listingRepo: listingRepo,
		accountRepo: accountRepo,
		metrics:     collector,
		now:         time.Now,
	}
}

// Compute は指定アカウントの集計結果を返す。
// 年間売上が登録されていない場合はREVENUE_NOT_FOUNDを返す。
func (s *Service) Compute(ctx context.Context, email string) (*Snapshot, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, model.NewValidationError("Missing email parameter")
	}

	ctx, span := tracing.Tracer("dashboard").Start(ctx, "dashboard.Compute")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordDashboardCompute(time.Since(start)) }()

	revenue, err := s.accountRepo.FindYearlyRevenue(ctx, email)
	if err != nil {
		span.SetStatus(codes.Error, "revenue lookup failed")
		return nil, fmt.Errorf("年間売上の取得に失敗しました: %w", err)
	}
	if revenue == nil {
		return nil, model.NewRevenueNotFoundError()
	}

	listings, err := s.listingRepo.ListByOwner(ctx, email)
	if err != nil {
		span.SetStatus(codes.Error, "listing lookup failed")
		return nil, fmt.Errorf("リスティング一覧の取得に失敗しました: %w", err)
	}

	snap := Summarize(listings, revenue.YearlyRevenue, s.now())
	span.SetAttributes(
		attribute.Int("dashboard.listings", len(listings)),
		attribute.Int("dashboard.today_count", snap.TodayCount),
	)
	return snap, nil
}

// Summarize はリスティング一覧と年間売上から集計結果を計算する。
// 「今日」はnowのロケーションにおける暦日で判定する。
func Summarize(listings []*model.Listing, yearlyRevenue float64, now time.Time) *Snapshot {
	counts := make(map[model.SourceBucket]int, len(model.SourceBuckets))
	dayStart, dayEnd := DayBounds(now)

	snap := &Snapshot{Listings: listings}
	if snap.Listings == nil {
		snap.Listings = []*model.Listing{}
	}

	for _, l := range listings {
		counts[l.Bucket()]++
		if l.Status == model.StatusDeleted {
			snap.DeletedCount++
		}
		if l.Timestamp != nil && !l.Timestamp.Before(dayStart) && !l.Timestamp.After(dayEnd) {
			snap.TodayCount++
		}
	}

	snap.SourceCounts = make([]SourceCount, 0, len(model.SourceBuckets))
	snap.CommissionBySource = make([]SourceCommission, 0, len(model.SourceBuckets))
	for _, b := range model.SourceBuckets {
		commission := model.CommissionRate(b) * yearlyRevenue * float64(counts[b])
		snap.SourceCounts = append(snap.SourceCounts, SourceCount{Source: b, Count: counts[b]})
		snap.CommissionBySource = append(snap.CommissionBySource, SourceCommission{Source: b, Commission: commission})
		snap.TotalCommission += commission
	}

	return snap
}

// DayBounds はnowと同じ暦日の開始時刻（00:00:00.000）と終了時刻（23:59:59.999）を返す。
// 両端を含む区間として扱う。
func DayBounds(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	loc := now.Location()
	return time.Date(y, m, d, 0, 0, 0, 0, loc),
		time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
}
