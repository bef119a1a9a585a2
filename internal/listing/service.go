// Package listing はリスティングのステータス遷移（削除依頼ワークフロー）を提供する。
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/hitoshi/removify/internal/logger"
	"github.com/hitoshi/removify/internal/metrics"
	"github.com/hitoshi/removify/internal/model"
	"github.com/hitoshi/removify/internal/notify"
	"github.com/hitoshi/removify/internal/repository"
	"github.com/hitoshi/removify/internal/security"
	"github.com/hitoshi/removify/internal/tracing"
)

// UpdateRequest は単一リスティングのステータス更新要求。
type UpdateRequest struct {
	ID            string
	Status        string
	BulkOperation bool   // 一括操作の一部として呼ばれた場合は個別通知を抑止する
	Email         string // 識別Cookieから取得した要求者
}

// BulkUpdateRequest は複数リスティングのステータス一括更新要求。
type BulkUpdateRequest struct {
	IDs    []string
	Status string
	Email  string
}

// Result はステータス更新の結果。
type Result struct {
	Matched  int64
	Modified int64
	Message  string
}

// Service はステータス遷移のサービス層。
// 通知の失敗はログとメトリクスに記録し、呼び出し元には返さない。
type Service struct {
	listingRepo repository.ListingRepository
	gateway     notify.Gateway
	sanitizer   security.ExcerptSanitizer
	metrics     metrics.MetricsCollector
	logger      *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	listingRepo repository.ListingRepository,
	gateway notify.Gateway,
	sanitizer security.ExcerptSanitizer,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		listingRepo: listingRepo,
		gateway:     gateway,
		sanitizer:   sanitizer,
		metrics:     collector,
		logger:      logger,
	}
}

// UpdateStatus は要求者が所有するリスティング1件のステータスを更新する。
// active → awaiting の遷移で、一括操作でない場合のみ運用チャンネルへ通知する。
func (s *Service) UpdateStatus(ctx context.Context, req UpdateRequest) (*Result, error) {
	email := model.NormalizeEmail(req.Email)
	if email == "" {
		return nil, model.NewUnauthenticatedError()
	}
	if req.ID == "" || req.Status == "" {
		return nil, model.NewValidationError("Missing required parameters")
	}
	status, err := model.ParseListingStatus(req.Status)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.Tracer("listing").Start(ctx, "listing.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("listing.status", string(status)))

	s.metrics.RecordStatusTransition(metrics.ModeSingle, string(status))

	current, err := s.listingRepo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("リスティングの取得に失敗しました: %w", err)
	}
	if current == nil || !model.EqualEmail(current.SubmittedBy, email) {
		return nil, model.NewListingNotFoundError(req.ID)
	}

	res, err := s.listingRepo.UpdateStatus(ctx, req.ID, email, status)
	if err != nil {
		return nil, fmt.Errorf("ステータスの更新に失敗しました: %w", err)
	}
	if res.Matched == 0 {
		return nil, model.NewListingNotFoundError(req.ID)
	}
	s.metrics.RecordListingsUpdated(res.Modified)

	if current.Status == model.StatusActive && status == model.StatusAwaiting && !req.BulkOperation {
		msg := notify.TakedownRequest(email, current, s.sanitizer.Excerpt(current.Content()))
		s.notify(ctx, metrics.NotificationTakedown, msg, email)
	}

	return &Result{
		Matched:  res.Matched,
		Modified: res.Modified,
		Message:  fmt.Sprintf("Status updated to %s", status),
	}, nil
}

// BulkUpdateStatus は要求者が所有し、現在activeのリスティングだけを一括更新する。
// 他の状態にあるリスティングは通知なしにスキップする。
func (s *Service) BulkUpdateStatus(ctx context.Context, req BulkUpdateRequest) (*Result, error) {
	email := model.NormalizeEmail(req.Email)
	if email == "" {
		return nil, model.NewUnauthenticatedError()
	}
	ids := uniqueIDs(req.IDs)
	if len(ids) == 0 || req.Status == "" {
		return nil, model.NewValidationError("Missing required parameters")
	}
	status, err := model.ParseListingStatus(req.Status)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.Tracer("listing").Start(ctx, "listing.BulkUpdateStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("listing.status", string(status)),
		attribute.Int("listing.requested", len(ids)),
	)

	s.metrics.RecordStatusTransition(metrics.ModeBulk, string(status))

	found, err := s.listingRepo.FindByIDs(ctx, ids, email)
	if err != nil {
		return nil, fmt.Errorf("リスティングの取得に失敗しました: %w", err)
	}

	active := make([]*model.Listing, 0, len(found))
	activeIDs := make([]string, 0, len(found))
	for _, l := range found {
		if l.Status == model.StatusActive {
			active = append(active, l)
			activeIDs = append(activeIDs, l.ID)
		}
	}
	if len(active) == 0 {
		return &Result{Message: "No active listings to update"}, nil
	}

	res, err := s.listingRepo.UpdateStatusMany(ctx, activeIDs, email, model.StatusActive, status)
	if err != nil {
		return nil, fmt.Errorf("ステータスの一括更新に失敗しました: %w", err)
	}
	s.metrics.RecordListingsUpdated(res.Modified)
	span.SetAttributes(attribute.Int64("listing.modified", res.Modified))

	if status == model.StatusAwaiting && res.Modified > 0 {
		counts := s.modifiedBySource(ctx, active, activeIDs, email, status, res.Modified)
		msg := notify.BulkTakedownRequest(email, int(res.Modified), counts)
		s.notify(ctx, metrics.NotificationBulkTakedown, msg, email)
	}

	return &Result{
		Matched:  res.Matched,
		Modified: res.Modified,
		Message:  fmt.Sprintf("Status updated to %s for %d listings", status, res.Modified),
	}, nil
}

// modifiedBySource は一括更新で実際に変更されたリスティングをソース別に数える。
// 読み出しから書き込みまでの間に他で状態が変わった場合は、更新後の状態を読み直して数える。
// 読み直しに失敗した場合は更新前のスナップショットで代用する。
func (s *Service) modifiedBySource(ctx context.Context, active []*model.Listing, activeIDs []string, email string, to model.ListingStatus, modified int64) map[model.SourceBucket]int {
	counts := make(map[model.SourceBucket]int, len(model.SourceBuckets))
	if modified == int64(len(active)) {
		for _, l := range active {
			counts[l.Bucket()]++
		}
		return counts
	}

	current, err := s.listingRepo.FindByIDs(ctx, activeIDs, email)
	if err != nil {
		s.logger.Warn("failed to reload listings for bulk notification",
			slog.String("user", logger.RedactEmail(email)),
			slog.String("error", err.Error()),
		)
		for _, l := range active {
			counts[l.Bucket()]++
		}
		return counts
	}
	for _, l := range current {
		if l.Status == to {
			counts[l.Bucket()]++
		}
	}
	return counts
}

// notify は通知を1回だけ送信する。失敗はログとメトリクスに残して握りつぶす。
func (s *Service) notify(ctx context.Context, kind string, msg notify.Message, email string) {
	_, err := s.gateway.PostMessage(ctx, msg)
	s.metrics.RecordNotification(kind, err)
	if err != nil {
		s.logger.Error("failed to send takedown notification",
			slog.String("kind", kind),
			slog.String("user", logger.RedactEmail(email)),
			slog.String("error", err.Error()),
		)
	}
}

// uniqueIDs は空文字を除き、順序を保って重複を取り除く。
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
