package handler

import (
	"context"

	"github.com/hitoshi/removify/internal/auth"
	"github.com/hitoshi/removify/internal/dashboard"
	"github.com/hitoshi/removify/internal/listing"
	"github.com/hitoshi/removify/internal/model"
	"github.com/hitoshi/removify/internal/user"
)

// DashboardServiceAdapter は dashboard.Service を DashboardServiceInterface に適合させるアダプタ。
type DashboardServiceAdapter struct {
	svc *dashboard.Service
}

// NewDashboardServiceAdapter はDashboardServiceAdapterを生成する。
func NewDashboardServiceAdapter(svc *dashboard.Service) *DashboardServiceAdapter {
	return &DashboardServiceAdapter{svc: svc}
}

// Compute は集計結果をhandlerレスポンス型で返す。
func (a *DashboardServiceAdapter) Compute(ctx context.Context, email string) (*dashboardResponse, error) {
	snap, err := a.svc.Compute(ctx, email)
	if err != nil {
		return nil, err
	}
	return toDashboardResponse(snap), nil
}

// toDashboardResponse はドメインのSnapshotをhandlerのレスポンス型に変換する。
func toDashboardResponse(snap *dashboard.Snapshot) *dashboardResponse {
	resp := &dashboardResponse{
		CommissionBySource:  make([]sourceCommissionResponse, len(snap.CommissionBySource)),
		TotalCommission:     snap.TotalCommission,
		TodayCount:          snap.TodayCount,
		SourceCounts:        make([]sourceCountResponse, len(snap.SourceCounts)),
		Listings:            make([]map[string]any, len(snap.Listings)),
		DeletedReviewsCount: snap.DeletedCount,
	}
	for i, c := range snap.CommissionBySource {
		resp.CommissionBySource[i] = sourceCommissionResponse{Source: string(c.Source), Commission: c.Commission}
	}
	for i, c := range snap.SourceCounts {
		resp.SourceCounts[i] = sourceCountResponse{Source: string(c.Source), Count: c.Count}
	}
	for i, l := range snap.Listings {
		resp.Listings[i] = toListingJSON(l)
	}
	return resp
}

// toListingJSON はリスティングをストアの全フィールドを含むJSONオブジェクトに変換する。
// idは文字列で返し、空のフィールドは出力しない。
func toListingJSON(l *model.Listing) map[string]any {
	out := make(map[string]any, len(l.Extra)+10)
	for k, v := range l.Extra {
		out[k] = v
	}

	out["id"] = l.ID
	out["submitted_by"] = l.SubmittedBy
	out["status"] = string(l.Status)
	optional := map[string]string{
		"source":      l.Source,
		"summary":     l.Summary,
		"text":        l.Text,
		"description": l.Description,
		"url":         l.URL,
		"link":        l.Link,
	}
	for k, v := range optional {
		if v != "" {
			out[k] = v
		}
	}
	if l.Timestamp != nil {
		out["timestamp"] = *l.Timestamp
	}
	return out
}

// UserServiceAdapter は user.Service を UserServiceInterface に適合させるアダプタ。
type UserServiceAdapter struct {
	svc *user.Service
}

// NewUserServiceAdapter はUserServiceAdapterを生成する。
func NewUserServiceAdapter(svc *user.Service) *UserServiceAdapter {
	return &UserServiceAdapter{svc: svc}
}

// GetProfile はプロフィールをhandlerレスポンス型で返す。
func (a *UserServiceAdapter) GetProfile(ctx context.Context, email string) (*userProfileResponse, error) {
	profile, err := a.svc.GetProfile(ctx, email)
	if err != nil {
		return nil, err
	}
	return &userProfileResponse{
		Email:          profile.Email,
		SlackConnected: profile.SlackConnected,
		SlackTeamID:    profile.SlackTeamID,
	}, nil
}

// --- compile-time interface checks ---

var _ DashboardServiceInterface = (*DashboardServiceAdapter)(nil)
var _ UserServiceInterface = (*UserServiceAdapter)(nil)
var _ ListingServiceInterface = (*listing.Service)(nil)
var _ SlackLinkServiceInterface = (*auth.Service)(nil)
