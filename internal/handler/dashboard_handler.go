package handler

import (
	"context"
	"net/http"
)

// DashboardServiceInterface はダッシュボードハンドラーが必要とするサービスインターフェース。
type DashboardServiceInterface interface {
	Compute(ctx context.Context, email string) (*dashboardResponse, error)
}

// sourceCountResponse はバケットごとの件数。
type sourceCountResponse struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// sourceCommissionResponse はバケットごとのコミッション。
type sourceCommissionResponse struct {
	Source     string  `json:"source"`
	Commission float64 `json:"commission"`
}

// dashboardResponse はGET /dashboardのレスポンス。
type dashboardResponse struct {
	CommissionBySource  []sourceCommissionResponse `json:"commissionBySource"`
	TotalCommission     float64                    `json:"totalCommission"`
	TodayCount          int                        `json:"todayCount"`
	SourceCounts        []sourceCountResponse      `json:"sourceCounts"`
	Listings            []map[string]any           `json:"listings"`
	DeletedReviewsCount int                        `json:"deletedReviewsCount"`
}

// DashboardHandler はダッシュボードのHTTPハンドラー。
type DashboardHandler struct {
	service DashboardServiceInterface
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(service DashboardServiceInterface) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Get はアカウントの集計結果を返す。
// GET /dashboard?email=
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Compute(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
