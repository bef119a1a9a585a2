package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/removify/internal/listing"
	"github.com/hitoshi/removify/internal/middleware"
)

// ListingServiceInterface はリスティングハンドラーが必要とするサービスインターフェース。
type ListingServiceInterface interface {
	UpdateStatus(ctx context.Context, req listing.UpdateRequest) (*listing.Result, error)
	BulkUpdateStatus(ctx context.Context, req listing.BulkUpdateRequest) (*listing.Result, error)
}

// ListingHandler はリスティングのステータス更新HTTPハンドラー。
type ListingHandler struct {
	service ListingServiceInterface
}

// NewListingHandler はListingHandlerを生成する。
func NewListingHandler(service ListingServiceInterface) *ListingHandler {
	return &ListingHandler{service: service}
}

type updateStatusRequest struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	BulkOperation bool   `json:"bulkOperation"`
}

type bulkUpdateStatusRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

// UpdateStatus は単一リスティングのステータスを更新する。
// POST /listings/update-status
func (h *ListingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	// 識別CookieはRequireIdentityで確認済み。未設定の場合はサービス層が401を返す
	email, _ := middleware.EmailFromContext(r.Context())

	var req updateStatusRequest
	if err := decodeJSONBody(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.UpdateStatus(r.Context(), listing.UpdateRequest{
		ID:            req.ID,
		Status:        req.Status,
		BulkOperation: req.BulkOperation,
		Email:         email,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: result.Message})
}

// BulkUpdateStatus は複数リスティングのステータスを一括更新する。
// POST /listings/bulk-update-status
func (h *ListingHandler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	email, _ := middleware.EmailFromContext(r.Context())

	var req bulkUpdateStatusRequest
	if err := decodeJSONBody(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.BulkUpdateStatus(r.Context(), listing.BulkUpdateRequest{
		IDs:    req.IDs,
		Status: req.Status,
		Email:  email,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: result.Message})
}
