package handler

import (
	"context"
	"net/http"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	GetProfile(ctx context.Context, email string) (*userProfileResponse, error)
}

// userProfileResponse はGET /userのレスポンス。Slackの認証情報は含めない。
type userProfileResponse struct {
	Email          string `json:"email"`
	SlackConnected bool   `json:"slackConnected"`
	SlackTeamID    string `json:"slackTeamId,omitempty"`
}

// UserHandler はアカウントプロフィールのHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// Get はアカウントプロフィールを返す。
// GET /user?email=
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
