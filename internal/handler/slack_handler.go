package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/removify/internal/auth"
	"github.com/hitoshi/removify/internal/logger"
	"github.com/hitoshi/removify/internal/metrics"
	"github.com/hitoshi/removify/internal/middleware"
	"github.com/hitoshi/removify/internal/model"
	"github.com/hitoshi/removify/internal/notify"
)

// SlackLinkServiceInterface はSlack連携ハンドラーが必要とするサービスインターフェース。
type SlackLinkServiceInterface interface {
	Enabled() bool
	AuthorizeURL(email string) (string, error)
	HandleCallback(ctx context.Context, email, code, state string) error
}

// SlackHandlerConfig はSlackハンドラーの設定。
type SlackHandlerConfig struct {
	BaseURL string // コールバック後のリダイレクト先の基点
}

// SlackHandler はSlack連携と運用チャンネルへのメッセージ送信のHTTPハンドラー。
type SlackHandler struct {
	link    SlackLinkServiceInterface
	gateway notify.Gateway
	metrics metrics.MetricsCollector
	config  SlackHandlerConfig
}

// NewSlackHandler はSlackHandlerを生成する。
func NewSlackHandler(link SlackLinkServiceInterface, gateway notify.Gateway, collector metrics.MetricsCollector, config SlackHandlerConfig) *SlackHandler {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &SlackHandler{
		link:    link,
		gateway: gateway,
		metrics: collector,
		config:  config,
	}
}

// OAuth はSlackの認可画面へリダイレクトする。
// GET /slack/oauth
func (h *SlackHandler) OAuth(w http.ResponseWriter, r *http.Request) {
	email, err := middleware.EmailFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	authorizeURL, err := h.link.AuthorizeURL(email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	http.Redirect(w, r, authorizeURL, http.StatusTemporaryRedirect)
}

// Callback はSlackからのOAuthコールバックを処理し、結果をクエリに付けてダッシュボードへリダイレクトする。
// GET /slack/oauth/callback?code=xxx&state=yyy
func (h *SlackHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if !h.link.Enabled() {
		writeAPIErrorResponse(w, http.StatusServiceUnavailable, model.NewIntegrationDisabledError())
		return
	}

	q := r.URL.Query()
	email, _ := middleware.EmailFromContext(r.Context())

	params := url.Values{}
	if err := h.link.HandleCallback(r.Context(), email, q.Get("code"), q.Get("state")); err != nil {
		code := auth.CallbackErrorCode(err)
		slog.Warn("slack oauth callback failed",
			slog.String("slack_error", code),
			slog.String("error", err.Error()),
		)
		params.Set("slackError", code)
	} else {
		params.Set("slackConnected", "true")
	}

	http.Redirect(w, r, h.dashboardURL(params), http.StatusTemporaryRedirect)
}

type slackSendRequest struct {
	Text     string `json:"text"`
	Username string `json:"username"`
	IconURL  string `json:"icon_url"`
}

type slackSendResponse struct {
	Success bool   `json:"success"`
	TS      string `json:"ts"`
}

// Send はユーザーからのメッセージを運用チャンネルへ送信する。
// 通知と異なり送信失敗はそのままエラーとして返す。
// POST /slack/send
func (h *SlackHandler) Send(w http.ResponseWriter, r *http.Request) {
	email, err := middleware.EmailFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req slackSendRequest
	if err := decodeJSONBody(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("Message text is required"))
		return
	}

	ts, err := h.gateway.PostMessage(r.Context(), notify.UserRelay(email, req.Text, req.Username, req.IconURL))
	h.metrics.RecordNotification(metrics.NotificationRelay, err)
	if err != nil {
		if errors.Is(err, notify.ErrNotConfigured) {
			writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewNotifierNotConfiguredError())
			return
		}
		slog.Error("failed to relay slack message",
			slog.String("user", logger.RedactEmail(email)),
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError("Failed to send message to Slack"))
		return
	}

	writeJSON(w, http.StatusOK, slackSendResponse{Success: true, TS: ts})
}

func (h *SlackHandler) dashboardURL(params url.Values) string {
	return strings.TrimRight(h.config.BaseURL, "/") + "/dashboard?" + params.Encode()
}
