package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/removify/internal/middleware"
	"github.com/hitoshi/removify/internal/model"
)

// SessionHandlerConfig はセッションCookieの設定。
type SessionHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // Cookieの有効期間（秒）
}

// SessionHandler はセッションCookieの発行と破棄を行うHTTPハンドラー。
// IdPトークンは検証せずにそのまま保持する。
type SessionHandler struct {
	config SessionHandlerConfig
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(config SessionHandlerConfig) *SessionHandler {
	return &SessionHandler{config: config}
}

type createSessionRequest struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// Create はセッションCookieと識別Cookieを発行する。
// POST /session
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSONBody(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	token := strings.TrimSpace(req.Token)
	email := model.NormalizeEmail(req.Email)
	if token == "" || email == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("Token and email are required"))
		return
	}

	h.setCookie(w, middleware.SessionCookieName, token, h.config.SessionMaxAge)
	h.setCookie(w, middleware.IdentityCookieName, url.QueryEscape(email), h.config.SessionMaxAge)

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Delete はセッションCookieと識別Cookieを破棄する。
// DELETE /session
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.setCookie(w, middleware.SessionCookieName, "", -1)
	h.setCookie(w, middleware.IdentityCookieName, "", -1)

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// setCookie はHTTP Only、SameSite=LaxのCookieを設定する。maxAgeが負の場合は削除する。
func (h *SessionHandler) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
