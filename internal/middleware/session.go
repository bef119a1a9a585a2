// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hitoshi/removify/internal/model"
)

const (
	// SessionCookieName はIdPトークンを保持するCookie名。
	SessionCookieName = "session"
	// IdentityCookieName は要求者のメールアドレスを保持するCookie名。
	IdentityCookieName = "user-email"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// emailContextKey はリクエストコンテキストに要求者のメールアドレスを格納するためのキー。
var emailContextKey = contextKey("user_email")

// NewIdentityMiddleware は識別Cookieから要求者を読み取り、コンテキストに注入するミドルウェアを返す。
// Cookieの値はセッション発行時に設定されたものとして信頼し、検証は行わない。
// Cookieが無いリクエストもそのまま通す。拒否はRequireIdentityが行う。
func NewIdentityMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if email := identityFromCookie(r); email != "" {
				r = r.WithContext(ContextWithEmail(r.Context(), email))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireIdentity は識別Cookieの無いリクエストに401を返すミドルウェア。
// NewIdentityMiddlewareの後に配置する。
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := EmailFromContext(r.Context()); err != nil {
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// identityFromCookie は識別Cookieを読み取り正規化する。
// ブラウザ側でURLエンコードされた値も受け付ける。
func identityFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(IdentityCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	value := cookie.Value
	if decoded, err := url.PathUnescape(value); err == nil {
		value = decoded
	}
	return model.NormalizeEmail(value)
}

// EmailFromContext はリクエストコンテキストから要求者のメールアドレスを取得する。
func EmailFromContext(ctx context.Context) (string, error) {
	email, ok := ctx.Value(emailContextKey).(string)
	if !ok || email == "" {
		return "", fmt.Errorf("identity not found in context")
	}
	return email, nil
}

// ContextWithEmail はコンテキストに要求者のメールアドレスを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailContextKey, email)
}
