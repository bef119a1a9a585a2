// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, listing, account, notification, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest        = "INVALID_REQUEST"
	ErrCodeInvalidStatus         = "INVALID_STATUS"
	ErrCodeUnauthenticated       = "UNAUTHENTICATED"
	ErrCodeAccountNotFound       = "ACCOUNT_NOT_FOUND"
	ErrCodeRevenueNotFound       = "REVENUE_NOT_FOUND"
	ErrCodeListingNotFound       = "LISTING_NOT_FOUND"
	ErrCodeNotifierNotConfigured = "NOTIFIER_NOT_CONFIGURED"
	ErrCodeIntegrationDisabled   = "INTEGRATION_DISABLED"
	ErrCodeRateLimited           = "RATE_LIMITED"
	ErrCodeInternal              = "INTERNAL_ERROR"
)

// NewValidationError は必須項目の欠落や形式不正を表すエラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  message,
		Category: "validation",
		Action:   "Check the request parameters and try again.",
	}
}

// NewInvalidStatusError は未定義のステータス値が指定された場合のエラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("Invalid status: %q", status),
		Category: "validation",
		Action:   "Use one of active, awaiting or deleted.",
	}
}

// NewUnauthenticatedError は識別Cookieが無い場合のエラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "User not authenticated",
		Category: "auth",
		Action:   "Sign in again.",
	}
}

// NewAccountNotFoundError はアカウントが見つからない場合のエラーを生成する。
func NewAccountNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountNotFound,
		Message:  "User not found",
		Category: "account",
		Action:   "Check the email address.",
	}
}

// NewRevenueNotFoundError は年間売上の記録が無い場合のエラーを生成する。
func NewRevenueNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeRevenueNotFound,
		Message:  "No weekly data found for this email",
		Category: "account",
		Action:   "Wait for the first weekly scrape to finish.",
	}
}

// NewListingNotFoundError はリスティングが見つからない場合のエラーを生成する。
func NewListingNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeListingNotFound,
		Message:  fmt.Sprintf("Listing not found: %s", id),
		Category: "listing",
		Action:   "Reload the dashboard and try again.",
	}
}

// NewNotifierNotConfiguredError は通知先が未設定の場合のエラーを生成する。
func NewNotifierNotConfiguredError() *APIError {
	return &APIError{
		Code:     ErrCodeNotifierNotConfigured,
		Message:  "Slack notifications are not configured",
		Category: "notification",
		Action:   "Set SLACK_BOT_TOKEN and SLACK_CHANNEL_ID.",
	}
}

// NewIntegrationDisabledError はSlack連携の設定が無い場合のエラーを生成する。
func NewIntegrationDisabledError() *APIError {
	return &APIError{
		Code:     ErrCodeIntegrationDisabled,
		Message:  "Slack integration is not configured",
		Category: "system",
		Action:   "Set SLACK_CLIENT_ID, SLACK_CLIENT_SECRET and SLACK_STATE_SECRET.",
	}
}

// NewRateLimitedError はレート制限超過時のエラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests",
		Category: "system",
		Action:   "Wait a moment and try again.",
	}
}

// NewInternalError は内部エラーの汎用レスポンスを生成する。
// 詳細はログにのみ記録する。
func NewInternalError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  message,
		Category: "system",
		Action:   "Try again later.",
	}
}
