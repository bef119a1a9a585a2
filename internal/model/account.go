// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
	"unicode"
)

// Account はダッシュボードの利用アカウントを表す。
// リスティングとはメールアドレスの一致で紐付く（外部キーではない）。
type Account struct {
	Email          string
	SlackConnected bool
	SlackTeamID    string
	Slack          *SlackCredentials // 未連携の場合はnil
	UpdatedAt      time.Time
}

// Revenue はアカウントの年間売上。コミッション見積もりの基準値。
type Revenue struct {
	Email         string
	YearlyRevenue float64
}

// SlackCredentials はOAuth連携で取得したSlackの認証情報。
type SlackCredentials struct {
	TeamID             string
	BotToken           string
	BotUserID          string
	IncomingWebhookURL string
	AuthedUserID       string
	InstalledAt        time.Time
	UpdatedAt          time.Time
}

// SlackInstallation はSlackワークスペース（チーム）単位のインストール記録。
type SlackInstallation struct {
	TeamID             string
	TeamName           string
	UserID             string // インストールしたSlackユーザー
	UserEmail          string
	BotToken           string
	BotUserID          string
	IncomingWebhookURL string
	UpdatedAt          time.Time
}

// NormalizeEmail はメールアドレスから空白文字をすべて取り除く。
// 大文字小文字は保持し、照合側で区別しない。
func NormalizeEmail(email string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, email)
}

// EqualEmail は正規化したメールアドレスを大文字小文字を区別せずに比較する。
func EqualEmail(a, b string) bool {
	return strings.EqualFold(NormalizeEmail(a), NormalizeEmail(b))
}
