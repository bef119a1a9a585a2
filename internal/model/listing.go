// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Listing はスクレイピングで収集されたネガティブレビュー1件への参照を表す。
// レコードは削除されず、削除済みはStatusの値で表現する。
type Listing struct {
	ID          string
	SubmittedBy string // 所有アカウントのメールアドレス
	Source      string // 取得元プラットフォーム（自由文字列）
	Summary     string
	Text        string
	Description string
	URL         string
	Link        string
	Timestamp   *time.Time
	Status      ListingStatus

	// Extra は既知フィールド以外にストアへ保存されている値。
	// ダッシュボードにはそのまま返す。
	Extra map[string]any
}

// Content は本文として扱うフィールドを返す。
// summary、text、descriptionの順で最初の空でない値を採用する。
func (l *Listing) Content() string {
	for _, s := range []string{l.Summary, l.Text, l.Description} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// Bucket はリスティングの取得元バケットを返す。
func (l *Listing) Bucket() SourceBucket {
	return BucketOf(l.Source)
}

// ListingStatus はテイクダウンワークフロー上のリスティング状態を表す。
// 想定する遷移は active → awaiting → deleted。
type ListingStatus string

const (
	// StatusActive は公開中（初期状態）。スクレイパーが設定する。
	StatusActive ListingStatus = "active"
	// StatusAwaiting はテイクダウン依頼済みでオペレーターの対応待ち。
	StatusAwaiting ListingStatus = "awaiting"
	// StatusDeleted は削除済み。
	StatusDeleted ListingStatus = "deleted"
)

// ParseListingStatus は文字列をListingStatusに変換する。
// active、awaiting、deleted以外はバリデーションエラーを返す。
func ParseListingStatus(s string) (ListingStatus, error) {
	switch st := ListingStatus(s); st {
	case StatusActive, StatusAwaiting, StatusDeleted:
		return st, nil
	default:
		return "", NewInvalidStatusError(s)
	}
}

// SourceBucket はコミッション計算に使う取得元の分類。
type SourceBucket string

const (
	SourceReddit    SourceBucket = "reddit"
	SourceGoogle    SourceBucket = "google"
	SourceTikTok    SourceBucket = "tiktok"
	SourceInstagram SourceBucket = "instagram"
	SourceOthers    SourceBucket = "others"
)

// SourceBuckets はレスポンスに出力するバケットの固定順序。
var SourceBuckets = []SourceBucket{
	SourceReddit,
	SourceGoogle,
	SourceTikTok,
	SourceInstagram,
	SourceOthers,
}

// commissionRates はバケットごとのコミッション率。
var commissionRates = map[SourceBucket]float64{
	SourceReddit:    0.10,
	SourceGoogle:    0.07,
	SourceTikTok:    0.05,
	SourceInstagram: 0.05,
	SourceOthers:    0.02,
}

// BucketOf は取得元文字列を大文字小文字を区別せずにバケットへ分類する。
// 既知の4種以外はすべてothersになる。
func BucketOf(source string) SourceBucket {
	switch b := SourceBucket(strings.ToLower(source)); b {
	case SourceReddit, SourceGoogle, SourceTikTok, SourceInstagram:
		return b
	default:
		return SourceOthers
	}
}

// CommissionRate はバケットのコミッション率を返す。
func CommissionRate(b SourceBucket) float64 {
	if r, ok := commissionRates[b]; ok {
		return r
	}
	return commissionRates[SourceOthers]
}
