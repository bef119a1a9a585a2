// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ExcerptSanitizer はスクレイピングで取得したレビュー本文から
// 通知メッセージに埋め込むための安全なプレーンテキスト抜粋を生成する。
// bluemondayのStrictPolicyで全タグを除去し、Slackの制御文字をエスケープする。
package security

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultExcerptLength は抜粋の既定の最大文字数（rune単位）。
const DefaultExcerptLength = 200

// ellipsis は切り詰めた抜粋の末尾に付与する省略記号。
const ellipsis = "…"

// ExcerptSanitizer はHTMLを含みうる本文から抜粋を生成するインターフェース。
type ExcerptSanitizer interface {
	// Excerpt はタグを除去し、空白を詰め、最大長で切り詰めた抜粋を返す。
	// 結果はSlackのmrkdwnにそのまま埋め込める（&, <, > はエスケープ済み）。
	// 空文字列の入力には空文字列を返す。
	Excerpt(raw string) string
}

// excerptSanitizer はExcerptSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなので共有してよい。
type excerptSanitizer struct {
	policy   *bluemonday.Policy
	maxRunes int
}

// NewExcerptSanitizer はExcerptSanitizerを生成する。
// maxRunesが0以下の場合はDefaultExcerptLengthを使用する。
func NewExcerptSanitizer(maxRunes int) *excerptSanitizer {
	if maxRunes <= 0 {
		maxRunes = DefaultExcerptLength
	}
	return &excerptSanitizer{
		policy:   bluemonday.StrictPolicy(),
		maxRunes: maxRunes,
	}
}

// slackEscaper はSlackが制御文字として扱う3文字をエスケープする。
var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Excerpt は本文の抜粋を返す。
func (s *excerptSanitizer) Excerpt(raw string) string {
	// StrictPolicyはエンティティをエスケープして返すため、一度戻してから整形する
	text := html.UnescapeString(s.policy.Sanitize(raw))
	text = strings.Join(strings.Fields(text), " ")

	if utf8.RuneCountInString(text) > s.maxRunes {
		runes := []rune(text)
		text = strings.TrimRight(string(runes[:s.maxRunes]), " ") + ellipsis
	}

	return slackEscaper.Replace(text)
}
