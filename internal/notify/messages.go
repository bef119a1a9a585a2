package notify

import (
	"fmt"
	"strings"

	"github.com/hitoshi/removify/internal/model"
)

// TakedownRequest は単一リスティングの削除依頼メッセージを生成する。
// excerptはサニタイズ済みの抜粋を渡すこと。
func TakedownRequest(email string, listing *model.Listing, excerpt string) Message {
	var b strings.Builder
	b.WriteString("🚨 *Review Deletion Request* 🚨\n\n")
	fmt.Fprintf(&b, "User *%s* has requested to delete a review", email)
	if listing.Source != "" {
		fmt.Fprintf(&b, " from *%s*", listing.Source)
	}
	b.WriteString(":\n\n")
	if excerpt != "" {
		fmt.Fprintf(&b, "> %s\n", excerpt)
	}
	if link := listingLink(listing); link != "" {
		fmt.Fprintf(&b, "\n<%s|View review>\n", link)
	}
	fmt.Fprintf(&b, "\nListing ID: `%s`", listing.ID)

	return Message{Text: b.String()}
}

// BulkTakedownRequest は一括削除依頼の集約メッセージを生成する。
// 件数が0のバケットは出力しない。
func BulkTakedownRequest(email string, total int, counts map[model.SourceBucket]int) Message {
	var b strings.Builder
	b.WriteString("🚨 *Bulk Review Deletion Request* 🚨\n\n")
	fmt.Fprintf(&b, "User *%s* has requested to delete *%d reviews* from the following sources:\n\n", email, total)

	lines := make([]string, 0, len(model.SourceBuckets))
	for _, bucket := range model.SourceBuckets {
		if n := counts[bucket]; n > 0 {
			lines = append(lines, fmt.Sprintf("*%s*: %d", bucket, n))
		}
	}
	b.WriteString(strings.Join(lines, "\n"))

	return Message{Text: b.String()}
}

// UserRelay はユーザーが運用チャンネルへ送るメッセージに送信者を付与する。
func UserRelay(email, text, username, iconURL string) Message {
	return Message{
		Text:     fmt.Sprintf("From <%s>: %s", email, text),
		Username: username,
		IconURL:  iconURL,
	}
}

// listingLink はリスティングの参照先URLを返す。urlを優先する。
func listingLink(l *model.Listing) string {
	if l.URL != "" {
		return l.URL
	}
	return l.Link
}
