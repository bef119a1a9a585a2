package logger

import "strings"

// RedactEmail はログ出力用にメールアドレスのローカル部を伏せ字にする。
// 先頭2文字とドメインのみを残す。空文字は空文字のまま返す。
func RedactEmail(email string) string {
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***@***"
	}
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}
