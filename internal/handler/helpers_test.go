package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/removify/internal/middleware"
	"github.com/hitoshi/removify/internal/notify"
)

// withEmail はリクエストのコンテキストに識別済みメールアドレスを設定する。
func withEmail(r *http.Request, email string) *http.Request {
	return r.WithContext(middleware.ContextWithEmail(r.Context(), email))
}

// parseAPIErrorResponse はエラーレスポンスのJSONをmapにデコードする。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return body
}

// decodeBody はレスポンスボディをmapにデコードする。
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

// mockGateway はnotify.Gatewayのモック実装。
type mockGateway struct {
	postMessageFn func(ctx context.Context, msg notify.Message) (string, error)
	messages      []notify.Message
}

func (m *mockGateway) PostMessage(ctx context.Context, msg notify.Message) (string, error) {
	m.messages = append(m.messages, msg)
	if m.postMessageFn != nil {
		return m.postMessageFn(ctx, msg)
	}
	return "1700000000.000100", nil
}
