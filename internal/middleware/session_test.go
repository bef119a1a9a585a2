package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/removify/internal/model"
)

func TestIdentityMiddleware_InjectsEmail(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		want   string
	}{
		{"通常の値", "a@x.com", "a@x.com"},
		{"URLエンコードされた値", "a%40x.com", "a@x.com"},
		{"前後の空白", " a@x.com ", "a@x.com"},
		{"エスケープされていないプラス", "a+tag@x.com", "a+tag@x.com"},
		{"エスケープされたプラス", "a%2Btag%40x.com", "a+tag@x.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := NewIdentityMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = EmailFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			req.AddCookie(&http.Cookie{Name: IdentityCookieName, Value: tt.cookie})
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("email = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIdentityMiddleware_NoCookie_PassesThrough(t *testing.T) {
	called := false
	handler := NewIdentityMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, err := EmailFromContext(r.Context()); err == nil {
			t.Error("expected no identity in context")
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if !called {
		t.Error("next handler should be called without identity cookie")
	}
}

func TestRequireIdentity_Rejects(t *testing.T) {
	called := false
	handler := NewIdentityMiddleware()(RequireIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})))

	req := httptest.NewRequest(http.MethodPost, "/listings/update-status", nil)
	req.AddCookie(&http.Cookie{Name: IdentityCookieName, Value: ""})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if called {
		t.Error("next handler must not be called")
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeUnauthenticated {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthenticated)
	}
	if body.Error != "User not authenticated" {
		t.Errorf("error = %q, want %q", body.Error, "User not authenticated")
	}
}

func TestRequireIdentity_Allows(t *testing.T) {
	var got string
	handler := NewIdentityMiddleware()(RequireIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = EmailFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodPost, "/listings/update-status", nil)
	req.AddCookie(&http.Cookie{Name: IdentityCookieName, Value: "a@x.com"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got != "a@x.com" {
		t.Errorf("email = %q, want a@x.com", got)
	}
}
