package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/hitoshi/removify/internal/model"
)

func newTestRateLimiter(t *testing.T, generalBurst, takedownBurst int) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     0.5,
		GeneralBurst:    generalBurst,
		TakedownRate:    0.5,
		TakedownBurst:   takedownBurst,
		CleanupInterval: time.Minute,
	})
	t.Cleanup(rl.Stop)
	return rl
}

func requestAs(email string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/listings/update-status", nil)
	if email != "" {
		req = req.WithContext(ContextWithEmail(req.Context(), email))
	}
	return req
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	rl := newTestRateLimiter(t, 3, 1)
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestAs("a@x.com"))
		if w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i, w.Code)
		}
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	rl := newTestRateLimiter(t, 2, 1)
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), requestAs("a@x.com"))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs("a@x.com"))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || retry != 2 {
		t.Errorf("Retry-After = %q, want 2", w.Header().Get("Retry-After"))
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeRateLimited {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeRateLimited)
	}
}

func TestRateLimiter_IndependentPerIdentity(t *testing.T) {
	rl := newTestRateLimiter(t, 1, 1)
	handler := rl.GeneralMiddleware()(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), requestAs("a@x.com"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs("b@x.com"))
	if w.Code != http.StatusOK {
		t.Errorf("other identity status = %d, want 200", w.Code)
	}
	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", got)
	}
}

func TestRateLimiter_TakedownIndependentOfGeneral(t *testing.T) {
	rl := newTestRateLimiter(t, 5, 1)
	general := rl.GeneralMiddleware()(okHandler())
	takedown := rl.TakedownMiddleware()(okHandler())

	takedown.ServeHTTP(httptest.NewRecorder(), requestAs("a@x.com"))

	w := httptest.NewRecorder()
	takedown.ServeHTTP(w, requestAs("a@x.com"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("takedown status = %d, want 429", w.Code)
	}

	w = httptest.NewRecorder()
	general.ServeHTTP(w, requestAs("a@x.com"))
	if w.Code != http.StatusOK {
		t.Errorf("general status = %d, want 200", w.Code)
	}
	if rl.TakedownLimiterCount() != 1 {
		t.Errorf("TakedownLimiterCount = %d, want 1", rl.TakedownLimiterCount())
	}
}

func TestRateLimiter_FallsBackToClientIP(t *testing.T) {
	rl := newTestRateLimiter(t, 1, 1)
	handler := rl.GeneralMiddleware()(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	first.RemoteAddr = "10.0.0.1:5000"
	handler.ServeHTTP(httptest.NewRecorder(), first)

	sameHost := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	sameHost.RemoteAddr = "10.0.0.1:6000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, sameHost)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("same host status = %d, want 429", w.Code)
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := newTestRateLimiter(t, 5, 5)
	handler := rl.GeneralMiddleware()(okHandler())
	handler.ServeHTTP(httptest.NewRecorder(), requestAs("a@x.com"))

	rl.cleanup(time.Now().Add(time.Minute))
	if rl.GeneralLimiterCount() != 1 {
		t.Errorf("recent entry evicted: count = %d", rl.GeneralLimiterCount())
	}

	rl.cleanup(time.Now().Add(3 * time.Minute))
	if rl.GeneralLimiterCount() != 0 {
		t.Errorf("stale entry kept: count = %d", rl.GeneralLimiterCount())
	}
}

func TestNewRateLimiterConfig(t *testing.T) {
	cfg := NewRateLimiterConfig(120, 30)
	if cfg.GeneralRate != 2 || cfg.GeneralBurst != 120 {
		t.Errorf("general = %v/%d, want 2/120", cfg.GeneralRate, cfg.GeneralBurst)
	}
	if cfg.TakedownRate != 0.5 || cfg.TakedownBurst != 30 {
		t.Errorf("takedown = %v/%d, want 0.5/30", cfg.TakedownRate, cfg.TakedownBurst)
	}
}
