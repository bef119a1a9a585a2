package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestTracingMiddleware_RecordsServerSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var inner trace.SpanContext
	handler := NewTracingMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = trace.SpanContextFromContext(r.Context())
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "GET /health" {
		t.Errorf("name = %q, want %q", span.Name(), "GET /health")
	}
	if span.SpanKind() != trace.SpanKindServer {
		t.Errorf("kind = %v, want server", span.SpanKind())
	}
	if span.Status().Code != codes.Error {
		t.Errorf("status = %v, want error", span.Status().Code)
	}
	if !inner.IsValid() || inner.SpanID() != span.SpanContext().SpanID() {
		t.Error("handler context should carry the server span")
	}

	found := false
	for _, kv := range span.Attributes() {
		if kv.Key == attribute.Key("http.status_code") && kv.Value.AsInt64() == 503 {
			found = true
		}
	}
	if !found {
		t.Error("http.status_code attribute missing")
	}
}
