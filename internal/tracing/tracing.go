// Package tracing はOpenTelemetryによる分散トレーシングの初期化を提供する。
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// DefaultServiceName はトレースに記録するサービス名の既定値。
const DefaultServiceName = "removify"

// Config はトレーシング設定を保持する。
type Config struct {
	Endpoint    string // Jaegerコレクターのエンドポイント。空の場合は無効
	ServiceName string
	Environment string
}

// ShutdownFunc はトレースプロバイダーを停止し、未送信のスパンをフラッシュする。
type ShutdownFunc func(ctx context.Context) error

// Setup はトレースプロバイダーを初期化し、グローバルに登録する。
// Endpointが空の場合は何もせず、no-opのShutdownFuncを返す。
func Setup(cfg Config) (ShutdownFunc, error) {
	if cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}

	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Endpoint)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}

	tp := NewProvider(cfg, tracesdk.WithBatcher(exp))

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// NewProvider はサービス情報のリソースを付与したTracerProviderを生成する。
// テストではスパンレコーダーを渡して使用する。
func NewProvider(cfg Config, opts ...tracesdk.TracerProviderOption) *tracesdk.TracerProvider {
	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("deployment.environment", cfg.Environment),
	)
	opts = append(opts, tracesdk.WithResource(res))
	return tracesdk.NewTracerProvider(opts...)
}

// Tracer はパッケージ名を計装スコープとするトレーサーを返す。
// プロバイダー未設定の場合はグローバルのno-op実装になる。
func Tracer(scope string) trace.Tracer {
	return otel.Tracer(DefaultServiceName + "/" + scope)
}
