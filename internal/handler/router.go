package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/removify/internal/metrics"
	"github.com/hitoshi/removify/internal/middleware"
	"github.com/hitoshi/removify/internal/notify"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Metrics           metrics.MetricsCollector
	MetricsGatherer   prometheus.Gatherer

	// セッション
	SessionConfig SessionHandlerConfig

	// ダッシュボード・プロフィール
	DashboardService DashboardServiceInterface
	UserService      UserServiceInterface

	// ステータス更新
	ListingService ListingServiceInterface

	// Slack
	SlackLinkService SlackLinkServiceInterface
	SlackGateway     notify.Gateway
	SlackConfig      SlackHandlerConfig

	// ヘルスチェック
	Store Pinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Identity → Tracing → Logging → RateLimit(General)
//
// 書き込み系のルートにはRequireIdentityとRateLimit(Takedown)を追加する。
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.SessionConfig.CookieSecure))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewIdentityMiddleware())
	r.Use(middleware.NewTracingMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))

	sessionHandler := NewSessionHandler(deps.SessionConfig)
	dashboardHandler := NewDashboardHandler(deps.DashboardService)
	userHandler := NewUserHandler(deps.UserService)
	listingHandler := NewListingHandler(deps.ListingService)
	slackHandler := NewSlackHandler(deps.SlackLinkService, deps.SlackGateway, deps.Metrics, deps.SlackConfig)
	healthHandler := NewHealthHandler(deps.Store)

	// --- 運用エンドポイント ---
	r.Get("/health", healthHandler.Get)
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// セッション
		r.Post("/session", sessionHandler.Create)
		r.Delete("/session", sessionHandler.Delete)

		// 読み取り
		r.Get("/dashboard", dashboardHandler.Get)
		r.Get("/user", userHandler.Get)

		// Slack連携（コールバックは識別Cookieの欠落をリダイレクトで通知する）
		r.Get("/slack/oauth", slackHandler.OAuth)
		r.Get("/slack/oauth/callback", slackHandler.Callback)

		// --- 識別Cookieが必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireIdentity)
			r.Use(deps.RateLimiter.TakedownMiddleware())

			r.Post("/listings/update-status", listingHandler.UpdateStatus)
			r.Post("/listings/bulk-update-status", listingHandler.BulkUpdateStatus)
			r.Post("/slack/send", slackHandler.Send)
		})
	})

	return r
}
