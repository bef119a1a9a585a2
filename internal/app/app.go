package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/removify/internal/auth"
	"github.com/hitoshi/removify/internal/config"
	"github.com/hitoshi/removify/internal/dashboard"
	"github.com/hitoshi/removify/internal/database"
	"github.com/hitoshi/removify/internal/handler"
	"github.com/hitoshi/removify/internal/listing"
	"github.com/hitoshi/removify/internal/logger"
	"github.com/hitoshi/removify/internal/metrics"
	"github.com/hitoshi/removify/internal/middleware"
	"github.com/hitoshi/removify/internal/notify"
	"github.com/hitoshi/removify/internal/repository"
	"github.com/hitoshi/removify/internal/security"
	"github.com/hitoshi/removify/internal/tracing"
	"github.com/hitoshi/removify/internal/user"
)

// slackHTTPTimeout はSlackのOAuthコード交換のタイムアウト。
const slackHTTPTimeout = 10 * time.Second

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、.envと環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, logger.ParseLevel(os.Getenv("LOG_LEVEL")))

	// 2. .envがあれば読み込む（既存の環境変数が優先）
	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("failed to load .env", slog.String("error", err.Error()))
	}

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd, err := ParseCommand(args)
	if err != nil {
		return err
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
		slog.String("environment", cfg.Environment),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// ストアに接続し、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx := context.Background()

	// 1. ストア接続
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			slog.Error("failed to close store", slog.String("error", err.Error()))
		}
	}()

	// 2. 年間売上のキャッシュ（任意）
	accounts := st.accounts
	if closeCache := wrapRevenueCache(ctx, cfg, &accounts); closeCache != nil {
		defer closeCache()
	}

	// 3. トレーシング（任意）
	shutdownTracing, err := tracing.Setup(tracing.Config{
		Endpoint:    cfg.TracingEndpoint,
		ServiceName: tracing.DefaultServiceName,
		Environment: cfg.Environment,
	})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Error("failed to flush traces", slog.String("error", err.Error()))
		}
	}()

	// 4. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 5. 通知ゲートウェイ
	gateway := notify.New(cfg.SlackBotToken, cfg.SlackChannelID, slog.Default())
	if !cfg.SlackNotificationsEnabled() {
		slog.Warn("slack notifications disabled: SLACK_BOT_TOKEN or SLACK_CHANNEL_ID is not set")
	}

	// 6. ドメインサービスの初期化
	dashboardService := dashboard.NewService(st.listings, accounts, collector)
	listingService := listing.NewService(
		st.listings, gateway,
		security.NewExcerptSanitizer(security.DefaultExcerptLength),
		collector, slog.Default(),
	)
	userService := user.NewService(accounts)

	exchanger := auth.NewSlackCodeExchanger(
		cfg.SlackClientID, cfg.SlackClientSecret,
		&http.Client{Timeout: slackHTTPTimeout},
	)
	slackLinkService := auth.NewService(auth.ServiceConfig{
		ClientID:     cfg.SlackClientID,
		ClientSecret: cfg.SlackClientSecret,
		StateSecret:  cfg.SlackStateSecret,
		BaseURL:      cfg.BaseURL,
	}, exchanger, accounts, st.installations)
	if !slackLinkService.Enabled() {
		slog.Warn("slack linking disabled: SLACK_CLIENT_ID, SLACK_CLIENT_SECRET or SLACK_STATE_SECRET is not set")
	}

	// 7. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitTakedown),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Metrics:           collector,
		MetricsGatherer:   reg,

		SessionConfig: handler.SessionHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		DashboardService: handler.NewDashboardServiceAdapter(dashboardService),
		UserService:      handler.NewUserServiceAdapter(userService),
		ListingService:   listingService,

		SlackLinkService: slackLinkService,
		SlackGateway:     gateway,
		SlackConfig:      handler.SlackHandlerConfig{BaseURL: cfg.BaseURL},

		Store: st.pinger,
	})

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はストアのスキーマを準備する。
// PostgreSQLは未適用のマイグレーションを順番に適用し、MongoDBはインデックスを作成する。
func runMigrate(cfg *config.Config) error {
	backend, err := database.DetectBackend(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("running database migrations",
		slog.String("backend", string(backend)),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch backend {
	case database.BackendPostgres:
		version, err := database.RunMigrations(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		slog.Info("schema version", slog.Uint64("version", uint64(version)))
	case database.BackendMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client, db, err := database.ConnectMongo(ctx, cfg.DatabaseURL, cfg.DatabaseName)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		defer client.Disconnect(context.Background())

		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// 解釈できないURLは全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
