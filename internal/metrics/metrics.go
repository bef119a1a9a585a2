// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 通知の種類
const (
	NotificationTakedown     = "takedown"
	NotificationBulkTakedown = "bulk_takedown"
	NotificationRelay        = "relay"
)

// ステータス更新のモード
const (
	ModeSingle = "single"
	ModeBulk   = "bulk"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordStatusTransition(mode, status string)
	RecordListingsUpdated(count int64)
	RecordNotification(kind string, err error)
	RecordDashboardCompute(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus       *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	listingsUpdated  prometheus.Counter
	notifications    *prometheus.CounterVec
	dashboardCompute prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "removify_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "removify_status_transitions_total",
			Help: "ステータス更新リクエストの合計数（モード・遷移先別）",
		}, []string{"mode", "status"}),
		listingsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "removify_listings_updated_total",
			Help: "実際にステータスが変更されたリスティングの合計数",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "removify_notifications_total",
			Help: "通知送信の合計数（種類・結果別）",
		}, []string{"kind", "result"}),
		dashboardCompute: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "removify_dashboard_compute_seconds",
			Help:    "ダッシュボード集計の所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.transitions,
		c.listingsUpdated,
		c.notifications,
		c.dashboardCompute,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordStatusTransition はステータス更新リクエストを記録する。
func (c *Collector) RecordStatusTransition(mode, status string) {
	c.transitions.WithLabelValues(mode, status).Inc()
}

// RecordListingsUpdated は変更されたリスティング数を加算する。
func (c *Collector) RecordListingsUpdated(count int64) {
	if count > 0 {
		c.listingsUpdated.Add(float64(count))
	}
}

// RecordNotification は通知の送信結果を記録する。
func (c *Collector) RecordNotification(kind string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.notifications.WithLabelValues(kind, result).Inc()
}

// RecordDashboardCompute はダッシュボード集計の所要時間を記録する。
func (c *Collector) RecordDashboardCompute(duration time.Duration) {
	c.dashboardCompute.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使用する。
type Nop struct{}

func (Nop) RecordHTTPStatus(int) {}
func (Nop) RecordStatusTransition(string, string) {}
func (Nop) RecordListingsUpdated(int64) {}
func (Nop) RecordNotification(string, error) {}
func (Nop) RecordDashboardCompute(time.Duration) {}

// compile-time interface check
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
