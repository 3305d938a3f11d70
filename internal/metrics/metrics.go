// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// トランスポート層とビューコントローラーから利用する。
type MetricsCollector interface {
	RecordAPIRequest(method string, statusCode int)
	RecordAPILatency(duration time.Duration)
	RecordBreakerRejection()
	RecordOptimisticRollback(view string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	apiRequests       *prometheus.CounterVec
	apiLatency        prometheus.Histogram
	breakerRejections prometheus.Counter
	rollbacks         *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodiefinds_api_requests_total",
			Help: "リモートストアAPIへのリクエスト数（メソッド・ステータス別）",
		}, []string{"method", "status_code"}),
		apiLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodiefinds_api_latency_seconds",
			Help:    "リモートストアAPIのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		breakerRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodiefinds_breaker_rejections_total",
			Help: "サーキットブレーカーにより遮断されたリクエスト数",
		}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodiefinds_optimistic_rollbacks_total",
			Help: "楽観的更新のロールバック数（ビュー別）",
		}, []string{"view"}),
	}

	reg.MustRegister(
		c.apiRequests,
		c.apiLatency,
		c.breakerRejections,
		c.rollbacks,
	)

	return c
}

// RecordAPIRequest はAPIリクエストの完了を記録する。
func (c *Collector) RecordAPIRequest(method string, statusCode int) {
	c.apiRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
}

// RecordAPILatency はAPIリクエストのレイテンシを記録する。
func (c *Collector) RecordAPILatency(duration time.Duration) {
	c.apiLatency.Observe(duration.Seconds())
}

// RecordBreakerRejection はサーキットブレーカーによる遮断を記録する。
func (c *Collector) RecordBreakerRejection() {
	c.breakerRejections.Inc()
}

// RecordOptimisticRollback は楽観的更新のロールバックを記録する。
func (c *Collector) RecordOptimisticRollback(view string) {
	c.rollbacks.WithLabelValues(view).Inc()
}

// Handler はメトリクス公開用のHTTPハンドラーを返す。
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないコレクター。テストおよびメトリクス無効時に使用する。
type NopCollector struct{}

func (NopCollector) RecordAPIRequest(method string, statusCode int) {}
func (NopCollector) RecordAPILatency(duration time.Duration)       {}
func (NopCollector) RecordBreakerRejection()                       {}
func (NopCollector) RecordOptimisticRollback(view string)          {}

// compile-time interface checks
var _ MetricsCollector = (*Collector)(nil)
var _ MetricsCollector = NopCollector{}
