// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// 認証サービスとHTTPミドルウェアから利用する。
type Collector struct {
	registrations prometheus.Counter
	logins        prometheus.Counter
	authFailures  *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
	loginLatency  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kodflix_registrations_total",
			Help: "アカウント登録成功の合計数",
		}),
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kodflix_logins_total",
			Help: "ログイン成功の合計数",
		}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kodflix_auth_failures_total",
			Help: "認証失敗の理由別合計数",
		}, []string{"reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kodflix_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		loginLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kodflix_login_latency_seconds",
			Help:    "ログイン処理のレイテンシ（秒）。パスワード照合を含む。",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.authFailures,
		c.httpStatus,
		c.loginLatency,
	)

	return c
}

// RecordRegistration はアカウント登録成功を記録する。
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordLogin はログイン成功を記録する。
func (c *Collector) RecordLogin() {
	c.logins.Inc()
}

// RecordAuthFailure は認証失敗を理由別に記録する。
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordLoginLatency はログイン処理のレイテンシを記録する。
func (c *Collector) RecordLoginLatency(duration time.Duration) {
	c.loginLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
