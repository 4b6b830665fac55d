// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はサインインフローのメトリクスを収集する。
// auth.Metricsインターフェースを実装する。
type Collector struct {
	signInTotal    *prometheus.CounterVec
	bootstrapTotal prometheus.Counter
	signInDuration prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signInTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "homequest_signin_total",
			Help: "プロバイダー・結果別のサインイン試行数",
		}, []string{"provider", "result"}),
		bootstrapTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "homequest_bootstrap_total",
			Help: "新規ユーザーブートストラップの成功数",
		}),
		signInDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "homequest_signin_duration_seconds",
			Help:    "サインインフロー全体の所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.signInTotal,
		c.bootstrapTotal,
		c.signInDuration,
	)

	return c
}

// RecordSignIn はサインイン試行の結果を記録する。
func (c *Collector) RecordSignIn(provider string, result string) {
	c.signInTotal.WithLabelValues(provider, result).Inc()
}

// RecordBootstrap は新規ユーザーブートストラップの成功を記録する。
func (c *Collector) RecordBootstrap() {
	c.bootstrapTotal.Inc()
}

// ObserveSignInDuration はサインインフローの所要時間を記録する。
func (c *Collector) ObserveSignInDuration(d time.Duration) {
	c.signInDuration.Observe(d.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
