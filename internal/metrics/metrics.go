// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// スイープジョブやサービス層から利用する。
type MetricsCollector interface {
	RecordSweepSuccess(job string)
	RecordSweepFailure(job string)
	RecordSweepSkipped(job string)
	RecordSweepDuration(job string, duration time.Duration)
	RecordInsightsCreated(count int)
	RecordInsightsDeduped(count int)
	RecordNotificationSent()
	RecordNotificationFailed()
	RecordPredictionsUpdated(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	sweepSuccess    *prometheus.CounterVec
	sweepFail       *prometheus.CounterVec
	sweepSkipped    *prometheus.CounterVec
	sweepDuration   *prometheus.HistogramVec
	insightsCreated prometheus.Counter
	insightsDeduped prometheus.Counter
	notifySent      prometheus.Counter
	notifyFailed    prometheus.Counter
	predictions     prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sweepSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careloop_sweep_success_total",
			Help: "スイープ成功のジョブ別合計数",
		}, []string{"job"}),
		sweepFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careloop_sweep_fail_total",
			Help: "スイープ失敗のジョブ別合計数",
		}, []string{"job"}),
		sweepSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careloop_sweep_skipped_total",
			Help: "ロック未取得によりスキップされたスイープのジョブ別合計数",
		}, []string{"job"}),
		sweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "careloop_sweep_duration_seconds",
			Help:    "スイープの実行時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		insightsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careloop_insights_created_total",
			Help: "作成されたインサイトの合計数",
		}),
		insightsDeduped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careloop_insights_deduped_total",
			Help: "重複排除キーによりスキップされたインサイトの合計数",
		}),
		notifySent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careloop_notifications_sent_total",
			Help: "送信に成功した通知の合計数",
		}),
		notifyFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careloop_notifications_failed_total",
			Help: "配信に失敗した通知の合計数",
		}),
		predictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careloop_predictions_updated_total",
			Help: "更新された健康リスク予測の合計数",
		}),
	}

	reg.MustRegister(
		c.sweepSuccess,
		c.sweepFail,
		c.sweepSkipped,
		c.sweepDuration,
		c.insightsCreated,
		c.insightsDeduped,
		c.notifySent,
		c.notifyFailed,
		c.predictions,
	)

	return c
}

// RecordSweepSuccess はスイープ成功を記録する。
func (c *Collector) RecordSweepSuccess(job string) {
	c.sweepSuccess.WithLabelValues(job).Inc()
}

// RecordSweepFailure はスイープ失敗を記録する。
func (c *Collector) RecordSweepFailure(job string) {
	c.sweepFail.WithLabelValues(job).Inc()
}

// RecordSweepSkipped はロック未取得によるスイープのスキップを記録する。
func (c *Collector) RecordSweepSkipped(job string) {
	c.sweepSkipped.WithLabelValues(job).Inc()
}

// RecordSweepDuration はスイープの実行時間を記録する。
func (c *Collector) RecordSweepDuration(job string, duration time.Duration) {
	c.sweepDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// RecordInsightsCreated は作成されたインサイト数を記録する。
func (c *Collector) RecordInsightsCreated(count int) {
	c.insightsCreated.Add(float64(count))
}

// RecordInsightsDeduped は重複排除されたインサイト数を記録する。
func (c *Collector) RecordInsightsDeduped(count int) {
	c.insightsDeduped.Add(float64(count))
}

// RecordNotificationSent は通知の送信成功を記録する。
func (c *Collector) RecordNotificationSent() {
	c.notifySent.Inc()
}

// RecordNotificationFailed は通知の配信失敗を記録する。
func (c *Collector) RecordNotificationFailed() {
	c.notifyFailed.Inc()
}

// RecordPredictionsUpdated は更新された予測数を記録する。
func (c *Collector) RecordPredictionsUpdated(count int) {
	c.predictions.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
