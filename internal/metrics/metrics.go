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
// ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordExtraction(success bool)
	RecordImport(calendars, dates int)
	RecordSMS(success bool)
	RecordVerification(outcome string)
	RecordHTTPStatus(statusCode int)
	RecordSyncRun(success bool, duration time.Duration)
}

// 検証結果のラベル値
const (
	VerificationVerified        = "verified"
	VerificationInvalidCode     = "invalid_code"
	VerificationExpired         = "expired"
	VerificationNoCode          = "no_code"
	VerificationAlreadyVerified = "already_verified"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	extractions   *prometheus.CounterVec
	importedCals  prometheus.Counter
	importedDates prometheus.Counter
	sms           *prometheus.CounterVec
	verifications *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
	syncRuns      *prometheus.CounterVec
	syncDuration  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notibac_extractions_total",
			Help: "カレンダーPDF抽出の結果別件数",
		}, []string{"result"}),
		importedCals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notibac_imported_calendars_total",
			Help: "インポートされたカレンダーの合計数",
		}),
		importedDates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notibac_imported_dates_total",
			Help: "インポートされた収集日の合計数",
		}),
		sms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notibac_sms_total",
			Help: "SMS送信の結果別件数",
		}, []string{"result"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notibac_phone_verifications_total",
			Help: "電話番号検証の結果別件数",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notibac_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notibac_calendar_sync_runs_total",
			Help: "カレンダー同期ジョブの結果別実行数",
		}, []string{"result"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notibac_calendar_sync_duration_seconds",
			Help:    "カレンダー同期ジョブの所要時間（秒）",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}

	reg.MustRegister(
		c.extractions,
		c.importedCals,
		c.importedDates,
		c.sms,
		c.verifications,
		c.httpStatus,
		c.syncRuns,
		c.syncDuration,
	)

	return c
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordExtraction はPDF抽出の結果を記録する。
func (c *Collector) RecordExtraction(success bool) {
	c.extractions.WithLabelValues(resultLabel(success)).Inc()
}

// RecordImport はインポートされたカレンダー数と収集日数を記録する。
func (c *Collector) RecordImport(calendars, dates int) {
	c.importedCals.Add(float64(calendars))
	c.importedDates.Add(float64(dates))
}

// RecordSMS はSMS送信の結果を記録する。
func (c *Collector) RecordSMS(success bool) {
	c.sms.WithLabelValues(resultLabel(success)).Inc()
}

// RecordVerification は電話番号検証の結果を記録する。
func (c *Collector) RecordVerification(outcome string) {
	c.verifications.WithLabelValues(outcome).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordSyncRun はカレンダー同期ジョブの結果と所要時間を記録する。
func (c *Collector) RecordSyncRun(success bool, duration time.Duration) {
	c.syncRuns.WithLabelValues(resultLabel(success)).Inc()
	c.syncDuration.Observe(duration.Seconds())
}

// Nop は何も記録しないMetricsCollector。テストやCLI実行時に使用する。
type Nop struct{}

func (Nop) RecordExtraction(bool)             {}
func (Nop) RecordImport(int, int)             {}
func (Nop) RecordSMS(bool)                    {}
func (Nop) RecordVerification(string)         {}
func (Nop) RecordHTTPStatus(int)              {}
func (Nop) RecordSyncRun(bool, time.Duration) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
