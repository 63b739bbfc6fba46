// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認証試行の種別。
const (
	AuthKindRegister = "register"
	AuthKindLogin    = "login"
	AuthKindGoogle   = "google"
)

// 認証試行・メール送信の結果。
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Recorder はメトリクス記録のインターフェース。
// サービス層とHTTPミドルウェアから利用する。
type Recorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
	RecordAuthAttempt(kind, outcome string)
	RecordReportCreated()
	RecordReportResolved()
	RecordResetMail(outcome string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	authAttempts   *prometheus.CounterVec
	reportsCreated prometheus.Counter
	reportsSolved  prometheus.Counter
	resetMails     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "floodwatch_http_requests_total",
			Help: "ルート・メソッド・ステータス別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "floodwatch_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "floodwatch_auth_attempts_total",
			Help: "種別・結果別の認証試行数",
		}, []string{"kind", "outcome"}),
		reportsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "floodwatch_reports_created_total",
			Help: "作成された被害報告の合計数",
		}),
		reportsSolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "floodwatch_reports_resolved_total",
			Help: "解決済みにされた被害報告の合計数",
		}),
		resetMails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "floodwatch_reset_mail_total",
			Help: "結果別のパスワード再設定メール送信数",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.authAttempts,
		c.reportsCreated,
		c.reportsSolved,
		c.resetMails,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエスト1件を記録する。
// routeにはchiのルートパターンを渡し、IDごとにラベルが増えないようにする。
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthAttempt は認証試行を記録する。
func (c *Collector) RecordAuthAttempt(kind, outcome string) {
	c.authAttempts.WithLabelValues(kind, outcome).Inc()
}

// RecordReportCreated は報告作成を記録する。
func (c *Collector) RecordReportCreated() {
	c.reportsCreated.Inc()
}

// RecordReportResolved は報告の解決を記録する。
func (c *Collector) RecordReportResolved() {
	c.reportsSolved.Inc()
}

// RecordResetMail はパスワード再設定メールの送信結果を記録する。
func (c *Collector) RecordResetMail(outcome string) {
	c.resetMails.WithLabelValues(outcome).Inc()
}

// NopRecorder は何も記録しないRecorder。
type NopRecorder struct{}

func (NopRecorder) RecordHTTPRequest(string, string, int, time.Duration) {}
func (NopRecorder) RecordAuthAttempt(string, string)                    {}
func (NopRecorder) RecordReportCreated()                                {}
func (NopRecorder) RecordReportResolved()                               {}
func (NopRecorder) RecordResetMail(string)                              {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = NopRecorder{}
)
