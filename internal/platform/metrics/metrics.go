// Package metrics はロゴ検出とHTTPリクエストのPrometheusメトリクスを提供します。
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"logoscan/internal/feature/logodetection/usecase"
)

// Metrics はlogoscanのメトリクス一式です。
type Metrics struct {
	started      *prometheus.CounterVec
	files        *prometheus.CounterVec
	logosFound   prometheus.Counter
	averageScore prometheus.Histogram
	requests     *prometheus.CounterVec
	responseTime *prometheus.HistogramVec
}

// New はメトリクスを生成し、regに登録します。
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logoscan_detections_started_total",
			Help: "開始したロゴ検出の数",
		}, []string{"mode"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logoscan_files_total",
			Help: "処理結果ごとのファイル数",
		}, []string{"status"}),
		logosFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logoscan_logos_found_total",
			Help: "名称付きで検出されたロゴの数",
		}),
		averageScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "logoscan_average_score",
			Help:    "ファイルごとの平均スコア",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logoscan_http_requests_total",
			Help: "HTTPリクエスト数",
		}, []string{"method", "path", "status"}),
		responseTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "logoscan_http_response_time_seconds",
			Help:    "HTTPレスポンス時間（秒）",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "path"}),
	}
	reg.MustRegister(m.started, m.files, m.logosFound, m.averageScore, m.requests, m.responseTime)
	return m
}

// Reporter はバッチ処理の通知をメトリクスとして記録するReporterを返します。
func (m *Metrics) Reporter() usecase.Reporter {
	return reporter{m: m}
}

type reporter struct {
	m *Metrics
}

func (r reporter) Started(path string, mode usecase.Mode) {
	r.m.started.WithLabelValues(mode.String()).Inc()
}

func (r reporter) LogoFound(path, description string) {
	r.m.logosFound.Inc()
}

func (r reporter) AverageScore(path string, average float64) {
	r.m.files.WithLabelValues("ok").Inc()
	r.m.averageScore.Observe(average)
}

func (r reporter) NotFound(path string) {
	r.m.files.WithLabelValues("not_found").Inc()
}

func (r reporter) Failed(path string, err error) {
	r.m.files.WithLabelValues("error").Inc()
}

// GinMiddleware はHTTPリクエスト数とレスポンス時間を記録します。
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.responseTime.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
