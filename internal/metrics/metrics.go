package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 抽奖结果标签
const (
	DrawOutcomeSuccess       = "success"
	DrawOutcomeInvalidInput  = "invalid_input"
	DrawOutcomeNoTicket      = "no_ticket"
	DrawOutcomeNoStock       = "no_stock"
	DrawOutcomeRaceLost      = "race_lost"
	DrawOutcomeStoreFailure  = "store_failure"
	DrawOutcomeClaimConflict = "claim_conflict"
)

var (
	// Registry 应用自有指标注册表
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lottery",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lottery",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	drawOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lottery",
			Subsystem: "draw",
			Name:      "outcomes_total",
			Help:      "Draw attempts partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	drawAwards = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lottery",
			Subsystem: "draw",
			Name:      "awards_total",
			Help:      "Prize codes awarded, by selected target rank and awarded rank.",
		},
		[]string{"target", "awarded"},
	)

	adminOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lottery",
			Subsystem: "admin",
			Name:      "operations_total",
			Help:      "Admin operations partitioned by action and result.",
		},
		[]string{"action", "result"},
	)

	reconcileFindings = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lottery",
			Subsystem: "reconcile",
			Name:      "findings",
			Help:      "Phones whose assigned codes exceed used tickets in the last scan.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		drawOutcomes,
		drawAwards,
		adminOperations,
		reconcileFindings,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler 暴露 Prometheus 指标
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware 记录 HTTP 请求指标
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := strings.ToUpper(c.Request.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordDrawOutcome 记录一次抽奖结果
func RecordDrawOutcome(outcome string) {
	drawOutcomes.WithLabelValues(outcome).Inc()
}

// RecordDrawAward 记录中奖等级（含降级情况）
func RecordDrawAward(target, awarded string) {
	drawAwards.WithLabelValues(target, awarded).Inc()
}

// RecordAdminOperation 记录后台操作结果
func RecordAdminOperation(action string, success bool) {
	result := "ok"
	if !success {
		result = "failed"
	}
	adminOperations.WithLabelValues(action, result).Inc()
}

// SetReconcileFindings 记录最近一次对账发现的异常数量
func SetReconcileFindings(count int) {
	reconcileFindings.Set(float64(count))
}
