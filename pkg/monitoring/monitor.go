package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	TasksCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingua_tasks_created_total",
			Help: "Number of newly created tasks",
		},
		[]string{"type"},
	)

	TasksCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingua_tasks_completed_total",
			Help: "Number of completed tasks",
		},
		[]string{"type"},
	)

	LevelsUnlocked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lingua_levels_unlocked_total",
			Help: "Number of levels unlocked by finishing a conversation task",
		},
	)

	SubmissionScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lingua_submission_score",
			Help:    "Total score of graded submissions",
			Buckets: prometheus.LinearBuckets(0, 25, 9),
		},
	)

	OpenTasks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lingua_open_tasks",
			Help: "Number of open tasks by type",
		},
		[]string{"type"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			TasksCreated,
			TasksCompleted,
			LevelsUnlocked,
			SubmissionScore,
			OpenTasks,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
