package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_events_total",
		Help: "Total number of reconciled server events by action",
	}, []string{"action"})
	UnknownEventsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_unknown_events_total",
		Help: "Total number of dropped events with an unknown action",
	})
	DuplicatesSuppressedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_duplicates_suppressed_total",
		Help: "Total number of duplicate messages suppressed by dedup",
	})
	ReferentMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_referent_misses_total",
		Help: "Total number of events referencing an unknown room or message",
	})
	WsReconnectsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_ws_reconnects_total",
		Help: "Total number of websocket reconnect attempts",
	})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests to the debug server",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(EventsTotal, UnknownEventsTotal, DuplicatesSuppressedTotal,
		ReferentMissesTotal, WsReconnectsTotal, HttpRequestsTotal, HttpRequestDuration)
}

// GinMiddleware 统计调试服务的基础请求指标，供 Prometheus 拉取。
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
