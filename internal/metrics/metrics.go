package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the call-planning Prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Scheduling metrics
	NextCallComputed *prometheus.CounterVec
	ScheduleFailures *prometheus.CounterVec
	DueCallsListed   prometheus.Histogram

	// Chat metrics
	TelegramUpdates *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, so several instances can
// coexist (tests, multiple servers in one process).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "callplanner",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "callplanner",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		NextCallComputed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "callplanner",
				Name:      "next_call_computed_total",
				Help:      "Next call dates computed, by trigger and frequency.",
			},
			[]string{"trigger", "frequency"},
		),
		ScheduleFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "callplanner",
				Name:      "schedule_failures_total",
				Help:      "Failed schedule operations, by operation and reason.",
			},
			[]string{"operation", "reason"},
		),
		DueCallsListed: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "callplanner",
				Name:      "due_calls_listed",
				Help:      "Number of calls returned by a today's-calls query.",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
			},
		),
		TelegramUpdates: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "callplanner",
				Name:      "telegram_updates_total",
				Help:      "Telegram updates handled, by command.",
			},
			[]string{"command"},
		),
	}
}

// Middleware records request count and latency per route pattern.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Let the error handler write the response so the status is final.
			if err := next(c); err != nil {
				c.Error(err)
			}

			path := c.Path() // route pattern, e.g. /api/v1/leads/:leadId/update-call
			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method

			m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
