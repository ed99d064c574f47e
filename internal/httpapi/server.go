// Package httpapi exposes the call planner over HTTP/JSON.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ykvlv/callplanner/internal/callplan"
	"github.com/ykvlv/callplanner/internal/domain"
	"github.com/ykvlv/callplanner/internal/metrics"
)

// requestTimeout bounds a single API call including its transaction.
const requestTimeout = 10 * time.Second

// Planner is the subset of the call-planning service used by the handlers.
type Planner interface {
	UpdateCallSchedule(ctx context.Context, leadID int64, completedAt time.Time) (*callplan.ScheduleResult, error)
	UpdateCallFrequency(ctx context.Context, leadID int64, s domain.CallSettings) (*callplan.FrequencyResult, error)
	TodaysCalls(ctx context.Context, requesterTZ string) ([]domain.DueCall, error)
}

// Server holds the handlers and their dependencies.
type Server struct {
	planner   Planner
	log       *zap.Logger
	defaultTZ string
	now       func() time.Time
}

// New builds the echo instance with every route registered.
// defaultTZ is used by the today endpoint when no timezone is given.
func New(planner Planner, m *metrics.Metrics, log *zap.Logger, defaultTZ string) *echo.Echo {
	if log == nil {
		log = zap.NewNop()
	}
	if defaultTZ == "" {
		defaultTZ = domain.DefaultTimezone
	}
	s := &Server{planner: planner, log: log, defaultTZ: defaultTZ, now: time.Now}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newValidator()
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Debug("http request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	if m != nil {
		e.Use(m.Middleware())
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api/v1")
	api.GET("/calls/today", s.todaysCalls)
	api.POST("/leads/:leadId/update-call", s.updateCallSchedule)
	api.PUT("/leads/:leadId/call-frequency", s.updateCallFrequency)

	return e
}
