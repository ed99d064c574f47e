// Package callplan applies the scheduling rules to stored leads: it recomputes
// and persists next call dates and answers "who do I call today".
package callplan

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/callplanner/internal/domain"
	"github.com/ykvlv/callplanner/internal/metrics"
	"github.com/ykvlv/callplanner/internal/store"
)

// ScheduleResult is returned after a completed call.
type ScheduleResult struct {
	LeadID       int64
	LastCallDate time.Time
	NextCallDate time.Time
	LocalTime    string // next call in the lead's timezone
}

// FrequencyResult is returned after the call settings of a lead changed.
type FrequencyResult struct {
	LeadID       int64
	Settings     domain.CallSettings
	NextCallDate time.Time
	LocalTime    string
}

// Service coordinates the store and the scheduling rules.
type Service struct {
	repo    store.Repo
	now     func() time.Time
	metrics *metrics.Metrics
	log     *zap.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service. log and m may be nil.
func NewService(repo store.Repo, m *metrics.Metrics, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	s := &Service{repo: repo, now: time.Now, metrics: m, log: log}
	for _, o := range opts {
		o(s)
	}
	return s
}

// UpdateCallSchedule records a completed call on the lead and schedules the
// next one, projecting from the completion instant.
func (s *Service) UpdateCallSchedule(ctx context.Context, leadID int64, completedAt time.Time) (*ScheduleResult, error) {
	now := s.now().UTC()
	completedAt = completedAt.UTC()

	var res *ScheduleResult
	err := s.repo.WithinTx(ctx, func(tx store.LeadTx) error {
		lead, err := tx.GetLead(ctx, leadID)
		if err != nil {
			return err
		}
		settings := lead.Settings()
		next, err := domain.NextCallDate(settings, completedAt)
		if err != nil {
			return err
		}
		if err := tx.SetSchedule(ctx, leadID, next, &completedAt, now); err != nil {
			return err
		}
		s.metrics.NextCallComputed.WithLabelValues("call_completed", settings.Frequency.String()).Inc()

		local, err := domain.FormatLocal(next, settings.Timezone)
		if err != nil {
			return err
		}
		res = &ScheduleResult{
			LeadID:       leadID,
			LastCallDate: completedAt,
			NextCallDate: next,
			LocalTime:    local,
		}
		return nil
	})
	if err != nil {
		s.fail("update_call_schedule", leadID, err)
		return nil, err
	}

	s.log.Info("call completed",
		zap.Int64("leadID", leadID),
		zap.Time("completedAt", completedAt),
		zap.Time("nextCallDate", res.NextCallDate),
	)
	return res, nil
}

// UpdateCallFrequency stores new call settings on the lead and schedules the
// next call from now.
func (s *Service) UpdateCallFrequency(ctx context.Context, leadID int64, settings domain.CallSettings) (*FrequencyResult, error) {
	now := s.now().UTC()

	var res *FrequencyResult
	err := s.repo.WithinTx(ctx, func(tx store.LeadTx) error {
		if _, err := tx.GetLead(ctx, leadID); err != nil {
			return err
		}
		next, err := domain.NextCallDate(settings, now)
		if err != nil {
			return err
		}
		if err := tx.SetCallSettings(ctx, leadID, settings, next, now); err != nil {
			return err
		}
		s.metrics.NextCallComputed.WithLabelValues("settings_updated", settings.Frequency.String()).Inc()

		local, err := domain.FormatLocal(next, settings.Timezone)
		if err != nil {
			return err
		}
		res = &FrequencyResult{
			LeadID:       leadID,
			Settings:     settings,
			NextCallDate: next,
			LocalTime:    local,
		}
		return nil
	})
	if err != nil {
		s.fail("update_call_frequency", leadID, err)
		return nil, err
	}

	s.log.Info("call settings updated",
		zap.Int64("leadID", leadID),
		zap.Stringer("frequency", settings.Frequency),
		zap.String("timezone", settings.Timezone),
		zap.Time("nextCallDate", res.NextCallDate),
	)
	return res, nil
}

// TodaysCalls lists the calls due today in the requester's timezone.
func (s *Service) TodaysCalls(ctx context.Context, requesterTZ string) ([]domain.DueCall, error) {
	now := s.now()

	loc, err := domain.LoadLocation(requesterTZ)
	if err != nil {
		s.fail("todays_calls", 0, err)
		return nil, err
	}
	from, to := domain.DayBounds(now, loc)

	candidates, err := s.repo.ListScheduledBetween(ctx, from, to)
	if err != nil {
		s.fail("todays_calls", 0, err)
		return nil, err
	}

	calls, err := domain.DueCalls(now, requesterTZ, candidates)
	if err != nil {
		s.fail("todays_calls", 0, err)
		return nil, err
	}
	s.metrics.DueCallsListed.Observe(float64(len(calls)))
	s.log.Debug("todays calls listed",
		zap.String("timezone", requesterTZ),
		zap.Int("candidates", len(candidates)),
		zap.Int("due", len(calls)),
	)
	return calls, nil
}

func (s *Service) fail(op string, leadID int64, err error) {
	reason := "internal"
	switch {
	case errors.Is(err, store.ErrNotFound):
		reason = "not_found"
	case errors.Is(err, domain.ErrConfiguration):
		reason = "configuration"
	case errors.Is(err, domain.ErrInvalidTimezone):
		reason = "invalid_timezone"
	case errors.Is(err, domain.ErrInvalidFrequency):
		reason = "invalid_frequency"
	case errors.Is(err, domain.ErrSchedulingUnsatisfiable):
		reason = "unsatisfiable"
	case domain.IsValidation(err):
		reason = "validation"
	}
	s.metrics.ScheduleFailures.WithLabelValues(op, reason).Inc()

	fields := []zap.Field{zap.String("op", op), zap.String("reason", reason), zap.Error(err)}
	if leadID != 0 {
		fields = append(fields, zap.Int64("leadID", leadID))
	}
	if reason == "internal" {
		s.log.Error("schedule operation failed", fields...)
		return
	}
	s.log.Warn("schedule operation rejected", fields...)
}
