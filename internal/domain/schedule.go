package domain

import (
	"fmt"
	"time"
)

// maxWeekdaySearch bounds the preferred-day search so it always terminates.
const maxWeekdaySearch = 14

// validate checks settings in a fixed order and resolves the timezone.
func (s CallSettings) validate() (*time.Location, error) {
	if s.Frequency == FrequencyUnset {
		return nil, ErrFrequencyNotConfigured
	}
	if s.BusinessHoursStart == nil || s.BusinessHoursEnd == nil {
		return nil, ErrBusinessHoursNotConfigured
	}
	if s.PreferredDays.Empty() {
		return nil, ErrPreferredDaysNotConfigured
	}
	loc, err := LoadLocation(s.Timezone)
	if err != nil {
		return nil, err
	}
	// No overnight windows here, unlike DueCalls.
	if s.BusinessHoursEnd.Minutes() <= s.BusinessHoursStart.Minutes() {
		return nil, ErrBusinessHoursOrder
	}
	return loc, nil
}

// Validate reports whether the settings are complete enough to schedule.
func (s CallSettings) Validate() error {
	_, err := s.validate()
	return err
}

// NextCallDate computes the next call instant (UTC) for a lead configured with
// s, projecting forward from the instant from.
//
// The local day is first rolled into business hours (past the end hour it
// moves to the next day), then advanced by the cadence, then moved forward
// until it lands on a preferred weekday. Only the matching day is pinned to
// the business start time. DAILY skips its one-day step when the roll already
// moved to the next day.
func NextCallDate(s CallSettings, from time.Time) (time.Time, error) {
	loc, err := s.validate()
	if err != nil {
		return time.Time{}, err
	}
	start, end := *s.BusinessHoursStart, *s.BusinessHoursEnd

	local := from.In(loc)
	day := calendarDay(local)

	rolled := false
	if local.Hour() >= end.Hour {
		day = day.AddDate(0, 0, 1)
		rolled = true
	}

	switch s.Frequency {
	case FrequencyDaily:
		if !rolled {
			day = day.AddDate(0, 0, 1)
		}
	case FrequencyWeekly:
		day = day.AddDate(0, 0, 7)
	case FrequencyBiweekly:
		day = day.AddDate(0, 0, 14)
	case FrequencyMonthly:
		day = AddMonths(day, 1)
	default:
		return time.Time{}, fmt.Errorf("%w: %d", ErrInvalidFrequency, int(s.Frequency))
	}

	next, err := searchPreferredDay(day, start, s.PreferredDays, maxWeekdaySearch)
	if err != nil {
		return time.Time{}, err
	}
	return next.UTC(), nil
}

// calendarDay returns noon of t's local date. Noon never falls in a DST gap,
// so date arithmetic on it cannot drift onto a neighbouring wall clock.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, t.Location())
}

// searchPreferredDay returns at on the first of day, day+1, ... whose local
// weekday is in days, checking at most attempts days. The walk is over
// calendar dates; at is applied only to the matching one.
func searchPreferredDay(day time.Time, at Clock, days WeekdaySet, attempts int) (time.Time, error) {
	day = calendarDay(day)
	for i := 0; i < attempts; i++ {
		if days.Has(Weekday(day.Weekday())) {
			return at.On(day), nil
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}, fmt.Errorf("%w: no %s within %d days", ErrSchedulingUnsatisfiable, days, attempts)
}

// AddMonths adds n calendar months keeping the wall clock. The day of month is
// clamped to the last day of the target month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
