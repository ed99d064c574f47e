package domain

import "time"

// DefaultTimezone is applied to leads created without a timezone.
const DefaultTimezone = "UTC"

// CallSettings is the calendar configuration the scheduler works from.
type CallSettings struct {
	Timezone           string
	Frequency          Frequency
	BusinessHoursStart *Clock
	BusinessHoursEnd   *Clock
	PreferredDays      WeekdaySet
}

// Lead is a restaurant lead together with its call plan.
type Lead struct {
	ID             int64
	RestaurantName string
	Timezone       string
	Frequency      Frequency
	BusinessStart  *Clock
	BusinessEnd    *Clock
	PreferredDays  WeekdaySet
	LastCallDate   *time.Time // UTC, nullable
	NextCallDate   *time.Time // UTC, nullable
	CreatedAt      time.Time  // UTC
	UpdatedAt      time.Time  // UTC
}

// Settings projects the scheduling configuration of the lead.
func (l *Lead) Settings() CallSettings {
	return CallSettings{
		Timezone:           l.Timezone,
		Frequency:          l.Frequency,
		BusinessHoursStart: l.BusinessStart,
		BusinessHoursEnd:   l.BusinessEnd,
		PreferredDays:      l.PreferredDays,
	}
}

// Apply copies settings onto the lead.
func (l *Lead) Apply(s CallSettings) {
	l.Timezone = s.Timezone
	l.Frequency = s.Frequency
	l.BusinessStart = s.BusinessHoursStart
	l.BusinessEnd = s.BusinessHoursEnd
	l.PreferredDays = s.PreferredDays
}

// DueCall is a lead scheduled for today with its call time rendered in the
// lead's timezone and in the requester's timezone.
type DueCall struct {
	Lead               Lead
	LocalTime          string
	RequesterLocalTime string
}
