package domain

import (
	"sort"
	"time"
)

// DayBounds returns the first and the last instant of asOf's calendar day in loc.
func DayBounds(asOf time.Time, loc *time.Location) (time.Time, time.Time) {
	local := asOf.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}

// InBusinessHours reports whether t, read in loc, falls inside the window
// [start, end] of its own local date. An end earlier than start is taken to
// close on the following day.
func InBusinessHours(t time.Time, loc *time.Location, start, end Clock) bool {
	local := t.In(loc)
	open := start.On(local)
	closeAt := end.On(local)
	if closeAt.Before(open) {
		closeAt = closeAt.AddDate(0, 0, 1)
	}
	return !local.Before(open) && !local.After(closeAt)
}

// DueCalls selects the leads whose next call falls on asOf's day in the
// requester's timezone and inside the lead's own business hours, ordered by
// next call. Leads that cannot be evaluated (no next call, no business hours,
// unknown timezone) are left out.
func DueCalls(asOf time.Time, requesterTZ string, leads []Lead) ([]DueCall, error) {
	reqLoc, err := LoadLocation(requesterTZ)
	if err != nil {
		return nil, err
	}
	dayStart, dayEnd := DayBounds(asOf, reqLoc)

	out := make([]DueCall, 0, len(leads))
	for _, l := range leads {
		if l.NextCallDate == nil || l.BusinessStart == nil || l.BusinessEnd == nil {
			continue
		}
		next := *l.NextCallDate
		if next.Before(dayStart) || next.After(dayEnd) {
			continue
		}
		loc, err := LoadLocation(l.Timezone)
		if err != nil {
			continue
		}
		if !InBusinessHours(next, loc, *l.BusinessStart, *l.BusinessEnd) {
			continue
		}
		out = append(out, DueCall{
			Lead:               l,
			LocalTime:          next.In(loc).Format(LocalLayout),
			RequesterLocalTime: next.In(reqLoc).Format(LocalLayout),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Lead.NextCallDate.Before(*out[j].Lead.NextCallDate)
	})
	return out, nil
}
