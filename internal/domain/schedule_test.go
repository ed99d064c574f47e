package domain

import (
	"errors"
	"testing"
	"time"
)

// helper: build a time in given tz and return its UTC
func mustLocalUTC(t *testing.T, tz string, y int, m time.Month, d, hh, mm int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return time.Date(y, m, d, hh, mm, 0, 0, loc).UTC()
}

func clockPtr(s string) *Clock {
	c := MustClock(s)
	return &c
}

func weeklyMonday() CallSettings {
	return CallSettings{
		Timezone:           "UTC",
		Frequency:          FrequencyWeekly,
		BusinessHoursStart: clockPtr("09:00"),
		BusinessHoursEnd:   clockPtr("17:00"),
		PreferredDays:      NewWeekdaySet(Monday),
	}
}

func mustNext(t *testing.T, s CallSettings, from time.Time) time.Time {
	t.Helper()
	next, err := NextCallDate(s, from)
	if err != nil {
		t.Fatalf("NextCallDate: %v", err)
	}
	return next
}

func TestNextCallDate_WeeklyWithinBusinessHours(t *testing.T) {
	from := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC) // Monday
	got := mustNext(t, weeklyMonday(), from)
	want := time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestNextCallDate_WeeklyAfterBusinessHoursRollsFirst(t *testing.T) {
	from := time.Date(2025, 1, 6, 18, 0, 0, 0, time.UTC)
	got := mustNext(t, weeklyMonday(), from)
	want := time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestNextCallDate_ResultIsUTC(t *testing.T) {
	s := weeklyMonday()
	s.Timezone = "Asia/Kolkata"
	got := mustNext(t, s, time.Date(2025, 1, 6, 4, 15, 26, 0, time.UTC))
	if got.Location() != time.UTC {
		t.Fatalf("want UTC location, got %s", got.Location())
	}
}

func TestNextCallDate_SnapsToStartInLeadTimezone(t *testing.T) {
	s := weeklyMonday()
	s.Timezone = "Asia/Kolkata"
	s.BusinessHoursStart = clockPtr("10:00")
	s.BusinessHoursEnd = clockPtr("18:00")
	// 09:45 IST, before business hours
	from := time.Date(2025, 1, 6, 4, 15, 26, 0, time.UTC)
	got := mustNext(t, s, from)
	want := mustLocalUTC(t, "Asia/Kolkata", 2025, time.January, 13, 10, 0)
	if !got.Equal(want) {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestNextCallDate_DailyRolloverDoesNotAddExtraDay(t *testing.T) {
	s := weeklyMonday()
	s.Frequency = FrequencyDaily
	s.PreferredDays = WorkWeek

	cases := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{"within hours", time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC), time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC)},
		{"before hours", time.Date(2025, 1, 6, 7, 0, 0, 0, time.UTC), time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC)},
		{"after hours", time.Date(2025, 1, 6, 18, 0, 0, 0, time.UTC), time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC)},
		{"at end hour", time.Date(2025, 1, 6, 17, 0, 0, 0, time.UTC), time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC)},
		{"friday evening", time.Date(2025, 1, 10, 19, 0, 0, 0, time.UTC), time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mustNext(t, s, tc.from)
			if !got.Equal(tc.want) {
				t.Fatalf("want %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNextCallDate_WeeklyAfterHoursAddsFullWeekAfterRoll(t *testing.T) {
	s := weeklyMonday()
	s.PreferredDays = WorkWeek
	// Monday 18:00 rolls to Tuesday, then +7 days.
	got := mustNext(t, s, time.Date(2025, 1, 6, 18, 0, 0, 0, time.UTC))
	want := time.Date(2025, 1, 14, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestNextCallDate_DailySaturdayOnly(t *testing.T) {
	s := weeklyMonday()
	s.Frequency = FrequencyDaily
	s.PreferredDays = NewWeekdaySet(Saturday)
	got := mustNext(t, s, time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC))
	want := time.Date(2025, 1, 11, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestNextCallDate_Biweekly(t *testing.T) {
	s := weeklyMonday()
	s.Frequency = FrequencyBiweekly
	got := mustNext(t, s, time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC))
	want := time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestNextCallDate_MonthlyClampsToMonthEnd(t *testing.T) {
	all := NewWeekdaySet(AllWeekdays...)
	cases := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{"common year", time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC), time.Date(2025, 2, 28, 9, 0, 0, 0, time.UTC)},
		{"leap year", time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC), time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC)},
		{"thirty day month", time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC), time.Date(2025, 4, 30, 9, 0, 0, 0, time.UTC)},
		{"year boundary", time.Date(2024, 12, 15, 10, 0, 0, 0, time.UTC), time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := weeklyMonday()
			s.Frequency = FrequencyMonthly
			s.PreferredDays = all
			got := mustNext(t, s, tc.from)
			if !got.Equal(tc.want) {
				t.Fatalf("want %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNextCallDate_KeepsWallClockAcrossDST(t *testing.T) {
	s := weeklyMonday()
	s.Timezone = "America/New_York"
	// Monday 10:00 EST; DST starts Sunday 2025-03-09.
	from := mustLocalUTC(t, s.Timezone, 2025, time.March, 3, 10, 0)
	got := mustNext(t, s, from)
	want := mustLocalUTC(t, s.Timezone, 2025, time.March, 10, 9, 0)
	if !got.Equal(want) {
		t.Fatalf("want %s, got %s", want, got)
	}
	if !want.Equal(time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected EDT offset, got %s", want)
	}
}

func TestNextCallDate_WeekdaySearchAcrossDST(t *testing.T) {
	s := weeklyMonday()
	s.Timezone = "Europe/Berlin"
	s.Frequency = FrequencyDaily
	s.PreferredDays = NewWeekdaySet(Monday)
	// Thursday 2025-03-27 12:00 CET; search walks over the 2025-03-30 switch.
	from := mustLocalUTC(t, s.Timezone, 2025, time.March, 27, 12, 0)
	got := mustNext(t, s, from)
	want := mustLocalUTC(t, s.Timezone, 2025, time.March, 31, 9, 0)
	if !got.Equal(want) {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestNextCallDate_StartInsideDSTGap(t *testing.T) {
	s := CallSettings{
		Timezone:           "America/New_York",
		Frequency:          FrequencyDaily,
		BusinessHoursStart: clockPtr("02:30"),
		BusinessHoursEnd:   clockPtr("10:00"),
		PreferredDays:      NewWeekdaySet(Monday),
	}
	// Saturday 05:00 EST; the daily step lands on Sunday 2025-03-09 where
	// 02:30 does not exist, the search must still pin Monday to 02:30.
	from := mustLocalUTC(t, s.Timezone, 2025, time.March, 8, 5, 0)
	got := mustNext(t, s, from)
	if want := time.Date(2025, 3, 10, 6, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("want %s, got %s", want, got)
	}

	loc, _ := time.LoadLocation(s.Timezone)
	if local := got.In(loc); local.Hour() != 2 || local.Minute() != 30 || local.Weekday() != time.Monday {
		t.Fatalf("want Monday 02:30 local, got %s", local)
	}
}

func TestNextCallDate_Properties(t *testing.T) {
	zones := []string{"UTC", "Asia/Kolkata", "America/Los_Angeles", "Australia/Sydney"}
	freqs := []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly}
	daySets := []WeekdaySet{
		NewWeekdaySet(Monday),
		NewWeekdaySet(Saturday, Sunday),
		WorkWeek,
		NewWeekdaySet(Wednesday, Friday),
	}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, tz := range zones {
		loc, _ := time.LoadLocation(tz)
		for _, f := range freqs {
			for _, days := range daySets {
				for h := 0; h < 24*9; h += 5 {
					s := CallSettings{
						Timezone:           tz,
						Frequency:          f,
						BusinessHoursStart: clockPtr("08:30"),
						BusinessHoursEnd:   clockPtr("16:00"),
						PreferredDays:      days,
					}
					from := base.Add(time.Duration(h) * time.Hour)

					got := mustNext(t, s, from)
					again := mustNext(t, s, from)
					if !got.Equal(again) {
						t.Fatalf("non-deterministic: %s vs %s", got, again)
					}

					local := got.In(loc)
					if !days.Has(Weekday(local.Weekday())) {
						t.Fatalf("%s %s from %s: %s is not a preferred day", tz, f, from, local.Weekday())
					}
					if local.Hour() != 8 || local.Minute() != 30 {
						t.Fatalf("%s %s from %s: want 08:30 local, got %s", tz, f, from, local.Format("15:04"))
					}
					if !got.After(from) {
						t.Fatalf("%s %s from %s: %s is not after from", tz, f, from, got)
					}
				}
			}
		}
	}
}

func TestNextCallDate_RoundTripStepsByCadence(t *testing.T) {
	cases := []struct {
		freq Frequency
		step func(time.Time) time.Time
	}{
		{FrequencyWeekly, func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }},
		{FrequencyBiweekly, func(t time.Time) time.Time { return t.AddDate(0, 0, 14) }},
	}
	for _, tc := range cases {
		s := weeklyMonday()
		s.Frequency = tc.freq
		cur := mustNext(t, s, time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC))
		for i := 0; i < 10; i++ {
			next := mustNext(t, s, cur)
			if want := tc.step(cur); !next.Equal(want) {
				t.Fatalf("%s step %d: want %s, got %s", tc.freq, i, want, next)
			}
			cur = next
		}
	}
}

func TestNextCallDate_RoundTripDaily(t *testing.T) {
	s := weeklyMonday()
	s.Frequency = FrequencyDaily
	s.PreferredDays = NewWeekdaySet(Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday)

	// Start-of-hours instants never roll, so every step is exactly one day.
	cur := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		next := mustNext(t, s, cur)
		if want := cur.AddDate(0, 0, 1); !next.Equal(want) {
			t.Fatalf("step %d: want %s, got %s", i, want, next)
		}
		cur = next
	}
}

func TestNextCallDate_RoundTripMonthlyFromMonthEnd(t *testing.T) {
	s := weeklyMonday()
	s.Frequency = FrequencyMonthly
	s.PreferredDays = NewWeekdaySet(Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday)

	// Jan 31 clamps to Feb 28 and the chain stays on the 28th afterwards.
	cur := time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC)
	want := []time.Time{
		time.Date(2025, 2, 28, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 28, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 28, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 28, 9, 0, 0, 0, time.UTC),
	}
	for i, w := range want {
		next := mustNext(t, s, cur)
		if !next.Equal(w) {
			t.Fatalf("step %d: want %s, got %s", i, w, next)
		}
		if step := AddMonths(cur, 1); !next.Equal(step) {
			t.Fatalf("step %d: want AddMonths step %s, got %s", i, step, next)
		}
		cur = next
	}
}

func TestNextCallDate_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CallSettings)
		want   error
	}{
		{"frequency unset", func(s *CallSettings) { s.Frequency = FrequencyUnset }, ErrFrequencyNotConfigured},
		{"start unset", func(s *CallSettings) { s.BusinessHoursStart = nil }, ErrBusinessHoursNotConfigured},
		{"end unset", func(s *CallSettings) { s.BusinessHoursEnd = nil }, ErrBusinessHoursNotConfigured},
		{"no preferred days", func(s *CallSettings) { s.PreferredDays = 0 }, ErrPreferredDaysNotConfigured},
		{"bad timezone", func(s *CallSettings) { s.Timezone = "Mars/Olympus" }, ErrInvalidTimezone},
		{"empty timezone", func(s *CallSettings) { s.Timezone = "" }, ErrInvalidTimezone},
		{"unknown frequency", func(s *CallSettings) { s.Frequency = Frequency(42) }, ErrInvalidFrequency},
		{"overnight window", func(s *CallSettings) {
			s.BusinessHoursStart = clockPtr("22:00")
			s.BusinessHoursEnd = clockPtr("02:00")
		}, ErrBusinessHoursOrder},
		{"empty window", func(s *CallSettings) {
			s.BusinessHoursEnd = clockPtr("09:00")
		}, ErrBusinessHoursOrder},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := weeklyMonday()
			tc.mutate(&s)
			got, err := NextCallDate(s, time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC))
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
			if !got.IsZero() {
				t.Fatalf("want zero time on error, got %s", got)
			}
			if !IsValidation(err) {
				t.Fatalf("want validation error, got %v", err)
			}
		})
	}
}

func TestNextCallDate_ConfigurationErrorsShareParent(t *testing.T) {
	s := weeklyMonday()
	s.Frequency = FrequencyUnset
	_, err := NextCallDate(s, time.Now())
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("want ErrConfiguration, got %v", err)
	}
}

func TestSearchPreferredDay_Bounded(t *testing.T) {
	monday := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	_, err := searchPreferredDay(monday, MustClock("09:00"), NewWeekdaySet(Sunday), 3)
	if !errors.Is(err, ErrSchedulingUnsatisfiable) {
		t.Fatalf("want ErrSchedulingUnsatisfiable, got %v", err)
	}

	got, err := searchPreferredDay(monday, MustClock("09:00"), NewWeekdaySet(Sunday), maxWeekdaySearch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2025, 1, 12, 9, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestAddMonths(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	cases := []struct {
		in   time.Time
		n    int
		want time.Time
	}{
		{time.Date(2025, 1, 31, 9, 0, 0, 0, loc), 1, time.Date(2025, 2, 28, 9, 0, 0, 0, loc)},
		{time.Date(2025, 5, 31, 9, 0, 0, 0, loc), 1, time.Date(2025, 6, 30, 9, 0, 0, 0, loc)},
		{time.Date(2025, 1, 15, 9, 0, 0, 0, loc), 2, time.Date(2025, 3, 15, 9, 0, 0, 0, loc)},
		{time.Date(2025, 11, 30, 9, 0, 0, 0, loc), 3, time.Date(2026, 2, 28, 9, 0, 0, 0, loc)},
	}
	for _, tc := range cases {
		if got := AddMonths(tc.in, tc.n); !got.Equal(tc.want) {
			t.Fatalf("AddMonths(%s, %d): want %s, got %s", tc.in, tc.n, tc.want, got)
		}
	}
}
