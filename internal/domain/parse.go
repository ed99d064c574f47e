package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Frequency is the call cadence of a lead. The zero value means "not configured".
type Frequency int

const (
	FrequencyUnset Frequency = iota
	FrequencyDaily
	FrequencyWeekly
	FrequencyBiweekly
	FrequencyMonthly
)

var frequencyNames = map[Frequency]string{
	FrequencyDaily:    "DAILY",
	FrequencyWeekly:   "WEEKLY",
	FrequencyBiweekly: "BIWEEKLY",
	FrequencyMonthly:  "MONTHLY",
}

func (f Frequency) String() string {
	if s, ok := frequencyNames[f]; ok {
		return s
	}
	return ""
}

// Valid reports whether f is one of the defined cadences.
func (f Frequency) Valid() bool {
	_, ok := frequencyNames[f]
	return ok
}

// ParseFrequency parses "DAILY", "weekly", etc.
func ParseFrequency(s string) (Frequency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for f, name := range frequencyNames {
		if name == s {
			return f, nil
		}
	}
	return FrequencyUnset, fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
}

// Weekday is a day of the week named MONDAY..SUNDAY.
type Weekday time.Weekday

const (
	Sunday    = Weekday(time.Sunday)
	Monday    = Weekday(time.Monday)
	Tuesday   = Weekday(time.Tuesday)
	Wednesday = Weekday(time.Wednesday)
	Thursday  = Weekday(time.Thursday)
	Friday    = Weekday(time.Friday)
	Saturday  = Weekday(time.Saturday)
)

// AllWeekdays lists weekdays in calendar order starting on Monday.
var AllWeekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

func (d Weekday) String() string {
	if d < Sunday || d > Saturday {
		return ""
	}
	return strings.ToUpper(time.Weekday(d).String())
}

// ParseWeekday parses "MONDAY", "monday", ...
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, d := range AllWeekdays {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

// WeekdaySet is a set of weekdays stored as a bitmask.
type WeekdaySet uint8

// NewWeekdaySet builds a set from the given days.
func NewWeekdaySet(days ...Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

// WorkWeek is Monday through Friday.
var WorkWeek = NewWeekdaySet(Monday, Tuesday, Wednesday, Thursday, Friday)

func (s WeekdaySet) With(d Weekday) WeekdaySet {
	if d < Sunday || d > Saturday {
		return s
	}
	return s | 1<<uint(d)
}

func (s WeekdaySet) Has(d Weekday) bool {
	if d < Sunday || d > Saturday {
		return false
	}
	return s&(1<<uint(d)) != 0
}

func (s WeekdaySet) Empty() bool { return s == 0 }

// Days returns the members Monday first.
func (s WeekdaySet) Days() []Weekday {
	var out []Weekday
	for _, d := range AllWeekdays {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// Names returns the upper-case weekday names Monday first.
func (s WeekdaySet) Names() []string {
	days := s.Days()
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.String())
	}
	return out
}

func (s WeekdaySet) String() string {
	return strings.Join(s.Names(), ",")
}

// ParseWeekdaySet parses a list of weekday names. Empty lists, unknown names
// and duplicates are rejected.
func ParseWeekdaySet(names []string) (WeekdaySet, error) {
	if len(names) == 0 {
		return 0, ErrPreferredDaysNotConfigured
	}
	var s WeekdaySet
	for _, n := range names {
		d, err := ParseWeekday(n)
		if err != nil {
			return 0, err
		}
		if s.Has(d) {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateWeekday, d)
		}
		s = s.With(d)
	}
	return s, nil
}

// Clock is a local time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:mm" (a single-digit hour is accepted).
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[1]) != 2 || parts[0] == "" || len(parts[0]) > 2 {
		return Clock{}, fmt.Errorf("%w: expected HH:mm, got %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return Clock{}, fmt.Errorf("%w: invalid hour in %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("%w: invalid minute in %q", ErrInvalidClock, s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// MustClock is ParseClock for literals.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// On returns t's local date at this time of day.
func (c Clock) On(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour, c.Minute, 0, 0, t.Location())
}

// LoadLocation resolves an IANA timezone name. An empty name is not UTC here;
// defaults are applied by the caller. "Local" is rejected: it names the
// server's zone, not the lead's.
func LoadLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidTimezone)
	}
	if strings.EqualFold(tz, "Local") {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimezone, tz)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimezone, tz)
	}
	return loc, nil
}

// ValidateTZ checks that the tz is a valid IANA location.
func ValidateTZ(tz string) (string, error) {
	loc, err := LoadLocation(tz)
	if err != nil {
		return "", err
	}
	return loc.String(), nil
}

// LocalLayout is how scheduled instants are shown to people.
const LocalLayout = "2006-01-02 15:04:05"

// FormatLocal formats t in tz using LocalLayout.
func FormatLocal(t time.Time, tz string) (string, error) {
	loc, err := LoadLocation(tz)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format(LocalLayout), nil
}
