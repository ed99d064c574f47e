package domain

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the parent of every "settings incomplete" error.
var ErrConfiguration = errors.New("call settings incomplete")

var (
	ErrFrequencyNotConfigured     = configError("frequency not configured")
	ErrBusinessHoursNotConfigured = configError("business hours not configured")
	ErrPreferredDaysNotConfigured = configError("preferred days not configured")
	ErrBusinessHoursOrder         = configError("business hours end must be after start")

	ErrInvalidTimezone         = errors.New("invalid timezone")
	ErrInvalidFrequency        = errors.New("invalid frequency")
	ErrInvalidWeekday          = errors.New("invalid weekday")
	ErrDuplicateWeekday        = errors.New("duplicate weekday")
	ErrInvalidClock            = errors.New("invalid time of day")
	ErrSchedulingUnsatisfiable = errors.New("could not find suitable call time")
)

func configError(msg string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, msg)
}

// IsValidation reports whether err is a deterministic input error that the
// caller should surface as a client failure rather than retry.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrConfiguration,
		ErrInvalidTimezone,
		ErrInvalidFrequency,
		ErrInvalidWeekday,
		ErrDuplicateWeekday,
		ErrInvalidClock,
		ErrSchedulingUnsatisfiable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
