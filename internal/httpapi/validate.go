package httpapi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ykvlv/callplanner/internal/domain"
)

type todaysCallsRequest struct {
	Timezone string `query:"timezone" validate:"omitempty,iana_tz"`
}

type updateCallRequest struct {
	LeadID            int64  `json:"-" param:"leadId" validate:"gt=0"`
	CallCompletedTime string `json:"callCompletedTime" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

type callFrequencyRequest struct {
	LeadID             int64    `json:"-" param:"leadId" validate:"gt=0"`
	Frequency          string   `json:"frequency" validate:"required,oneof=DAILY WEEKLY BIWEEKLY MONTHLY"`
	Timezone           string   `json:"timezone" validate:"required,iana_tz"`
	BusinessHoursStart string   `json:"businessHoursStart" validate:"required,hhmm"`
	BusinessHoursEnd   string   `json:"businessHoursEnd" validate:"required,hhmm"`
	PreferredCallDays  []string `json:"preferredCallDays" validate:"required,min=1,max=7,unique,dive,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
}

// settings converts a validated request into domain call settings.
func (r callFrequencyRequest) settings() (domain.CallSettings, error) {
	freq, err := domain.ParseFrequency(r.Frequency)
	if err != nil {
		return domain.CallSettings{}, err
	}
	start, err := domain.ParseClock(r.BusinessHoursStart)
	if err != nil {
		return domain.CallSettings{}, err
	}
	end, err := domain.ParseClock(r.BusinessHoursEnd)
	if err != nil {
		return domain.CallSettings{}, err
	}
	days, err := domain.ParseWeekdaySet(r.PreferredCallDays)
	if err != nil {
		return domain.CallSettings{}, err
	}
	tz, err := domain.ValidateTZ(r.Timezone)
	if err != nil {
		return domain.CallSettings{}, err
	}
	return domain.CallSettings{
		Timezone:           tz,
		Frequency:          freq,
		BusinessHoursStart: &start,
		BusinessHoursEnd:   &end,
		PreferredDays:      days,
	}, nil
}

// requestValidator adapts go-playground/validator to echo.Validator.
type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i any) error {
	return rv.v.Struct(i)
}

func newValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their wire names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "param"} {
			if name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]; name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})

	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseClock(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("iana_tz", func(fl validator.FieldLevel) bool {
		_, err := domain.LoadLocation(fl.Field().String())
		return err == nil
	})
	v.RegisterStructValidation(businessHoursOrder, callFrequencyRequest{})

	return &requestValidator{v: v}
}

func businessHoursOrder(sl validator.StructLevel) {
	r := sl.Current().Interface().(callFrequencyRequest)
	start, err1 := domain.ParseClock(r.BusinessHoursStart)
	end, err2 := domain.ParseClock(r.BusinessHoursEnd)
	if err1 != nil || err2 != nil {
		return // reported by the field tags
	}
	if end.Minutes() <= start.Minutes() {
		sl.ReportError(r.BusinessHoursEnd, "businessHoursEnd", "BusinessHoursEnd", "after_start", "")
	}
}

// describeValidation renders validator errors as one human-readable line.
func describeValidation(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt":
		return field + " must be a positive integer"
	case "datetime":
		return field + ": invalid datetime format, use ISO 8601 (RFC 3339)"
	case "hhmm":
		return field + ": invalid time format, use HH:mm"
	case "iana_tz":
		return field + ": invalid timezone"
	case "after_start":
		return "business hours end must be after start time"
	case "unique":
		return field + ": duplicate days are not allowed"
	case "min":
		return field + ": at least one preferred call day is required"
	case "oneof":
		return fmt.Sprintf("%s: %q is not one of [%s]", field, fe.Value(), fe.Param())
	default:
		return fmt.Sprintf("%s: failed %q validation", field, fe.Tag())
	}
}
