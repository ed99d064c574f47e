package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ykvlv/callplanner/internal/domain"
)

type dueCallView struct {
	LeadID             int64     `json:"leadId"`
	RestaurantName     string    `json:"restaurantName"`
	Timezone           string    `json:"timezone"`
	Frequency          string    `json:"frequency"`
	NextCallDate       time.Time `json:"nextCallDate"`
	LocalTime          string    `json:"localTime"`
	RequesterLocalTime string    `json:"requesterLocalTime"`
}

type scheduleView struct {
	LeadID       int64     `json:"leadId"`
	LastCallDate time.Time `json:"lastCallDate"`
	NextCallDate time.Time `json:"nextCallDate"`
	LocalTime    string    `json:"localTime"`
}

type frequencyView struct {
	LeadID             int64     `json:"leadId"`
	Frequency          string    `json:"frequency"`
	Timezone           string    `json:"timezone"`
	BusinessHoursStart string    `json:"businessHoursStart"`
	BusinessHoursEnd   string    `json:"businessHoursEnd"`
	PreferredCallDays  []string  `json:"preferredCallDays"`
	NextCallDate       time.Time `json:"nextCallDate"`
	LocalTime          string    `json:"localTime"`
}

// bindValid binds path, query and body into req and validates it.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}

// GET /api/v1/calls/today?timezone=Asia/Kolkata
func (s *Server) todaysCalls(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req todaysCallsRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	tz := req.Timezone
	if tz == "" {
		tz = s.defaultTZ
	}

	calls, err := s.planner.TodaysCalls(ctx, tz)
	if err != nil {
		return err
	}

	out := make([]dueCallView, 0, len(calls))
	for _, dc := range calls {
		out = append(out, dueCallView{
			LeadID:             dc.Lead.ID,
			RestaurantName:     dc.Lead.RestaurantName,
			Timezone:           dc.Lead.Timezone,
			Frequency:          dc.Lead.Frequency.String(),
			NextCallDate:       dc.Lead.NextCallDate.UTC(),
			LocalTime:          dc.LocalTime,
			RequesterLocalTime: dc.RequesterLocalTime,
		})
	}
	n := len(out)
	return s.ok(c, out, metadata{Timezone: tz, Count: &n})
}

// POST /api/v1/leads/:leadId/update-call
func (s *Server) updateCallSchedule(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req updateCallRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	completed, err := time.Parse(time.RFC3339, req.CallCompletedTime)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid callCompletedTime").SetInternal(err)
	}

	res, err := s.planner.UpdateCallSchedule(ctx, req.LeadID, completed)
	if err != nil {
		return err
	}
	return s.ok(c, scheduleView{
		LeadID:       res.LeadID,
		LastCallDate: res.LastCallDate.UTC(),
		NextCallDate: res.NextCallDate.UTC(),
		LocalTime:    res.LocalTime,
	}, metadata{})
}

// PUT /api/v1/leads/:leadId/call-frequency
func (s *Server) updateCallFrequency(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req callFrequencyRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	settings, err := req.settings()
	if err != nil {
		return err
	}

	res, err := s.planner.UpdateCallFrequency(ctx, req.LeadID, settings)
	if err != nil {
		return err
	}
	return s.ok(c, frequencyViewOf(res.LeadID, res.Settings, res.NextCallDate, res.LocalTime), metadata{})
}

func frequencyViewOf(id int64, st domain.CallSettings, next time.Time, local string) frequencyView {
	v := frequencyView{
		LeadID:            id,
		Frequency:         st.Frequency.String(),
		Timezone:          st.Timezone,
		PreferredCallDays: st.PreferredDays.Names(),
		NextCallDate:      next.UTC(),
		LocalTime:         local,
	}
	if st.BusinessHoursStart != nil {
		v.BusinessHoursStart = st.BusinessHoursStart.String()
	}
	if st.BusinessHoursEnd != nil {
		v.BusinessHoursEnd = st.BusinessHoursEnd.String()
	}
	return v
}
