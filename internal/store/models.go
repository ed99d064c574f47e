package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ykvlv/callplanner/internal/domain"
)

func toNullInt64(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().Unix(), Valid: true}
}

func fromNullInt64(ns sql.NullInt64) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := time.Unix(ns.Int64, 0).UTC()
	return &t
}

func clockToNull(c *domain.Clock) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: c.String(), Valid: true}
}

func clockFromNull(ns sql.NullString) (*domain.Clock, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	c, err := domain.ParseClock(ns.String)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func frequencyToNull(f domain.Frequency) sql.NullString {
	if !f.Valid() {
		return sql.NullString{}
	}
	return sql.NullString{String: f.String(), Valid: true}
}

func frequencyFromNull(ns sql.NullString) (domain.Frequency, error) {
	if !ns.Valid || ns.String == "" {
		return domain.FrequencyUnset, nil
	}
	return domain.ParseFrequency(ns.String)
}

func daysFromText(s string) (domain.WeekdaySet, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return domain.ParseWeekdaySet(strings.Split(s, ","))
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const leadColumns = `id, restaurant_name, timezone, call_frequency,
	business_hours_start, business_hours_end, preferred_call_days,
	last_call_date, next_call_date, created_at, updated_at`

func scanLead(s rowScanner) (*domain.Lead, error) {
	var (
		id        int64
		name      string
		tz        string
		freqNS    sql.NullString
		startNS   sql.NullString
		endNS     sql.NullString
		days      string
		lastNS    sql.NullInt64
		nextNS    sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	if err := s.Scan(
		&id, &name, &tz, &freqNS,
		&startNS, &endNS, &days,
		&lastNS, &nextNS, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	freq, err := frequencyFromNull(freqNS)
	if err != nil {
		return nil, fmt.Errorf("lead %d: %w", id, err)
	}
	start, err := clockFromNull(startNS)
	if err != nil {
		return nil, fmt.Errorf("lead %d: business_hours_start: %w", id, err)
	}
	end, err := clockFromNull(endNS)
	if err != nil {
		return nil, fmt.Errorf("lead %d: business_hours_end: %w", id, err)
	}
	set, err := daysFromText(days)
	if err != nil {
		return nil, fmt.Errorf("lead %d: preferred_call_days: %w", id, err)
	}

	return &domain.Lead{
		ID:             id,
		RestaurantName: name,
		Timezone:       tz,
		Frequency:      freq,
		BusinessStart:  start,
		BusinessEnd:    end,
		PreferredDays:  set,
		LastCallDate:   fromNullInt64(lastNS),
		NextCallDate:   fromNullInt64(nextNS),
		CreatedAt:      time.Unix(createdAt, 0).UTC(),
		UpdatedAt:      time.Unix(updatedAt, 0).UTC(),
	}, nil
}
