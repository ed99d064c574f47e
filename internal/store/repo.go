package store

import (
	"context"
	"errors"
	"time"

	"github.com/ykvlv/callplanner/internal/domain"
)

// ErrNotFound is returned when a lead does not exist.
var ErrNotFound = errors.New("lead not found")

// Repo defines storage operations for leads and their call plans.
type Repo interface {
	CreateLead(ctx context.Context, l *domain.Lead) error
	GetLead(ctx context.Context, id int64) (*domain.Lead, error)
	// ListScheduledBetween returns leads whose next call lies in [from, to],
	// ordered by next call ascending.
	ListScheduledBetween(ctx context.Context, from, to time.Time) ([]domain.Lead, error)
	// WithinTx runs fn in a single transaction. The transaction is committed
	// when fn returns nil and rolled back otherwise.
	WithinTx(ctx context.Context, fn func(tx LeadTx) error) error
	Close() error
}

// LeadTx is the unit of work for one lead's read-modify-write cycle.
type LeadTx interface {
	GetLead(ctx context.Context, id int64) (*domain.Lead, error)
	SetCallSettings(ctx context.Context, id int64, s domain.CallSettings, next, at time.Time) error
	SetSchedule(ctx context.Context, id int64, next time.Time, last *time.Time, at time.Time) error
}
