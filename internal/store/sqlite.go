package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/ykvlv/callplanner/internal/domain"
)

// queryer is the subset shared by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single connection: SQLite is a single-writer engine and this also
	// serializes the per-lead transactions.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db, now: time.Now}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// CreateLead inserts a lead and sets its ID. An empty timezone becomes UTC and
// an empty preferred-day set becomes Monday..Friday.
func (r *SQLiteRepo) CreateLead(ctx context.Context, l *domain.Lead) error {
	if l == nil {
		return errors.New("nil lead")
	}
	if l.Timezone == "" {
		l.Timezone = domain.DefaultTimezone
	}
	if l.PreferredDays.Empty() {
		l.PreferredDays = domain.WorkWeek
	}
	now := r.now().UTC().Truncate(time.Second)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO leads (
			restaurant_name, timezone, call_frequency,
			business_hours_start, business_hours_end, preferred_call_days,
			last_call_date, next_call_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.RestaurantName, l.Timezone, frequencyToNull(l.Frequency),
		clockToNull(l.BusinessStart), clockToNull(l.BusinessEnd), l.PreferredDays.String(),
		toNullInt64(l.LastCallDate), toNullInt64(l.NextCallDate),
		l.CreatedAt.UTC().Unix(), l.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	l.ID = id
	return nil
}

// GetLead returns a lead by id or ErrNotFound.
func (r *SQLiteRepo) GetLead(ctx context.Context, id int64) (*domain.Lead, error) {
	return getLead(ctx, r.db, id)
}

// ListScheduledBetween returns leads whose next_call_date lies in [from, to].
// Results are ordered by next_call_date ascending.
func (r *SQLiteRepo) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]domain.Lead, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE next_call_date IS NOT NULL
		  AND next_call_date >= ?
		  AND next_call_date <= ?
		ORDER BY next_call_date ASC, id ASC`,
		from.UTC().Unix(), to.UTC().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("list scheduled leads: %w", err)
	}
	defer rows.Close()

	var res []domain.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// WithinTx runs fn inside one database transaction.
func (r *SQLiteRepo) WithinTx(ctx context.Context, fn func(tx LeadTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&sqliteTx{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type sqliteTx struct{ q queryer }

func (t *sqliteTx) GetLead(ctx context.Context, id int64) (*domain.Lead, error) {
	return getLead(ctx, t.q, id)
}

// SetCallSettings stores new call settings together with the recomputed next call.
func (t *sqliteTx) SetCallSettings(ctx context.Context, id int64, s domain.CallSettings, next, at time.Time) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE leads
		SET timezone = ?, call_frequency = ?,
		    business_hours_start = ?, business_hours_end = ?,
		    preferred_call_days = ?, next_call_date = ?, updated_at = ?
		WHERE id = ?`,
		s.Timezone, frequencyToNull(s.Frequency),
		clockToNull(s.BusinessHoursStart), clockToNull(s.BusinessHoursEnd),
		s.PreferredDays.String(), next.UTC().Unix(), at.UTC().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("update call settings: %w", err)
	}
	return expectOneRow(res)
}

// SetSchedule updates next_call_date and, when last is set, last_call_date.
func (t *sqliteTx) SetSchedule(ctx context.Context, id int64, next time.Time, last *time.Time, at time.Time) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE leads
		SET next_call_date = ?,
		    last_call_date = COALESCE(?, last_call_date),
		    updated_at = ?
		WHERE id = ?`,
		next.UTC().Unix(), toNullInt64(last), at.UTC().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return expectOneRow(res)
}

func getLead(ctx context.Context, q queryer, id int64) (*domain.Lead, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = ?`,
		id,
	)
	l, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
