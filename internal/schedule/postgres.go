package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgxpool.Pool the calendar store needs. pgxmock
// satisfies it in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresCalendar is the pgx-backed CalendarStore.
type PostgresCalendar struct {
	db DB
}

// NewPostgresCalendar creates a calendar store backed by a pgx pool.
func NewPostgresCalendar(pool *pgxpool.Pool) *PostgresCalendar {
	if pool == nil {
		panic("schedule: pgx pool required")
	}
	return &PostgresCalendar{db: pool}
}

// NewPostgresCalendarWithDB allows injecting mocks for tests.
func NewPostgresCalendarWithDB(db DB) *PostgresCalendar {
	return &PostgresCalendar{db: db}
}

const appointmentColumns = `id, business_id, professional_id, customer_id, service_ids,
	start_at, duration_minutes, location, address_id, status, kind, manual_entry, reason,
	created_at, updated_at`

const conflictQuery = `
	SELECT id FROM appointments
	WHERE business_id = $1
	  AND status NOT IN ('completed', 'cancelled')
	  AND start_at < $2
	  AND start_at + make_interval(mins => duration_minutes) > $3
	  AND (kind = 'block' OR professional_id = $4)
	  AND id <> $5
	LIMIT 1`

// CreateChecked inserts the entry after re-validating overlap inside a
// transaction holding a per-business-day advisory lock. This is the
// authoritative guard; callers may have seen the slot as free moments
// earlier and still lose here.
func (r *PostgresCalendar) CreateChecked(ctx context.Context, appt *Appointment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return &TransientError{Op: "schedule: begin create", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := acquireDayLock(ctx, tx, appt.BusinessID, appt.Start); err != nil {
		return err
	}

	// Blocks never bind a professional, so the per-professional overlap
	// invariant does not constrain them; only service appointments are
	// re-validated.
	if appt.Kind == KindService {
		if err := checkConflict(ctx, tx, appt.BusinessID, appt.ProfessionalID, appt.Start, appt.DurationMinutes, uuid.Nil); err != nil {
			return err
		}
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO appointments
			(id, business_id, professional_id, customer_id, service_ids, start_at,
			 duration_minutes, location, address_id, status, kind, manual_entry, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`,
		appt.ID, appt.BusinessID, appt.ProfessionalID, appt.CustomerID, appt.ServiceIDs,
		appt.Start, appt.DurationMinutes, string(appt.Location), appt.AddressID,
		string(appt.Status), string(appt.Kind), appt.ManualEntry, appt.Reason,
	)
	if err := row.Scan(&appt.CreatedAt, &appt.UpdatedAt); err != nil {
		return &TransientError{Op: "schedule: insert appointment", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &TransientError{Op: "schedule: commit create", Err: err}
	}
	return nil
}

// RescheduleChecked moves an entry to newStart, excluding its own
// current interval from the conflict check so a move onto its own time
// always succeeds.
func (r *PostgresCalendar) RescheduleChecked(ctx context.Context, id uuid.UUID, newStart time.Time) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, &TransientError{Op: "schedule: begin reschedule", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanAppointment(tx.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if current.Kind == KindBlock {
		return nil, &ValidationError{Field: "kind", Reason: "blocks cannot be rescheduled"}
	}
	if current.Status.Terminal() {
		return nil, &ValidationError{Field: "status", Reason: "terminal appointments cannot be rescheduled"}
	}

	if err := acquireDayLock(ctx, tx, current.BusinessID, newStart); err != nil {
		return nil, err
	}
	if err := checkConflict(ctx, tx, current.BusinessID, current.ProfessionalID, newStart, current.DurationMinutes, current.ID); err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE appointments SET start_at = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns, id, newStart)
	updated, err := scanAppointment(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &TransientError{Op: "schedule: commit reschedule", Err: err}
	}
	return updated, nil
}

// UpdateStatus persists a status value.
func (r *PostgresCalendar) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns, id, string(status))
	return scanAppointment(row)
}

// Get returns one entry by id.
func (r *PostgresCalendar) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

// ListDay returns every entry for the business on the given calendar
// date, ordered by start time.
func (r *PostgresCalendar) ListDay(ctx context.Context, businessID string, date time.Time) ([]Appointment, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE business_id = $1 AND start_at >= $2 AND start_at < $3
		ORDER BY start_at`, businessID, dayStart, dayEnd)
	if err != nil {
		return nil, &TransientError{Op: "schedule: list day", Err: err}
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		appt, err := scanAppointmentValues(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *appt)
	}
	if err := rows.Err(); err != nil {
		return nil, &TransientError{Op: "schedule: list day rows", Err: err}
	}
	return out, nil
}

// Delete removes the entry outright.
func (r *PostgresCalendar) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return &TransientError{Op: "schedule: delete appointment", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// acquireDayLock serializes writers per business-day via a transaction
// scoped advisory lock, released automatically on commit or rollback.
func acquireDayLock(ctx context.Context, tx pgx.Tx, businessID string, at time.Time) error {
	key := fmt.Sprintf("%s:%s", businessID, at.Format("2006-01-02"))
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return &TransientError{Op: "schedule: acquire day lock", Err: err}
	}
	return nil
}

func checkConflict(ctx context.Context, tx pgx.Tx, businessID, professionalID string, start time.Time, windowMinutes int, exclude uuid.UUID) error {
	end := start.Add(time.Duration(windowMinutes) * time.Minute)
	var conflictID uuid.UUID
	err := tx.QueryRow(ctx, conflictQuery, businessID, end, start, professionalID, exclude).Scan(&conflictID)
	switch {
	case err == nil:
		return &ConflictError{Reason: fmt.Sprintf("interval taken by appointment %s", conflictID)}
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	default:
		return &TransientError{Op: "schedule: conflict check", Err: err}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	appt, err := scanAppointmentValues(row)
	if err != nil {
		var te *TransientError
		if errors.As(err, &te) && errors.Is(te.Err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return appt, nil
}

func scanAppointmentValues(row rowScanner) (*Appointment, error) {
	var (
		appt     Appointment
		location string
		status   string
		kind     string
	)
	if err := row.Scan(
		&appt.ID,
		&appt.BusinessID,
		&appt.ProfessionalID,
		&appt.CustomerID,
		&appt.ServiceIDs,
		&appt.Start,
		&appt.DurationMinutes,
		&location,
		&appt.AddressID,
		&status,
		&kind,
		&appt.ManualEntry,
		&appt.Reason,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	); err != nil {
		return nil, &TransientError{Op: "schedule: scan appointment", Err: err}
	}
	appt.Location = LocationMode(location)
	appt.Status = Status(status)
	appt.Kind = Kind(kind)
	return &appt, nil
}
