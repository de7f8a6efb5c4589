package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CalendarReader is the read side of the calendar store. Every
// availability computation re-reads through it; nothing in this
// package caches calendar state across queries.
type CalendarReader interface {
	// ListDay returns every entry (any status) for the business on the
	// given calendar date, ordered by start time.
	ListDay(ctx context.Context, businessID string, date time.Time) ([]Appointment, error)

	// Get returns one entry by id, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Appointment, error)
}

// CalendarStore is the single source of truth for appointments and
// blocks. It alone enforces the no-overlap invariant: CreateChecked and
// RescheduleChecked re-validate inside the store's atomic boundary and
// return *ConflictError when another mutation won the interval. The
// read-time availability check is advisory only.
type CalendarStore interface {
	CalendarReader

	// CreateChecked inserts the entry after re-validating that no
	// active conflicting entry overlaps its interval.
	CreateChecked(ctx context.Context, appt *Appointment) error

	// RescheduleChecked moves an existing entry to newStart after
	// re-validating, excluding the entry's own current interval from
	// the conflict check.
	RescheduleChecked(ctx context.Context, id uuid.UUID, newStart time.Time) (*Appointment, error)

	// UpdateStatus writes the new status. Transition legality is
	// validated by the caller; the store only persists.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error)

	// Delete removes the entry outright (board delete action).
	Delete(ctx context.Context, id uuid.UUID) error
}
