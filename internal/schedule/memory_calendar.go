package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryCalendar is an in-memory CalendarStore for tests and local
// development. It enforces the same no-overlap invariant as the
// Postgres store, under one mutex as the atomic boundary.
type MemoryCalendar struct {
	mu      sync.Mutex
	entries map[uuid.UUID]Appointment
}

// NewMemoryCalendar creates an empty in-memory calendar.
func NewMemoryCalendar() *MemoryCalendar {
	return &MemoryCalendar{entries: make(map[uuid.UUID]Appointment)}
}

// CreateChecked inserts after re-validating overlap.
func (m *MemoryCalendar) CreateChecked(_ context.Context, appt *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if appt.Kind == KindService {
		if err := m.conflictLocked(appt.BusinessID, appt.ProfessionalID, appt.Start, appt.DurationMinutes, uuid.Nil); err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	m.entries[appt.ID] = *appt
	return nil
}

// RescheduleChecked moves an entry, excluding its own interval.
func (m *MemoryCalendar) RescheduleChecked(_ context.Context, id uuid.UUID, newStart time.Time) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if current.Kind == KindBlock {
		return nil, &ValidationError{Field: "kind", Reason: "blocks cannot be rescheduled"}
	}
	if current.Status.Terminal() {
		return nil, &ValidationError{Field: "status", Reason: "terminal appointments cannot be rescheduled"}
	}
	if err := m.conflictLocked(current.BusinessID, current.ProfessionalID, newStart, current.DurationMinutes, id); err != nil {
		return nil, err
	}

	current.Start = newStart
	current.UpdatedAt = time.Now().UTC()
	m.entries[id] = current
	return &current, nil
}

// UpdateStatus persists the status value.
func (m *MemoryCalendar) UpdateStatus(_ context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	current.Status = status
	current.UpdatedAt = time.Now().UTC()
	m.entries[id] = current
	return &current, nil
}

// Get returns one entry.
func (m *MemoryCalendar) Get(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &current, nil
}

// ListDay returns the business's entries on the date, ordered by start.
func (m *MemoryCalendar) ListDay(_ context.Context, businessID string, date time.Time) ([]Appointment, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Appointment
	for _, entry := range m.entries {
		if entry.BusinessID != businessID {
			continue
		}
		if entry.Start.Before(dayStart) || !entry.Start.Before(dayEnd) {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// Delete removes the entry.
func (m *MemoryCalendar) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *MemoryCalendar) conflictLocked(businessID, professionalID string, start time.Time, windowMinutes int, exclude uuid.UUID) error {
	for _, entry := range m.entries {
		if entry.BusinessID != businessID || entry.ID == exclude || !entry.Active() {
			continue
		}
		if !entry.Overlaps(start, windowMinutes) {
			continue
		}
		if entry.BlocksProfessional(professionalID) {
			return &ConflictError{Reason: fmt.Sprintf("interval taken by appointment %s", entry.ID)}
		}
	}
	return nil
}
