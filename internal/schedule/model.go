package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes customer-facing appointments from company-wide
// manual blocks.
type Kind string

const (
	KindService Kind = "service"
	KindBlock   Kind = "block"
)

// Status is the lifecycle state of a calendar entry.
type Status string

const (
	StatusPending    Status = "pending"
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether the status is final. Terminal entries no
// longer occupy their interval in conflict checks.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo enforces monotonic status transitions:
// pending/scheduled → in_progress → completed, and any non-terminal
// state → cancelled.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case StatusCancelled:
		return true
	case StatusInProgress:
		return s == StatusPending || s == StatusScheduled
	case StatusCompleted:
		return s == StatusInProgress || s == StatusScheduled || s == StatusPending
	case StatusScheduled:
		return s == StatusPending
	default:
		return false
	}
}

// LocationMode says where the appointment takes place.
type LocationMode string

const (
	LocationInPerson LocationMode = "in_person"
	LocationAtHome   LocationMode = "at_home"
)

// Appointment is one calendar entry: either a booked service
// (Kind=service) or a company-wide manual block (Kind=block, no
// professional, no customer).
type Appointment struct {
	ID         uuid.UUID `json:"id"`
	BusinessID string    `json:"business_id"`
	// ProfessionalID is empty only for blocks, which occupy the
	// interval for every professional.
	ProfessionalID string   `json:"professional_id,omitempty"`
	CustomerID     string   `json:"customer_id,omitempty"`
	ServiceIDs     []string `json:"service_ids,omitempty"`
	Start          time.Time `json:"start"`
	// DurationMinutes is computed once at creation from the cart
	// (durations + buffers) and never recomputed if the catalog
	// changes afterwards.
	DurationMinutes int          `json:"duration_minutes"`
	Location        LocationMode `json:"location,omitempty"`
	AddressID       string       `json:"address_id,omitempty"`
	Status          Status       `json:"status"`
	Kind            Kind         `json:"kind"`
	ManualEntry     bool         `json:"manual_entry"`
	Reason          string       `json:"reason,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// End is the exclusive end of the occupied interval [Start, End).
func (a Appointment) End() time.Time {
	return a.Start.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the appointment's interval intersects
// [start, start+window).
func (a Appointment) Overlaps(start time.Time, windowMinutes int) bool {
	end := start.Add(time.Duration(windowMinutes) * time.Minute)
	return a.Start.Before(end) && a.End().After(start)
}

// Active reports whether the entry still occupies its interval.
func (a Appointment) Active() bool {
	return !a.Status.Terminal()
}

// BlocksProfessional reports whether this entry makes the given
// professional busy: a block claims everyone, a service appointment
// claims only its assignee.
func (a Appointment) BlocksProfessional(professionalID string) bool {
	if a.Kind == KindBlock {
		return true
	}
	return a.ProfessionalID == professionalID
}

// AvailabilitySlot is one candidate start time on the business's slot
// grid. Derived on every query, never persisted or cached.
type AvailabilitySlot struct {
	Start     time.Time `json:"start"`
	Available bool      `json:"available"`
	// BusyProfessionals lists the eligible professionals with an
	// overlapping assignment at this slot. Rendering hint only; the
	// pass/fail decision is Available.
	BusyProfessionals []string `json:"busy_professionals,omitempty"`
	EligibleCount     int      `json:"eligible_count"`
}
