// Package bookingflow drives the customer booking conversation: a
// serializable session advanced step by step from cart to confirmed
// appointment. Every transition validates its preconditions and leaves
// the session untouched on failure.
package bookingflow

import (
	"time"

	"github.com/Dragonxt022/Express-Services-sub000/internal/schedule"
)

// Step is the customer's position in the flow.
type Step string

const (
	StepLocation     Step = "location"
	StepDateTime     Step = "date_time"
	StepProfessional Step = "professional"
	StepReview       Step = "review"
	StepConfirmed    Step = "confirmed"
)

// Mode distinguishes future bookings from ASAP ones.
type Mode string

const (
	// ModeScheduled books a future slot the customer picks.
	ModeScheduled Mode = "scheduled"
	// ModeImmediate books the earliest slot available today. Forced
	// when any cart service is not schedulable.
	ModeImmediate Mode = "immediate"
)

// Session is the whole booking state as one serializable value.
// Transitions return updated copies; a stored session can be resumed
// on any instance.
type Session struct {
	ID         string   `json:"id"`
	BusinessID string   `json:"business_id"`
	CustomerID string   `json:"customer_id"`
	ServiceIDs []string `json:"service_ids"`

	Step Step `json:"step"`
	Mode Mode `json:"mode"`

	Location  schedule.LocationMode `json:"location,omitempty"`
	AddressID string                `json:"address_id,omitempty"`

	Start          time.Time `json:"start"`
	ProfessionalID string    `json:"professional_id,omitempty"`

	// Set on confirmation.
	OrderID       string `json:"order_id,omitempty"`
	AppointmentID string `json:"appointment_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfessionalOption is one selectable professional at the session's
// chosen time. Busy professionals render greyed out.
type ProfessionalOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Busy bool   `json:"busy"`
}
