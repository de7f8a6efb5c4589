// Package live carries the push channel that tells schedule viewers
// "something changed, re-fetch". Delivery is at-least-once with no
// ordering guarantee across appointment ids; event payloads identify
// what changed but are never authoritative calendar state.
package live

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates the typed events on the channel.
type EventType string

const (
	EventAppointmentCreated       EventType = "appointment_created"
	EventAppointmentStatusChanged EventType = "appointment_status_changed"
	EventOrderStatusChanged       EventType = "order_status_changed"
	EventReviewCreated            EventType = "review_created"
)

// Event is one change notification, scoped to a business and
// optionally a customer.
type Event struct {
	EventID       string    `json:"event_id"`
	Type          EventType `json:"type"`
	BusinessID    string    `json:"business_id"`
	CustomerID    string    `json:"customer_id,omitempty"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	OrderID       string    `json:"order_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewEvent stamps an event with id and timestamp.
func NewEvent(t EventType, businessID string) Event {
	return Event{
		EventID:    uuid.NewString(),
		Type:       t,
		BusinessID: businessID,
		OccurredAt: time.Now().UTC(),
	}
}
