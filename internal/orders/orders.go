// Package orders submits finalized bookings to the orders/checkout
// service. Checkout is where a customer's session becomes a real
// appointment; a conflict at this step means another booking claimed
// the slot after the customer's availability read.
package orders

import (
	"context"
	"time"

	"github.com/Dragonxt022/Express-Services-sub000/internal/schedule"
)

// SubmitRequest is a finalized booking, ready for checkout.
type SubmitRequest struct {
	BusinessID     string                `json:"business_id"`
	CustomerID     string                `json:"customer_id"`
	ProfessionalID string                `json:"professional_id"`
	ServiceIDs     []string              `json:"service_ids"`
	Start          time.Time             `json:"start"`
	Location       schedule.LocationMode `json:"location"`
	AddressID      string                `json:"address_id,omitempty"`
}

// Receipt identifies what checkout created.
type Receipt struct {
	OrderID       string `json:"order_id"`
	AppointmentID string `json:"appointment_id"`
}

// Checkout turns a finalized booking into an order plus appointment.
// Implementations return *schedule.ConflictError when the slot was
// taken between the customer's availability read and submission.
type Checkout interface {
	SubmitBooking(ctx context.Context, req SubmitRequest) (*Receipt, error)
}
