package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/Dragonxt022/Express-Services-sub000/internal/schedule"
)

// SchedulerCheckout is the in-process Checkout used when the orders
// service is not configured: it writes straight through the scheduler
// and stamps a local order id. Single-binary deploys and tests.
type SchedulerCheckout struct {
	scheduler *schedule.Scheduler
}

// NewSchedulerCheckout wraps the local write path.
func NewSchedulerCheckout(scheduler *schedule.Scheduler) *SchedulerCheckout {
	if scheduler == nil {
		panic("orders: scheduler required")
	}
	return &SchedulerCheckout{scheduler: scheduler}
}

// SubmitBooking creates the appointment via the scheduler. Conflict and
// validation failures pass through unchanged.
func (s *SchedulerCheckout) SubmitBooking(ctx context.Context, req SubmitRequest) (*Receipt, error) {
	appt, err := s.scheduler.CreateAppointment(ctx, schedule.CreateRequest{
		BusinessID:     req.BusinessID,
		ProfessionalID: req.ProfessionalID,
		CustomerID:     req.CustomerID,
		ServiceIDs:     req.ServiceIDs,
		Start:          req.Start,
		Location:       req.Location,
		AddressID:      req.AddressID,
	})
	if err != nil {
		return nil, err
	}
	return &Receipt{
		OrderID:       uuid.NewString(),
		AppointmentID: appt.ID.String(),
	}, nil
}
