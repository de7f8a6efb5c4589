package bookingflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Dragonxt022/Express-Services-sub000/internal/addressbook"
	"github.com/Dragonxt022/Express-Services-sub000/internal/catalog"
	"github.com/Dragonxt022/Express-Services-sub000/internal/orders"
	"github.com/Dragonxt022/Express-Services-sub000/internal/schedule"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

// Coordinator advances booking sessions. Transitions take a session by
// value and return the updated copy; on any error the caller keeps the
// session it passed in, so a failed precondition never advances the
// flow.
type Coordinator struct {
	dir       catalog.Directory
	resolver  *catalog.Resolver
	engine    *schedule.Engine
	checkout  orders.Checkout
	addresses addressbook.Book
	logger    *logging.Logger
	now       func() time.Time
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithClock overrides the wall clock (tests).
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) {
		c.now = now
	}
}

// NewCoordinator wires the booking flow.
func NewCoordinator(dir catalog.Directory, engine *schedule.Engine, checkout orders.Checkout, addresses addressbook.Book, logger *logging.Logger, opts ...CoordinatorOption) *Coordinator {
	if dir == nil || engine == nil || checkout == nil || addresses == nil {
		panic("bookingflow: coordinator requires directory, engine, checkout and addresses")
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Coordinator{
		dir:       dir,
		resolver:  catalog.NewResolver(dir),
		engine:    engine,
		checkout:  checkout,
		addresses: addresses,
		logger:    logger.Component("bookingflow"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start opens a session for the cart. Any non-schedulable service in
// the cart forces immediate mode: the flow skips date/time selection
// and books the earliest slot today.
func (c *Coordinator) Start(ctx context.Context, businessID, customerID string, serviceIDs []string) (Session, error) {
	var s Session
	if businessID == "" {
		return s, &schedule.FatalError{Reason: "business id is required"}
	}
	services, err := c.loadCart(ctx, serviceIDs)
	if err != nil {
		return s, err
	}

	mode := ModeScheduled
	for _, svc := range services {
		if !svc.Schedulable {
			mode = ModeImmediate
			break
		}
	}

	now := c.now().UTC()
	s = Session{
		ID:         uuid.NewString(),
		BusinessID: businessID,
		CustomerID: customerID,
		ServiceIDs: serviceIDs,
		Step:       StepLocation,
		Mode:       mode,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	c.logger.Info("session started", "session_id", s.ID, "business_id", businessID, "mode", mode, "services", len(serviceIDs))
	return s, nil
}

// LocationOptions returns the location modes the whole cart supports:
// the intersection of every service's attendance modes. A cart mixing
// in-person-only and at-home-only services has no options.
func (c *Coordinator) LocationOptions(ctx context.Context, s Session) ([]schedule.LocationMode, error) {
	services, err := c.loadCart(ctx, s.ServiceIDs)
	if err != nil {
		return nil, err
	}
	inPerson, atHome := true, true
	for _, svc := range services {
		inPerson = inPerson && svc.Attendance.AllowsInPerson()
		atHome = atHome && svc.Attendance.AllowsAtHome()
	}

	var options []schedule.LocationMode
	if inPerson {
		options = append(options, schedule.LocationInPerson)
	}
	if atHome {
		options = append(options, schedule.LocationAtHome)
	}
	return options, nil
}

// SelectLocation records the location choice. At-home requires an
// address the customer owns. Immediate-mode sessions book the earliest
// available slot today here and jump straight to professional
// selection.
func (c *Coordinator) SelectLocation(ctx context.Context, s Session, mode schedule.LocationMode, addressID string) (Session, error) {
	if s.Step != StepLocation {
		return s, stepError(s.Step, StepLocation)
	}

	options, err := c.LocationOptions(ctx, s)
	if err != nil {
		return s, err
	}
	if len(options) == 0 {
		return s, &schedule.ValidationError{Field: "services", Reason: "cart mixes in-person-only and at-home-only services"}
	}
	if !containsMode(options, mode) {
		return s, &schedule.ValidationError{Field: "location", Reason: "location not supported by every service in the cart"}
	}

	if mode == schedule.LocationAtHome {
		if addressID == "" {
			return s, &schedule.ValidationError{Field: "address_id", Reason: "at-home appointments require an address"}
		}
		if _, err := c.addresses.GetAddress(ctx, s.CustomerID, addressID); err != nil {
			if errors.Is(err, addressbook.ErrAddressNotFound) {
				return s, &schedule.ValidationError{Field: "address_id", Reason: "address not found"}
			}
			return s, &schedule.TransientError{Op: "bookingflow: load address", Err: err}
		}
	} else {
		addressID = ""
	}

	s.Location = mode
	s.AddressID = addressID
	s.UpdatedAt = c.now().UTC()

	if s.Mode == ModeImmediate {
		return c.pickEarliestToday(ctx, s)
	}
	s.Step = StepDateTime
	return s, nil
}

// SelectDateTime records the chosen slot after re-checking it against
// a fresh availability query. An unavailable pick is a retryable
// validation failure; the session stays at date/time selection.
func (c *Coordinator) SelectDateTime(ctx context.Context, s Session, start time.Time) (Session, error) {
	if s.Step != StepDateTime {
		return s, stepError(s.Step, StepDateTime)
	}

	q := c.slotQuery(s, "")
	q.Date = start
	slot, _, err := c.engine.SlotAt(ctx, q, start)
	if err != nil {
		return s, err
	}
	if slot == nil {
		return s, &schedule.ValidationError{Field: "start", Reason: "time is outside business hours"}
	}
	if !slot.Available {
		return s, &schedule.ValidationError{Field: "start", Reason: "slot is no longer available"}
	}

	s.Start = start
	s.Step = StepProfessional
	s.UpdatedAt = c.now().UTC()
	return s, nil
}

// ProfessionalOptions lists the eligible professionals at the session's
// chosen time, annotating who is busy there.
func (c *Coordinator) ProfessionalOptions(ctx context.Context, s Session) ([]ProfessionalOption, error) {
	if s.Start.IsZero() {
		return nil, &schedule.ValidationError{Field: "start", Reason: "pick a time before choosing a professional"}
	}

	slot, list, err := c.engine.SlotAt(ctx, c.slotQuery(s, ""), s.Start)
	if err != nil {
		return nil, err
	}

	busy := make(map[string]bool)
	if slot != nil {
		for _, id := range slot.BusyProfessionals {
			busy[id] = true
		}
	}
	names, err := c.professionalNames(ctx, s.ServiceIDs)
	if err != nil {
		return nil, err
	}

	options := make([]ProfessionalOption, 0, len(list.Eligible))
	for _, id := range list.Eligible {
		options = append(options, ProfessionalOption{ID: id, Name: names[id], Busy: busy[id]})
	}
	return options, nil
}

// SelectProfessional records the professional after re-checking they
// are still free at the chosen time.
func (c *Coordinator) SelectProfessional(ctx context.Context, s Session, professionalID string) (Session, error) {
	if s.Step != StepProfessional {
		return s, stepError(s.Step, StepProfessional)
	}
	if professionalID == "" {
		return s, &schedule.ValidationError{Field: "professional_id", Reason: "professional is required"}
	}

	slot, list, err := c.engine.SlotAt(ctx, c.slotQuery(s, professionalID), s.Start)
	if err != nil {
		return s, err
	}
	if len(list.Eligible) == 0 {
		return s, &schedule.ValidationError{Field: "professional_id", Reason: "professional cannot perform every service in the cart"}
	}
	if slot == nil || !slot.Available {
		return s, &schedule.ValidationError{Field: "professional_id", Reason: "professional is busy at the chosen time"}
	}

	s.ProfessionalID = professionalID
	s.Step = StepReview
	s.UpdatedAt = c.now().UTC()
	return s, nil
}

// Confirm submits the booking through checkout. On a conflict the
// session routes back to time selection with its slot cleared, so the
// customer re-picks from a fresh availability list; immediate-mode
// sessions re-pick the earliest slot right away.
func (c *Coordinator) Confirm(ctx context.Context, s Session) (Session, error) {
	if s.Step != StepReview {
		return s, stepError(s.Step, StepReview)
	}

	receipt, err := c.checkout.SubmitBooking(ctx, orders.SubmitRequest{
		BusinessID:     s.BusinessID,
		CustomerID:     s.CustomerID,
		ProfessionalID: s.ProfessionalID,
		ServiceIDs:     s.ServiceIDs,
		Start:          s.Start,
		Location:       s.Location,
		AddressID:      s.AddressID,
	})
	if err != nil {
		if schedule.IsConflict(err) {
			c.logger.Info("checkout lost the slot", "session_id", s.ID, "start", s.Start)
			rerouted := s
			rerouted.ProfessionalID = ""
			rerouted.UpdatedAt = c.now().UTC()
			if s.Mode == ModeImmediate {
				if repicked, pickErr := c.pickEarliestToday(ctx, rerouted); pickErr == nil {
					return repicked, err
				}
				rerouted.Start = time.Time{}
				rerouted.Step = StepLocation
				return rerouted, err
			}
			rerouted.Start = time.Time{}
			rerouted.Step = StepDateTime
			return rerouted, err
		}
		return s, err
	}

	s.OrderID = receipt.OrderID
	s.AppointmentID = receipt.AppointmentID
	s.Step = StepConfirmed
	s.UpdatedAt = c.now().UTC()
	c.logger.Info("session confirmed", "session_id", s.ID, "order_id", s.OrderID, "appointment_id", s.AppointmentID)
	return s, nil
}

func (c *Coordinator) pickEarliestToday(ctx context.Context, s Session) (Session, error) {
	now := c.now()
	slot, ok, err := c.engine.EarliestAvailable(ctx, c.slotQuery(s, ""), now)
	if err != nil {
		return s, err
	}
	if !ok {
		return s, &schedule.ValidationError{Field: "start", Reason: "no availability left today"}
	}
	s.Start = slot.Start
	s.Step = StepProfessional
	s.UpdatedAt = now.UTC()
	return s, nil
}

func (c *Coordinator) slotQuery(s Session, professionalFilter string) schedule.SlotQuery {
	date := s.Start
	if date.IsZero() {
		date = c.now()
	}
	return schedule.SlotQuery{
		BusinessID:         s.BusinessID,
		Date:               date,
		ServiceIDs:         s.ServiceIDs,
		ProfessionalFilter: professionalFilter,
	}
}

func (c *Coordinator) loadCart(ctx context.Context, serviceIDs []string) ([]catalog.Service, error) {
	services, err := c.resolver.LoadCart(ctx, serviceIDs)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrEmptyCart):
			return nil, &schedule.FatalError{Reason: "cart has no services"}
		case errors.Is(err, catalog.ErrServiceNotFound):
			return nil, &schedule.ValidationError{Field: "services", Reason: "unknown service in cart"}
		default:
			return nil, &schedule.TransientError{Op: "bookingflow: load cart", Err: err}
		}
	}
	return services, nil
}

func (c *Coordinator) professionalNames(ctx context.Context, serviceIDs []string) (map[string]string, error) {
	names := make(map[string]string)
	for _, serviceID := range serviceIDs {
		pros, err := c.dir.ProfessionalsForService(ctx, serviceID)
		if err != nil {
			return nil, &schedule.TransientError{Op: "bookingflow: load professionals", Err: err}
		}
		for _, p := range pros {
			names[p.ID] = p.Name
		}
	}
	return names, nil
}

func stepError(current, expected Step) error {
	return &schedule.ValidationError{
		Field:  "step",
		Reason: "session is at " + string(current) + ", expected " + string(expected),
	}
}

func containsMode(modes []schedule.LocationMode, mode schedule.LocationMode) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}
