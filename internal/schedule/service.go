package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Dragonxt022/Express-Services-sub000/internal/catalog"
	"github.com/Dragonxt022/Express-Services-sub000/internal/live"
	"github.com/Dragonxt022/Express-Services-sub000/internal/observability/metrics"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

// EventPublisher fans calendar changes out to live viewers.
type EventPublisher interface {
	Publish(ctx context.Context, evt live.Event)
}

// CreateRequest describes a new service appointment.
type CreateRequest struct {
	BusinessID     string
	ProfessionalID string
	CustomerID     string
	ServiceIDs     []string
	Start          time.Time
	Location       LocationMode
	AddressID      string
	// ManualEntry marks bookings the business keyed in directly on the
	// schedule board rather than through the customer flow.
	ManualEntry bool
}

// Scheduler is the write path over the calendar store. Reads through
// the availability engine are advisory; every mutation here re-validates
// inside the store before committing.
type Scheduler struct {
	store     CalendarStore
	resolver  *catalog.Resolver
	locker    Locker
	lockTTL   time.Duration
	publisher EventPublisher
	metrics   *metrics.SchedulingMetrics
	logger    *logging.Logger
}

// NewScheduler wires the write path.
func NewScheduler(store CalendarStore, resolver *catalog.Resolver, locker Locker, lockTTL time.Duration, publisher EventPublisher, m *metrics.SchedulingMetrics, logger *logging.Logger) *Scheduler {
	if store == nil || resolver == nil {
		panic("schedule: scheduler requires store and resolver")
	}
	if locker == nil {
		locker = NoopLocker{}
	}
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		store:     store,
		resolver:  resolver,
		locker:    locker,
		lockTTL:   lockTTL,
		publisher: publisher,
		metrics:   m,
		logger:    logger.Component("scheduler"),
	}
}

// CreateAppointment validates and persists a service appointment. The
// total duration is computed here, once, from the current catalog and
// frozen on the record. A *ConflictError means another mutation claimed
// the interval after the caller's availability read.
func (s *Scheduler) CreateAppointment(ctx context.Context, req CreateRequest) (*Appointment, error) {
	if req.BusinessID == "" {
		return nil, &FatalError{Reason: "business id is required"}
	}
	if len(req.ServiceIDs) == 0 {
		return nil, &FatalError{Reason: "cart has no services"}
	}
	if req.ProfessionalID == "" {
		return nil, &ValidationError{Field: "professional_id", Reason: "service appointments must be assigned to a professional"}
	}
	if req.Location != LocationInPerson && req.Location != LocationAtHome {
		return nil, &ValidationError{Field: "location", Reason: "location mode must be in_person or at_home"}
	}
	if req.Location == LocationAtHome && req.AddressID == "" {
		return nil, &ValidationError{Field: "address_id", Reason: "at-home appointments require an address"}
	}

	eligible, err := s.resolver.EligibleProfessionals(ctx, req.ServiceIDs)
	if err != nil {
		return nil, &TransientError{Op: "schedule: resolve eligibility", Err: err}
	}
	if !contains(eligible, req.ProfessionalID) {
		return nil, &ValidationError{Field: "professional_id", Reason: "professional cannot perform every service in the cart"}
	}

	services, err := s.resolver.LoadCart(ctx, req.ServiceIDs)
	if err != nil {
		return nil, &TransientError{Op: "schedule: load cart", Err: err}
	}
	window := catalog.TotalWindowMinutes(services)
	if window <= 0 {
		return nil, &FatalError{Reason: "cart window must be positive"}
	}

	appt := &Appointment{
		ID:              uuid.New(),
		BusinessID:      req.BusinessID,
		ProfessionalID:  req.ProfessionalID,
		CustomerID:      req.CustomerID,
		ServiceIDs:      req.ServiceIDs,
		Start:           req.Start,
		DurationMinutes: window,
		Location:        req.Location,
		AddressID:       req.AddressID,
		Status:          StatusScheduled,
		Kind:            KindService,
		ManualEntry:     req.ManualEntry,
	}

	if err := s.withDayLock(ctx, req.BusinessID, req.Start, func() error {
		return s.store.CreateChecked(ctx, appt)
	}); err != nil {
		s.observeWriteError("create", err)
		return nil, err
	}
	s.metrics.ObserveWrite("create", "ok")

	evt := live.NewEvent(live.EventAppointmentCreated, appt.BusinessID)
	evt.AppointmentID = appt.ID.String()
	evt.CustomerID = appt.CustomerID
	s.publish(ctx, evt)

	s.logger.Info("appointment created",
		"appointment_id", appt.ID,
		"business_id", appt.BusinessID,
		"professional_id", appt.ProfessionalID,
		"start", appt.Start,
		"duration_minutes", appt.DurationMinutes,
		"manual", appt.ManualEntry,
	)
	return appt, nil
}

// CreateBlock reserves an interval for the whole company. Blocks bind
// no professional and make every professional unavailable.
func (s *Scheduler) CreateBlock(ctx context.Context, businessID string, start time.Time, durationMinutes int, reason string) (*Appointment, error) {
	if businessID == "" {
		return nil, &FatalError{Reason: "business id is required"}
	}
	if durationMinutes <= 0 {
		return nil, &FatalError{Reason: "block duration must be positive"}
	}

	block := &Appointment{
		ID:              uuid.New(),
		BusinessID:      businessID,
		Start:           start,
		DurationMinutes: durationMinutes,
		Status:          StatusScheduled,
		Kind:            KindBlock,
		ManualEntry:     true,
		Reason:          reason,
	}

	if err := s.withDayLock(ctx, businessID, start, func() error {
		return s.store.CreateChecked(ctx, block)
	}); err != nil {
		s.observeWriteError("block", err)
		return nil, err
	}
	s.metrics.ObserveWrite("block", "ok")

	evt := live.NewEvent(live.EventAppointmentCreated, businessID)
	evt.AppointmentID = block.ID.String()
	s.publish(ctx, evt)

	s.logger.Info("block created", "appointment_id", block.ID, "business_id", businessID, "start", start, "duration_minutes", durationMinutes)
	return block, nil
}

// RescheduleAppointment moves an appointment to newStart. The conflict
// check excludes the appointment's own interval, so moving onto its
// current time always succeeds.
func (s *Scheduler) RescheduleAppointment(ctx context.Context, id uuid.UUID, newStart time.Time) (*Appointment, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var updated *Appointment
	if err := s.withDayLock(ctx, current.BusinessID, newStart, func() error {
		var innerErr error
		updated, innerErr = s.store.RescheduleChecked(ctx, id, newStart)
		return innerErr
	}); err != nil {
		s.observeWriteError("reschedule", err)
		return nil, err
	}
	s.metrics.ObserveWrite("reschedule", "ok")

	evt := live.NewEvent(live.EventAppointmentStatusChanged, updated.BusinessID)
	evt.AppointmentID = updated.ID.String()
	evt.CustomerID = updated.CustomerID
	s.publish(ctx, evt)

	s.logger.Info("appointment rescheduled", "appointment_id", id, "new_start", newStart)
	return updated, nil
}

// UpdateStatus applies a monotonic status transition. Terminal entries
// stop occupying their interval, so no slot recomputation is needed.
func (s *Scheduler) UpdateStatus(ctx context.Context, id uuid.UUID, next Status) (*Appointment, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Kind == KindBlock {
		return nil, &ValidationError{Field: "kind", Reason: "blocks have no status lifecycle"}
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, &ValidationError{
			Field:  "status",
			Reason: string(current.Status) + " cannot transition to " + string(next),
		}
	}

	updated, err := s.store.UpdateStatus(ctx, id, next)
	if err != nil {
		s.observeWriteError("status", err)
		return nil, err
	}
	s.metrics.ObserveWrite("status", "ok")

	evt := live.NewEvent(live.EventAppointmentStatusChanged, updated.BusinessID)
	evt.AppointmentID = updated.ID.String()
	evt.CustomerID = updated.CustomerID
	s.publish(ctx, evt)
	return updated, nil
}

// DeleteEntry removes an appointment or block outright.
func (s *Scheduler) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		s.observeWriteError("delete", err)
		return err
	}
	s.metrics.ObserveWrite("delete", "ok")

	evt := live.NewEvent(live.EventAppointmentStatusChanged, current.BusinessID)
	evt.AppointmentID = id.String()
	s.publish(ctx, evt)
	return nil
}

// withDayLock serializes the re-validate-then-write step per
// business-day across API instances. Failure to acquire is transient:
// the caller retries with backoff, it is not a slot conflict.
func (s *Scheduler) withDayLock(ctx context.Context, businessID string, at time.Time, fn func() error) error {
	key := dayLockKey(businessID, at)
	acquired := false
	for attempt := 0; attempt < 3 && !acquired; attempt++ {
		ok, err := s.locker.Lock(ctx, key, s.lockTTL)
		if err != nil {
			return err
		}
		if ok {
			acquired = true
			break
		}
		select {
		case <-ctx.Done():
			return &TransientError{Op: "schedule: wait for day lock", Err: ctx.Err()}
		case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
		}
	}
	if !acquired {
		return &TransientError{Op: "schedule: acquire day lock", Err: context.DeadlineExceeded}
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn("failed to release day lock", "key", key, "error", err)
		}
	}()

	return fn()
}

func (s *Scheduler) publish(ctx context.Context, evt live.Event) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, evt)
}

func (s *Scheduler) observeWriteError(operation string, err error) {
	if IsConflict(err) {
		s.metrics.ObserveConflict(operation)
		s.metrics.ObserveWrite(operation, "conflict")
		return
	}
	s.metrics.ObserveWrite(operation, "error")
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
