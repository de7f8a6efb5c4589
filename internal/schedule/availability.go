package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Dragonxt022/Express-Services-sub000/internal/catalog"
	"github.com/Dragonxt022/Express-Services-sub000/internal/observability/metrics"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

// SlotQuery describes one availability computation.
type SlotQuery struct {
	BusinessID string
	Date       time.Time
	ServiceIDs []string
	// ProfessionalFilter, when set, restricts consideration to that one
	// professional.
	ProfessionalFilter string
	// ExcludeAppointment removes one entry from the conflict check,
	// used when validating a reschedule target against the moving
	// appointment's own interval.
	ExcludeAppointment uuid.UUID
	// WindowOverrideMinutes replaces the cart-derived window when
	// positive. Reschedules pass the appointment's frozen duration so
	// the advisory check matches what the write path will validate,
	// even if catalog durations changed since creation.
	WindowOverrideMinutes int
}

// SlotList is the result of one availability computation.
type SlotList struct {
	Slots []AvailabilitySlot
	// WindowMinutes is the total interval the cart occupies
	// (durations + buffers).
	WindowMinutes int
	// Eligible is the eligible-professional set the slots were
	// computed against, after applying the filter.
	Eligible []string
}

// Engine derives bookable/blocked slots from the calendar store,
// eligibility, and business hours. It holds no calendar state: every
// query re-reads the store, so a returned list is advisory and may be
// stale the moment it is returned.
type Engine struct {
	reader   CalendarReader
	resolver *catalog.Resolver
	hours    HoursSource
	metrics  *metrics.SchedulingMetrics
	logger   *logging.Logger
}

// NewEngine wires an availability engine.
func NewEngine(reader CalendarReader, resolver *catalog.Resolver, hours HoursSource, m *metrics.SchedulingMetrics, logger *logging.Logger) *Engine {
	if reader == nil || resolver == nil || hours == nil {
		panic("schedule: engine requires reader, resolver and hours")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		reader:   reader,
		resolver: resolver,
		hours:    hours,
		metrics:  m,
		logger:   logger.Component("availability"),
	}
}

// ComputeSlots walks the business's slot grid for the date and marks
// each candidate start available or not for the cart's window. An
// all-unavailable or empty result is a normal outcome, never an error.
func (e *Engine) ComputeSlots(ctx context.Context, q SlotQuery) (*SlotList, error) {
	started := time.Now()
	list, err := e.computeSlots(ctx, q)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	e.metrics.ObserveAvailability(outcome, time.Since(started).Seconds())
	return list, err
}

func (e *Engine) computeSlots(ctx context.Context, q SlotQuery) (*SlotList, error) {
	if q.BusinessID == "" {
		return nil, &FatalError{Reason: "business id is required"}
	}

	eligible, err := e.resolver.EligibleProfessionals(ctx, q.ServiceIDs)
	if err != nil {
		if errors.Is(err, catalog.ErrEmptyCart) {
			return nil, &FatalError{Reason: "cart has no services"}
		}
		return nil, &TransientError{Op: "schedule: resolve eligibility", Err: err}
	}
	if q.ProfessionalFilter != "" {
		filtered := eligible[:0:0]
		for _, id := range eligible {
			if id == q.ProfessionalFilter {
				filtered = append(filtered, id)
			}
		}
		eligible = filtered
	}

	window := q.WindowOverrideMinutes
	if window <= 0 {
		services, err := e.resolver.LoadCart(ctx, q.ServiceIDs)
		if err != nil {
			return nil, &TransientError{Op: "schedule: load cart", Err: err}
		}
		window = catalog.TotalWindowMinutes(services)
	}
	if window <= 0 {
		return nil, &FatalError{Reason: fmt.Sprintf("cart window must be positive, got %d", window)}
	}

	hours, err := e.hours.HoursFor(ctx, q.BusinessID, q.Date)
	if err != nil {
		return nil, &TransientError{Op: "schedule: load business hours", Err: err}
	}

	// One fresh read per query. Nothing is memoized between calls;
	// correctness of the write path does not depend on this read.
	entries, err := e.reader.ListDay(ctx, q.BusinessID, q.Date)
	if err != nil {
		return nil, err
	}
	active := entries[:0:0]
	for _, entry := range entries {
		if entry.Active() && entry.ID != q.ExcludeAppointment {
			active = append(active, entry)
		}
	}

	list := &SlotList{WindowMinutes: window, Eligible: eligible}
	for _, start := range hours.Grid() {
		list.Slots = append(list.Slots, e.evaluateSlot(start, window, hours, eligible, active))
	}
	return list, nil
}

func (e *Engine) evaluateSlot(start time.Time, window int, hours DayHours, eligible []string, active []Appointment) AvailabilitySlot {
	slot := AvailabilitySlot{Start: start, EligibleCount: len(eligible)}
	if len(eligible) == 0 || !hours.FitsBeforeClose(start, window) {
		return slot
	}

	blocked := false
	busy := make(map[string]bool)
	for _, entry := range active {
		if !entry.Overlaps(start, window) {
			continue
		}
		if entry.Kind == KindBlock {
			blocked = true
			continue
		}
		busy[entry.ProfessionalID] = true
	}

	for _, id := range eligible {
		if busy[id] {
			slot.BusyProfessionals = append(slot.BusyProfessionals, id)
		}
	}
	slot.Available = !blocked && len(slot.BusyProfessionals) < len(eligible)
	return slot
}

// SlotAt computes availability for the date and returns the slot whose
// start matches exactly, or nil when the time is off the grid.
func (e *Engine) SlotAt(ctx context.Context, q SlotQuery, start time.Time) (*AvailabilitySlot, *SlotList, error) {
	list, err := e.ComputeSlots(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	for i := range list.Slots {
		if list.Slots[i].Start.Equal(start) {
			return &list.Slots[i], list, nil
		}
	}
	return nil, list, nil
}

// EarliestAvailable returns the first available slot on the date
// starting at or after the given time, used by immediate (ASAP)
// bookings. ok=false means the day has nothing left.
func (e *Engine) EarliestAvailable(ctx context.Context, q SlotQuery, notBefore time.Time) (*AvailabilitySlot, bool, error) {
	list, err := e.ComputeSlots(ctx, q)
	if err != nil {
		return nil, false, err
	}
	for i := range list.Slots {
		slot := list.Slots[i]
		if slot.Available && !slot.Start.Before(notBefore) {
			return &slot, true, nil
		}
	}
	return nil, false, nil
}
