package board

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Dragonxt022/Express-Services-sub000/internal/schedule"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

// Controller serves day views and applies board actions through the
// scheduler's write path, so every board mutation gets the same
// re-validation customers get.
type Controller struct {
	reader    schedule.CalendarReader
	scheduler *schedule.Scheduler
	engine    *schedule.Engine
	hours     schedule.HoursSource
	logger    *logging.Logger
}

// NewController wires the board.
func NewController(reader schedule.CalendarReader, scheduler *schedule.Scheduler, engine *schedule.Engine, hours schedule.HoursSource, logger *logging.Logger) *Controller {
	if reader == nil || scheduler == nil || engine == nil || hours == nil {
		panic("board: controller requires reader, scheduler, engine and hours")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Controller{
		reader:    reader,
		scheduler: scheduler,
		engine:    engine,
		hours:     hours,
		logger:    logger.Component("board"),
	}
}

// DayView renders the business-day grid. Entries land in the cell their
// start falls into, but a cell counts as occupied when any active
// entry's interval covers it, so a long appointment claims every cell
// it spans. Only uncovered cells offer booking and blocking.
func (c *Controller) DayView(ctx context.Context, businessID string, date time.Time) (*DayView, error) {
	if businessID == "" {
		return nil, &schedule.FatalError{Reason: "business id is required"}
	}

	hours, err := c.hours.HoursFor(ctx, businessID, date)
	if err != nil {
		return nil, &schedule.TransientError{Op: "board: load business hours", Err: err}
	}
	entries, err := c.reader.ListDay(ctx, businessID, date)
	if err != nil {
		return nil, err
	}

	grid := hours.Grid()
	view := &DayView{
		BusinessID:  businessID,
		Date:        date,
		Cells:       make([]Cell, 0, len(grid)),
		GeneratedAt: time.Now().UTC(),
	}

	intervalMinutes := int(hours.SlotInterval / time.Minute)
	for _, start := range grid {
		cell := Cell{Start: start}
		cellEnd := start.Add(hours.SlotInterval)
		covered := false
		for _, entry := range entries {
			if entry.Active() && entry.Overlaps(start, intervalMinutes) {
				covered = true
			}
			if entry.Start.Before(start) || !entry.Start.Before(cellEnd) {
				continue
			}
			cell.Entries = append(cell.Entries, EntrySummary{
				ID:             entry.ID.String(),
				Kind:           entry.Kind,
				Status:         entry.Status,
				ProfessionalID: entry.ProfessionalID,
				CustomerID:     entry.CustomerID,
				ServiceIDs:     entry.ServiceIDs,
				Start:          entry.Start,
				End:            entry.End(),
				Location:       entry.Location,
				ManualEntry:    entry.ManualEntry,
				Reason:         entry.Reason,
				Actions:        actionsFor(entry),
			})
		}
		if !covered {
			cell.Actions = []Action{ActionBook, ActionBlock}
		}
		view.Cells = append(view.Cells, cell)
	}
	return view, nil
}

// BookManually creates a service appointment keyed in by the business
// on an empty slot. It runs the full customer write path with the
// manual flag set.
func (c *Controller) BookManually(ctx context.Context, req schedule.CreateRequest) (*schedule.Appointment, error) {
	req.ManualEntry = true
	return c.scheduler.CreateAppointment(ctx, req)
}

// CreateBlock reserves a company-wide interval from an empty slot.
func (c *Controller) CreateBlock(ctx context.Context, businessID string, start time.Time, durationMinutes int, reason string) (*schedule.Appointment, error) {
	return c.scheduler.CreateBlock(ctx, businessID, start, durationMinutes, reason)
}

// PendingReschedule is the board's reschedule-pending mode: the
// appointment being moved plus what the client needs to highlight
// candidate slots.
type PendingReschedule struct {
	AppointmentID  string    `json:"appointment_id"`
	BusinessID     string    `json:"business_id"`
	ProfessionalID string    `json:"professional_id"`
	CurrentStart   time.Time `json:"current_start"`
	WindowMinutes  int       `json:"window_minutes"`
}

// BeginReschedule enters reschedule-pending mode for the appointment.
func (c *Controller) BeginReschedule(ctx context.Context, id uuid.UUID) (*PendingReschedule, error) {
	entry, err := c.reader.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Kind == schedule.KindBlock {
		return nil, &schedule.ValidationError{Field: "kind", Reason: "blocks cannot be rescheduled"}
	}
	if entry.Status.Terminal() {
		return nil, &schedule.ValidationError{Field: "status", Reason: "terminal appointments cannot be rescheduled"}
	}
	return &PendingReschedule{
		AppointmentID:  entry.ID.String(),
		BusinessID:     entry.BusinessID,
		ProfessionalID: entry.ProfessionalID,
		CurrentStart:   entry.Start,
		WindowMinutes:  entry.DurationMinutes,
	}, nil
}

// CompleteReschedule applies the slot picked in reschedule-pending
// mode. The target is validated against a fresh availability query
// that excludes the moving appointment's own interval, then the move
// goes through the scheduler's checked write. A conflict here means
// the board's view is stale; the caller must re-fetch the day before
// retrying.
func (c *Controller) CompleteReschedule(ctx context.Context, id uuid.UUID, newStart time.Time) (*schedule.Appointment, error) {
	entry, err := c.reader.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	slot, _, err := c.engine.SlotAt(ctx, schedule.SlotQuery{
		BusinessID:            entry.BusinessID,
		Date:                  newStart,
		ServiceIDs:            entry.ServiceIDs,
		ProfessionalFilter:    entry.ProfessionalID,
		ExcludeAppointment:    entry.ID,
		WindowOverrideMinutes: entry.DurationMinutes,
	}, newStart)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, &schedule.ValidationError{Field: "start", Reason: "time is outside business hours"}
	}
	if !slot.Available {
		return nil, &schedule.ConflictError{Reason: "target slot is occupied"}
	}

	moved, err := c.scheduler.RescheduleAppointment(ctx, id, newStart)
	if err != nil {
		return nil, err
	}
	c.logger.Info("board reschedule applied", "appointment_id", id, "new_start", newStart)
	return moved, nil
}

// UpdateStatus applies a status action directly.
func (c *Controller) UpdateStatus(ctx context.Context, id uuid.UUID, status schedule.Status) (*schedule.Appointment, error) {
	return c.scheduler.UpdateStatus(ctx, id, status)
}

// Delete removes an entry outright.
func (c *Controller) Delete(ctx context.Context, id uuid.UUID) error {
	return c.scheduler.DeleteEntry(ctx, id)
}
