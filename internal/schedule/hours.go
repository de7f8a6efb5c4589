package schedule

import (
	"context"
	"fmt"
	"time"
)

// DayHours is the bookable window of one business day plus the slot
// cadence of its grid.
type DayHours struct {
	Open         time.Time
	Close        time.Time
	SlotInterval time.Duration
}

// Grid enumerates every candidate slot start within business hours.
func (h DayHours) Grid() []time.Time {
	if h.SlotInterval <= 0 || !h.Open.Before(h.Close) {
		return nil
	}
	var grid []time.Time
	for t := h.Open; t.Before(h.Close); t = t.Add(h.SlotInterval) {
		grid = append(grid, t)
	}
	return grid
}

// FitsBeforeClose reports whether a window starting at t ends by close.
func (h DayHours) FitsBeforeClose(t time.Time, windowMinutes int) bool {
	return !t.Add(time.Duration(windowMinutes) * time.Minute).After(h.Close)
}

// HoursSource yields the business-hours definition for a given business
// and date. The authoritative source lives in the business profile
// service; implementations here only adapt it.
type HoursSource interface {
	HoursFor(ctx context.Context, businessID string, date time.Time) (DayHours, error)
}

// FixedHours applies one opening window to every business and day.
// Used as the fallback grid when the profile service provides none.
type FixedHours struct {
	openMinute   int
	closeMinute  int
	slotInterval time.Duration
}

// NewFixedHours parses "HH:MM" open/close times.
func NewFixedHours(open, close string, slotInterval time.Duration) (*FixedHours, error) {
	openT, err := time.Parse("15:04", open)
	if err != nil {
		return nil, fmt.Errorf("schedule: invalid open time %q: %w", open, err)
	}
	closeT, err := time.Parse("15:04", close)
	if err != nil {
		return nil, fmt.Errorf("schedule: invalid close time %q: %w", close, err)
	}
	openMin := openT.Hour()*60 + openT.Minute()
	closeMin := closeT.Hour()*60 + closeT.Minute()
	if closeMin <= openMin {
		return nil, fmt.Errorf("schedule: close %q must be after open %q", close, open)
	}
	if slotInterval <= 0 {
		slotInterval = 30 * time.Minute
	}
	return &FixedHours{openMinute: openMin, closeMinute: closeMin, slotInterval: slotInterval}, nil
}

// HoursFor instantiates the fixed window on the given date, in the
// date's location.
func (f *FixedHours) HoursFor(_ context.Context, _ string, date time.Time) (DayHours, error) {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return DayHours{
		Open:         midnight.Add(time.Duration(f.openMinute) * time.Minute),
		Close:        midnight.Add(time.Duration(f.closeMinute) * time.Minute),
		SlotInterval: f.slotInterval,
	}, nil
}
