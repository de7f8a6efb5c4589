// Package board renders a business's day as a slot grid for the admin
// schedule board and applies the actions taken on it. The board never
// reasons about calendar state incrementally: any change signal throws
// the whole day away and re-fetches it.
package board

import (
	"time"

	"github.com/Dragonxt022/Express-Services-sub000/internal/schedule"
)

// Action is something the admin can do from a board cell.
type Action string

const (
	ActionBook       Action = "book"
	ActionBlock      Action = "block"
	ActionReschedule Action = "reschedule"
	ActionCancel     Action = "cancel"
	ActionComplete   Action = "complete"
	ActionDelete     Action = "delete"
)

// EntrySummary is one calendar entry as the board renders it.
type EntrySummary struct {
	ID             string                `json:"id"`
	Kind           schedule.Kind         `json:"kind"`
	Status         schedule.Status       `json:"status"`
	ProfessionalID string                `json:"professional_id,omitempty"`
	CustomerID     string                `json:"customer_id,omitempty"`
	ServiceIDs     []string              `json:"service_ids,omitempty"`
	Start          time.Time             `json:"start"`
	End            time.Time             `json:"end"`
	Location       schedule.LocationMode `json:"location,omitempty"`
	ManualEntry    bool                  `json:"manual_entry"`
	Reason         string                `json:"reason,omitempty"`
	Actions        []Action              `json:"actions"`
}

// Cell is one grid slot: its entries plus the actions an empty slot
// offers.
type Cell struct {
	Start   time.Time      `json:"start"`
	Entries []EntrySummary `json:"entries,omitempty"`
	Actions []Action       `json:"actions,omitempty"`
}

// DayView is one business-day rendered wholesale. GeneratedAt lets the
// client discard views that raced a re-fetch.
type DayView struct {
	BusinessID  string    `json:"business_id"`
	Date        time.Time `json:"date"`
	Cells       []Cell    `json:"cells"`
	GeneratedAt time.Time `json:"generated_at"`
}

// actionsFor gates entry actions by kind and status: blocks only ever
// get deleted, terminal appointments keep delete for cleanup, live ones
// get the full set.
func actionsFor(entry schedule.Appointment) []Action {
	if entry.Kind == schedule.KindBlock {
		return []Action{ActionDelete}
	}
	if entry.Status.Terminal() {
		return []Action{ActionDelete}
	}
	return []Action{ActionReschedule, ActionCancel, ActionComplete, ActionDelete}
}
