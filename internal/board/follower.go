package board

import (
	"context"
	"sync"
	"time"

	"github.com/Dragonxt022/Express-Services-sub000/internal/live"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

// Follower keeps one business-day view current by re-fetching it
// wholesale whenever the live channel signals a change. It never
// patches the view in place: events carry no ordering guarantee, so
// the only safe reaction is to throw the view away and re-read.
type Follower struct {
	controller *Controller
	businessID string
	date       time.Time
	logger     *logging.Logger

	mu   sync.RWMutex
	view *DayView
}

// NewFollower creates a follower for one business-day.
func NewFollower(controller *Controller, businessID string, date time.Time, logger *logging.Logger) *Follower {
	if controller == nil {
		panic("board: controller required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Follower{
		controller: controller,
		businessID: businessID,
		date:       date,
		logger:     logger.Component("board-follower"),
	}
}

// View returns the last fetched day view, nil before the first refresh.
func (f *Follower) View() *DayView {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.view
}

// Refresh re-fetches the whole day and replaces the view.
func (f *Follower) Refresh(ctx context.Context) error {
	view, err := f.controller.DayView(ctx, f.businessID, f.date)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.view = view
	f.mu.Unlock()
	return nil
}

// HandleEvent is the live-channel callback: any event for this
// follower's business triggers a full re-fetch. Events for other
// businesses are ignored.
func (f *Follower) HandleEvent(ctx context.Context) func(live.Event) {
	return func(evt live.Event) {
		if evt.BusinessID != f.businessID {
			return
		}
		if err := f.Refresh(ctx); err != nil {
			f.logger.Warn("board refresh failed", "business_id", f.businessID, "error", err)
		}
	}
}

// Follow connects the follower to a live stream and blocks until ctx
// is cancelled. The initial fetch happens before the first event.
func (f *Follower) Follow(ctx context.Context, subscriber *live.Subscriber) error {
	if err := f.Refresh(ctx); err != nil {
		return err
	}
	subscriber.Run(ctx, f.HandleEvent(ctx))
	return nil
}
