package live

import (
	"context"
	"sync"

	"github.com/Dragonxt022/Express-Services-sub000/internal/observability/metrics"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

const defaultSendBuffer = 16

// Hub fans events out to subscribers, scoped by business id. Slow
// subscribers are skipped rather than blocking the write path; a
// dropped event is harmless because consumers re-fetch wholesale on
// the next one.
type Hub struct {
	logger  *logging.Logger
	metrics *metrics.SchedulingMetrics
	buffer  int

	mu   sync.RWMutex
	subs map[string]map[*subscription]struct{} // businessID -> subscribers
}

type subscription struct {
	ch chan Event
}

// NewHub creates a hub with the given per-subscriber buffer size.
func NewHub(buffer int, m *metrics.SchedulingMetrics, logger *logging.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		logger:  logger.Component("live"),
		metrics: m,
		buffer:  buffer,
		subs:    make(map[string]map[*subscription]struct{}),
	}
}

// Subscribe registers a listener for one business. The returned cancel
// function must be called when the listener goes away; the channel is
// closed by cancel.
func (h *Hub) Subscribe(businessID string) (<-chan Event, func()) {
	sub := &subscription{ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	if h.subs[businessID] == nil {
		h.subs[businessID] = make(map[*subscription]struct{})
	}
	h.subs[businessID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[businessID]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(h.subs, businessID)
				}
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers the event to every subscriber of its business.
// Never blocks: full subscriber buffers drop the event.
func (h *Hub) Publish(_ context.Context, evt Event) {
	h.metrics.ObserveLiveEvent(string(evt.Type))

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[evt.BusinessID] {
		select {
		case sub.ch <- evt:
		default:
			h.logger.Warn("live: subscriber buffer full, dropping event",
				"business_id", evt.BusinessID,
				"event_type", evt.Type,
			)
		}
	}
}

// SubscriberCount reports active subscribers for a business.
func (h *Hub) SubscriberCount(businessID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[businessID])
}
