package live

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/websocket"

	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

// Handler exposes the hub over WebSocket so schedule boards and
// customer apps can watch a business's calendar.
type Handler struct {
	hub    *Hub
	logger *logging.Logger
}

// NewHandler creates the live-stream HTTP handler.
func NewHandler(hub *Hub, logger *logging.Logger) *Handler {
	if hub == nil {
		panic("live: hub required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{hub: hub, logger: logger.Component("live")}
}

// HandleStream upgrades to WebSocket and pushes every event for the
// business in the URL until the client disconnects.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")
	if businessID == "" {
		http.Error(w, "missing business id", http.StatusBadRequest)
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, businessID)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, businessID string) {
	events, cancel := h.hub.Subscribe(businessID)
	defer cancel()

	h.logger.Info("live: stream opened", "business_id", businessID)

	// Reads only detect disconnect; clients send nothing meaningful.
	done := make(chan struct{})
	go func() {
		defer close(done)
		var discard string
		for {
			if err := websocket.Message.Receive(conn, &discard); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := websocket.JSON.Send(conn, evt); err != nil {
				h.logger.Debug("live: stream closed", "business_id", businessID, "error", err)
				return
			}
		case <-done:
			h.logger.Debug("live: client disconnected", "business_id", businessID)
			return
		}
	}
}
