package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/Dragonxt022/Express-Services-sub000/internal/schedule"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

// AvailabilityHandler serves slot queries. Responses are advisory: the
// write path re-validates every booking.
type AvailabilityHandler struct {
	engine *schedule.Engine
	logger *logging.Logger
}

// NewAvailabilityHandler creates the handler.
func NewAvailabilityHandler(engine *schedule.Engine, logger *logging.Logger) *AvailabilityHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AvailabilityHandler{engine: engine, logger: logger}
}

type availabilityResponse struct {
	BusinessID    string                     `json:"business_id"`
	Date          string                     `json:"date"`
	WindowMinutes int                        `json:"window_minutes"`
	Eligible      []string                   `json:"eligible_professionals"`
	Slots         []schedule.AvailabilitySlot `json:"slots"`
}

// List handles GET /availability?business=&date=&services=&professional=.
func (h *AvailabilityHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	businessID := q.Get("business")
	if businessID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "business query parameter is required"})
		return
	}
	date, err := time.Parse("2006-01-02", q.Get("date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
		return
	}
	services := splitList(q.Get("services"))
	if len(services) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "services query parameter is required"})
		return
	}

	list, err := h.engine.ComputeSlots(r.Context(), schedule.SlotQuery{
		BusinessID:         businessID,
		Date:               date,
		ServiceIDs:         services,
		ProfessionalFilter: q.Get("professional"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, availabilityResponse{
		BusinessID:    businessID,
		Date:          date.Format("2006-01-02"),
		WindowMinutes: list.WindowMinutes,
		Eligible:      list.Eligible,
		Slots:         list.Slots,
	})
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
