package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dragonxt022/Express-Services-sub000/internal/board"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

// BoardHandler serves the admin schedule board.
type BoardHandler struct {
	controller *board.Controller
	logger     *logging.Logger
}

// NewBoardHandler creates the handler.
func NewBoardHandler(controller *board.Controller, logger *logging.Logger) *BoardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BoardHandler{controller: controller, logger: logger}
}

// DayView handles GET /board/{businessID}/{date}.
func (h *BoardHandler) DayView(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")
	date, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
		return
	}

	view, err := h.controller.DayView(r.Context(), businessID, date)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// BeginReschedule handles POST /board/appointments/{id}/reschedule.
func (h *BoardHandler) BeginReschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	pending, err := h.controller.BeginReschedule(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

type completeRescheduleRequest struct {
	Start time.Time `json:"start"`
}

// CompleteReschedule handles PUT /board/appointments/{id}/reschedule.
// A 409 response obliges the client to re-fetch the day view before
// retrying.
func (h *BoardHandler) CompleteReschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req completeRescheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	moved, err := h.controller.CompleteReschedule(r.Context(), id, req.Start)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, moved)
}
