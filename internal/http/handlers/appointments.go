package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Dragonxt022/Express-Services-sub000/internal/schedule"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

// AppointmentsHandler is the write surface over the scheduler.
type AppointmentsHandler struct {
	scheduler *schedule.Scheduler
	logger    *logging.Logger
}

// NewAppointmentsHandler creates the handler.
func NewAppointmentsHandler(scheduler *schedule.Scheduler, logger *logging.Logger) *AppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentsHandler{scheduler: scheduler, logger: logger}
}

type createAppointmentRequest struct {
	BusinessID     string    `json:"business_id"`
	ProfessionalID string    `json:"professional_id"`
	CustomerID     string    `json:"customer_id"`
	ServiceIDs     []string  `json:"service_ids"`
	Start          time.Time `json:"start"`
	Location       string    `json:"location"`
	AddressID      string    `json:"address_id,omitempty"`
	ManualEntry    bool      `json:"manual_entry,omitempty"`
}

// Create handles POST /appointments. A 409 means the slot was taken
// after the caller's availability read; re-query and pick again.
func (h *AppointmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	businessID, err := resolveBusinessID(r.Context(), req.BusinessID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	appt, err := h.scheduler.CreateAppointment(r.Context(), schedule.CreateRequest{
		BusinessID:     businessID,
		ProfessionalID: req.ProfessionalID,
		CustomerID:     req.CustomerID,
		ServiceIDs:     req.ServiceIDs,
		Start:          req.Start,
		Location:       schedule.LocationMode(req.Location),
		AddressID:      req.AddressID,
		ManualEntry:    req.ManualEntry,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

type rescheduleRequest struct {
	Start time.Time `json:"start"`
}

// Reschedule handles POST /appointments/{id}/reschedule.
func (h *AppointmentsHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req rescheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	appt, err := h.scheduler.RescheduleAppointment(r.Context(), id, req.Start)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /appointments/{id}/status.
func (h *AppointmentsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	appt, err := h.scheduler.UpdateStatus(r.Context(), id, schedule.Status(req.Status))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type createBlockRequest struct {
	BusinessID      string    `json:"business_id"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
	Reason          string    `json:"reason,omitempty"`
}

// CreateBlock handles POST /blocks.
func (h *AppointmentsHandler) CreateBlock(w http.ResponseWriter, r *http.Request) {
	var req createBlockRequest
	if !decodeBody(w, r, &req) {
		return
	}

	block, err := h.scheduler.CreateBlock(r.Context(), req.BusinessID, req.Start, req.DurationMinutes, req.Reason)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, block)
}

// Delete handles DELETE /appointments/{id}.
func (h *AppointmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.scheduler.DeleteEntry(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid appointment id"})
		return uuid.Nil, false
	}
	return id, true
}
