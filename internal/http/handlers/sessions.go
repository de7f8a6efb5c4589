package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dragonxt022/Express-Services-sub000/internal/bookingflow"
	"github.com/Dragonxt022/Express-Services-sub000/internal/schedule"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

// SessionsHandler drives booking sessions over HTTP. Each transition
// loads the session, applies the step, and saves the result; failed
// steps save nothing, so clients can simply retry.
type SessionsHandler struct {
	coordinator *bookingflow.Coordinator
	store       bookingflow.SessionStore
	logger      *logging.Logger
}

// NewSessionsHandler creates the handler.
func NewSessionsHandler(coordinator *bookingflow.Coordinator, store bookingflow.SessionStore, logger *logging.Logger) *SessionsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionsHandler{coordinator: coordinator, store: store, logger: logger}
}

type startSessionRequest struct {
	BusinessID string   `json:"business_id"`
	CustomerID string   `json:"customer_id"`
	ServiceIDs []string `json:"service_ids"`
}

type sessionResponse struct {
	Session bookingflow.Session     `json:"session"`
	// LocationOptions accompanies the location step so the client can
	// render only what the whole cart supports.
	LocationOptions []schedule.LocationMode `json:"location_options,omitempty"`
}

// Start handles POST /sessions.
func (h *SessionsHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	businessID, err := resolveBusinessID(r.Context(), req.BusinessID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	sess, err := h.coordinator.Start(r.Context(), businessID, req.CustomerID, req.ServiceIDs)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	options, err := h.coordinator.LocationOptions(r.Context(), sess)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.store.Save(r.Context(), sess); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Session: sess, LocationOptions: options})
}

// Get handles GET /sessions/{id}.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: *sess})
}

type selectLocationRequest struct {
	Location  string `json:"location"`
	AddressID string `json:"address_id,omitempty"`
}

// SelectLocation handles POST /sessions/{id}/location.
func (h *SessionsHandler) SelectLocation(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	var req selectLocationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.applyStep(w, r, func() (bookingflow.Session, error) {
		return h.coordinator.SelectLocation(r.Context(), *sess, schedule.LocationMode(req.Location), req.AddressID)
	})
}

type selectDateTimeRequest struct {
	Start time.Time `json:"start"`
}

// SelectDateTime handles POST /sessions/{id}/datetime.
func (h *SessionsHandler) SelectDateTime(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	var req selectDateTimeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.applyStep(w, r, func() (bookingflow.Session, error) {
		return h.coordinator.SelectDateTime(r.Context(), *sess, req.Start)
	})
}

// ProfessionalOptions handles GET /sessions/{id}/professionals.
func (h *SessionsHandler) ProfessionalOptions(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	options, err := h.coordinator.ProfessionalOptions(r.Context(), *sess)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"professionals": options})
}

type selectProfessionalRequest struct {
	ProfessionalID string `json:"professional_id"`
}

// SelectProfessional handles POST /sessions/{id}/professional.
func (h *SessionsHandler) SelectProfessional(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	var req selectProfessionalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.applyStep(w, r, func() (bookingflow.Session, error) {
		return h.coordinator.SelectProfessional(r.Context(), *sess, req.ProfessionalID)
	})
}

// Confirm handles POST /sessions/{id}/confirm. On a conflict the
// rerouted session is saved before the 409 goes out, so the customer
// resumes at time selection.
func (h *SessionsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	after, err := h.coordinator.Confirm(r.Context(), *sess)
	if err != nil {
		if schedule.IsConflict(err) {
			if saveErr := h.store.Save(r.Context(), after); saveErr != nil {
				writeError(w, h.logger, saveErr)
				return
			}
		}
		writeError(w, h.logger, err)
		return
	}
	if err := h.store.Save(r.Context(), after); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: after})
}

func (h *SessionsHandler) loadSession(w http.ResponseWriter, r *http.Request) (*bookingflow.Session, bool) {
	sess, err := h.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return nil, false
	}
	return sess, true
}

func (h *SessionsHandler) applyStep(w http.ResponseWriter, r *http.Request, step func() (bookingflow.Session, error)) {
	after, err := step()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.store.Save(r.Context(), after); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: after})
}
