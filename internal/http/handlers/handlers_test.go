package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Dragonxt022/Express-Services-sub000/internal/addressbook"
	"github.com/Dragonxt022/Express-Services-sub000/internal/board"
	"github.com/Dragonxt022/Express-Services-sub000/internal/bookingflow"
	"github.com/Dragonxt022/Express-Services-sub000/internal/catalog"
	"github.com/Dragonxt022/Express-Services-sub000/internal/orders"
	"github.com/Dragonxt022/Express-Services-sub000/internal/schedule"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

type apiFixture struct {
	router   chi.Router
	calendar *schedule.MemoryCalendar
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	dir := catalog.NewMemoryDirectory()
	dir.PutProfessional(catalog.Professional{ID: "p1", Name: "Ana", Active: true})
	dir.PutProfessional(catalog.Professional{ID: "p2", Name: "Bruno", Active: true})
	dir.PutService(catalog.Service{
		ID: "svc-cut", Name: "Haircut", DurationMinutes: 30,
		Attendance: catalog.AttendanceBoth, Schedulable: true,
		Professionals: []string{"p1", "p2"},
	})

	hours, err := schedule.NewFixedHours("09:00", "18:00", 30*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	cal := schedule.NewMemoryCalendar()
	resolver := catalog.NewResolver(dir)
	engine := schedule.NewEngine(cal, resolver, hours, nil, logging.Default())
	scheduler := schedule.NewScheduler(cal, resolver, schedule.NoopLocker{}, time.Second, nil, nil, logging.Default())
	boardCtrl := board.NewController(cal, scheduler, engine, hours, logging.Default())
	coordinator := bookingflow.NewCoordinator(dir, engine, orders.NewSchedulerCheckout(scheduler), addressbook.NewMemoryBook(), logging.Default())

	r := chi.NewRouter()
	availability := NewAvailabilityHandler(engine, logging.Default())
	appointments := NewAppointmentsHandler(scheduler, logging.Default())
	boardHandler := NewBoardHandler(boardCtrl, logging.Default())
	sessions := NewSessionsHandler(coordinator, bookingflow.NewMemorySessionStore(), logging.Default())

	r.Get("/availability", availability.List)
	r.Post("/appointments", appointments.Create)
	r.Post("/appointments/{id}/reschedule", appointments.Reschedule)
	r.Patch("/appointments/{id}/status", appointments.UpdateStatus)
	r.Post("/blocks", appointments.CreateBlock)
	r.Get("/board/{businessID}/{date}", boardHandler.DayView)
	r.Post("/sessions", sessions.Start)
	r.Post("/sessions/{id}/location", sessions.SelectLocation)
	r.Post("/sessions/{id}/datetime", sessions.SelectDateTime)
	r.Post("/sessions/{id}/professional", sessions.SelectProfessional)
	r.Post("/sessions/{id}/confirm", sessions.Confirm)

	return &apiFixture{router: r, calendar: cal}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestAvailabilityEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/availability?business=biz-1&date=2026-09-01&services=svc-cut", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		WindowMinutes int                         `json:"window_minutes"`
		Eligible      []string                    `json:"eligible_professionals"`
		Slots         []schedule.AvailabilitySlot `json:"slots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.WindowMinutes != 30 || len(resp.Eligible) != 2 || len(resp.Slots) != 18 {
		t.Fatalf("unexpected availability payload: %+v", resp)
	}

	if rec := f.do(t, http.MethodGet, "/availability?business=biz-1&date=not-a-date&services=svc-cut", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date: got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/availability?date=2026-09-01&services=svc-cut", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing business: got %d", rec.Code)
	}
}

func TestCreateAppointmentEndpointStatusMapping(t *testing.T) {
	f := newAPIFixture(t)
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	payload := map[string]any{
		"business_id": "biz-1", "professional_id": "p1", "customer_id": "cust-1",
		"service_ids": []string{"svc-cut"}, "start": start, "location": "in_person",
	}

	rec := f.do(t, http.MethodPost, "/appointments", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d: %s", rec.Code, rec.Body)
	}

	// Same slot, same professional: conflict.
	if rec := f.do(t, http.MethodPost, "/appointments", payload); rec.Code != http.StatusConflict {
		t.Fatalf("conflict: got %d: %s", rec.Code, rec.Body)
	}

	// Validation failure: at-home without address.
	bad := map[string]any{
		"business_id": "biz-1", "professional_id": "p1",
		"service_ids": []string{"svc-cut"}, "start": start.Add(2 * time.Hour), "location": "at_home",
	}
	if rec := f.do(t, http.MethodPost, "/appointments", bad); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("validation: got %d: %s", rec.Code, rec.Body)
	}

	// Fatal failure: empty cart.
	fatal := map[string]any{"business_id": "biz-1", "professional_id": "p1", "service_ids": []string{}, "start": start, "location": "in_person"}
	if rec := f.do(t, http.MethodPost, "/appointments", fatal); rec.Code != http.StatusBadRequest {
		t.Fatalf("fatal: got %d: %s", rec.Code, rec.Body)
	}
}

func TestRescheduleEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	rec := f.do(t, http.MethodPost, "/appointments", map[string]any{
		"business_id": "biz-1", "professional_id": "p1", "customer_id": "cust-1",
		"service_ids": []string{"svc-cut"}, "start": start, "location": "in_person",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d", rec.Code)
	}
	var appt schedule.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatal(err)
	}

	rec = f.do(t, http.MethodPost, "/appointments/"+appt.ID.String()+"/reschedule", map[string]any{"start": start.Add(2 * time.Hour)})
	if rec.Code != http.StatusOK {
		t.Fatalf("reschedule: got %d: %s", rec.Code, rec.Body)
	}

	if rec := f.do(t, http.MethodPost, "/appointments/"+uuid.NewString()+"/reschedule", map[string]any{"start": start}); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id: got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/appointments/not-a-uuid/reschedule", map[string]any{"start": start}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: got %d", rec.Code)
	}
}

func TestStatusAndBlockEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	rec := f.do(t, http.MethodPost, "/appointments", map[string]any{
		"business_id": "biz-1", "professional_id": "p1",
		"service_ids": []string{"svc-cut"}, "start": start, "location": "in_person",
	})
	var appt schedule.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatal(err)
	}

	rec = f.do(t, http.MethodPatch, "/appointments/"+appt.ID.String()+"/status", map[string]any{"status": "in_progress"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body)
	}
	// Backward transition is a validation failure.
	rec = f.do(t, http.MethodPatch, "/appointments/"+appt.ID.String()+"/status", map[string]any{"status": "scheduled"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("backward status: got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/blocks", map[string]any{
		"business_id": "biz-1", "start": start.Add(4 * time.Hour), "duration_minutes": 60, "reason": "cleaning",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("block: got %d: %s", rec.Code, rec.Body)
	}
}

func TestBoardEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	if err := f.calendar.CreateChecked(context.Background(), &schedule.Appointment{
		ID: uuid.New(), BusinessID: "biz-1", ProfessionalID: "p1",
		ServiceIDs: []string{"svc-cut"},
		Start:      time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC), DurationMinutes: 30,
		Status: schedule.StatusScheduled, Kind: schedule.KindService,
	}); err != nil {
		t.Fatal(err)
	}

	rec := f.do(t, http.MethodGet, "/board/biz-1/2026-09-01", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("board: got %d: %s", rec.Code, rec.Body)
	}
	var view board.DayView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.BusinessID != "biz-1" || len(view.Cells) != 18 {
		t.Fatalf("unexpected view: business=%s cells=%d", view.BusinessID, len(view.Cells))
	}

	if rec := f.do(t, http.MethodGet, "/board/biz-1/bad-date", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date: got %d", rec.Code)
	}
}

func TestSessionFlowOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/sessions", map[string]any{
		"business_id": "biz-1", "customer_id": "cust-1", "service_ids": []string{"svc-cut"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: got %d: %s", rec.Code, rec.Body)
	}
	var created struct {
		Session         bookingflow.Session     `json:"session"`
		LocationOptions []schedule.LocationMode `json:"location_options"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if len(created.LocationOptions) != 2 {
		t.Fatalf("expected both location options, got %v", created.LocationOptions)
	}
	id := created.Session.ID

	step := func(path string, body any, wantStep bookingflow.Step) {
		t.Helper()
		rec := f.do(t, http.MethodPost, "/sessions/"+id+path, body)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: got %d: %s", path, rec.Code, rec.Body)
		}
		var resp struct {
			Session bookingflow.Session `json:"session"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Session.Step != wantStep {
			t.Fatalf("%s: step %s, want %s", path, resp.Session.Step, wantStep)
		}
	}

	start := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)
	step("/location", map[string]any{"location": "in_person"}, bookingflow.StepDateTime)
	step("/datetime", map[string]any{"start": start}, bookingflow.StepProfessional)
	step("/professional", map[string]any{"professional_id": "p1"}, bookingflow.StepReview)
	step("/confirm", nil, bookingflow.StepConfirmed)

	if rec := f.do(t, http.MethodPost, "/sessions/"+uuid.NewString()+"/confirm", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown session: got %d", rec.Code)
	}
}
