package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Dragonxt022/Express-Services-sub000/internal/addressbook"
	"github.com/Dragonxt022/Express-Services-sub000/internal/board"
	"github.com/Dragonxt022/Express-Services-sub000/internal/bookingflow"
	"github.com/Dragonxt022/Express-Services-sub000/internal/catalog"
	"github.com/Dragonxt022/Express-Services-sub000/internal/http/handlers"
	"github.com/Dragonxt022/Express-Services-sub000/internal/orders"
	"github.com/Dragonxt022/Express-Services-sub000/internal/schedule"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

const testAdminSecret = "router-test-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	dir := catalog.NewMemoryDirectory()
	dir.PutProfessional(catalog.Professional{ID: "p1", Name: "Ana", Active: true})
	dir.PutService(catalog.Service{
		ID: "svc-cut", Name: "Haircut", DurationMinutes: 30,
		Attendance: catalog.AttendanceInPerson, Schedulable: true,
		Professionals: []string{"p1"},
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

	return New(&Config{
		Logger:          logging.Default(),
		Availability:    handlers.NewAvailabilityHandler(engine, logging.Default()),
		Appointments:    handlers.NewAppointmentsHandler(scheduler, logging.Default()),
		Sessions:        handlers.NewSessionsHandler(coordinator, bookingflow.NewMemorySessionStore(), logging.Default()),
		Board:           handlers.NewBoardHandler(boardCtrl, logging.Default()),
		AdminAuthSecret: testAdminSecret,
	})
}

func adminToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testAdminSecret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %s", rec.Body)
	}
}

func TestAvailabilityIsPublic(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/availability?business=biz-1&date=2026-09-01&services=svc-cut", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body)
	}
}

func TestCustomerWritesRequireBusinessHeader(t *testing.T) {
	r := newTestRouter(t)

	payload, _ := json.Marshal(map[string]any{
		"business_id": "biz-1", "professional_id": "p1",
		"service_ids": []string{"svc-cut"},
		"start":       time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		"location":    "in_person",
	})

	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("without header: got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader(payload))
	req.Header.Set("X-Business-Id", "biz-1")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("with header: got %d: %s", rec.Code, rec.Body)
	}
}

func TestCustomerWritesRejectBusinessMismatch(t *testing.T) {
	r := newTestRouter(t)

	payload, _ := json.Marshal(map[string]any{
		"business_id": "biz-1", "professional_id": "p1",
		"service_ids": []string{"svc-cut"},
		"start":       time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		"location":    "in_person",
	})
	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader(payload))
	req.Header.Set("X-Business-Id", "biz-2")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("mismatched tenant: got %d: %s", rec.Code, rec.Body)
	}

	// An omitted body id inherits the header's tenant.
	payload, _ = json.Marshal(map[string]any{
		"professional_id": "p1",
		"service_ids":     []string{"svc-cut"},
		"start":           time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC),
		"location":        "in_person",
	})
	req = httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader(payload))
	req.Header.Set("X-Business-Id", "biz-1")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("inherited tenant: got %d: %s", rec.Code, rec.Body)
	}
	var appt schedule.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatal(err)
	}
	if appt.BusinessID != "biz-1" {
		t.Fatalf("appointment bound to %q, want biz-1", appt.BusinessID)
	}
}

func TestBoardRequiresAdminToken(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/board/biz-1/2026-09-01", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("without token: got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/board/biz-1/2026-09-01", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with token: got %d: %s", rec.Code, rec.Body)
	}
}

func TestBlocksAreAdminOnly(t *testing.T) {
	r := newTestRouter(t)

	payload, _ := json.Marshal(map[string]any{
		"business_id": "biz-1",
		"start":       time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		"duration_minutes": 60,
	})

	req := httptest.NewRequest(http.MethodPost, "/blocks", bytes.NewReader(payload))
	req.Header.Set("X-Business-Id", "biz-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("without token: got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/blocks", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("with token: got %d: %s", rec.Code, rec.Body)
	}
}
