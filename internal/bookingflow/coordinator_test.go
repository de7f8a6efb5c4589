package bookingflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Dragonxt022/Express-Services-sub000/internal/addressbook"
	"github.com/Dragonxt022/Express-Services-sub000/internal/catalog"
	"github.com/Dragonxt022/Express-Services-sub000/internal/orders"
	"github.com/Dragonxt022/Express-Services-sub000/internal/schedule"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

type flowFixture struct {
	coordinator *Coordinator
	calendar    *schedule.MemoryCalendar
	addresses   *addressbook.MemoryBook
	now         time.Time
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	dir := catalog.NewMemoryDirectory()
	dir.PutProfessional(catalog.Professional{ID: "p1", Name: "Ana", Active: true})
	dir.PutProfessional(catalog.Professional{ID: "p2", Name: "Bruno", Active: true})
	dir.PutService(catalog.Service{
		ID: "svc-cut", Name: "Haircut", DurationMinutes: 30,
		Attendance: catalog.AttendanceBoth, Schedulable: true,
		Professionals: []string{"p1", "p2"},
	})
	dir.PutService(catalog.Service{
		ID: "svc-home", Name: "Home visit", DurationMinutes: 30,
		Attendance: catalog.AttendanceAtHome, Schedulable: true,
		Professionals: []string{"p2"},
	})
	dir.PutService(catalog.Service{
		ID: "svc-salon", Name: "Salon only", DurationMinutes: 30,
		Attendance: catalog.AttendanceInPerson, Schedulable: true,
		Professionals: []string{"p1"},
	})
	dir.PutService(catalog.Service{
		ID: "svc-walkin", Name: "Walk-in", DurationMinutes: 15,
		Attendance: catalog.AttendanceInPerson, Schedulable: false,
		Professionals: []string{"p1", "p2"},
	})

	hours, err := schedule.NewFixedHours("09:00", "18:00", 15*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	cal := schedule.NewMemoryCalendar()
	resolver := catalog.NewResolver(dir)
	engine := schedule.NewEngine(cal, resolver, hours, nil, logging.Default())
	scheduler := schedule.NewScheduler(cal, resolver, schedule.NoopLocker{}, time.Second, nil, nil, logging.Default())
	addresses := addressbook.NewMemoryBook()

	now := time.Date(2026, 9, 1, 10, 5, 0, 0, time.UTC)
	coordinator := NewCoordinator(dir, engine, orders.NewSchedulerCheckout(scheduler), addresses, logging.Default(),
		WithClock(func() time.Time { return now }))

	return &flowFixture{coordinator: coordinator, calendar: cal, addresses: addresses, now: now}
}

func (f *flowFixture) reachReview(t *testing.T, start time.Time) Session {
	t.Helper()
	ctx := context.Background()

	s, err := f.coordinator.Start(ctx, "biz-1", "cust-1", []string{"svc-cut"})
	if err != nil {
		t.Fatal(err)
	}
	if s, err = f.coordinator.SelectLocation(ctx, s, schedule.LocationInPerson, ""); err != nil {
		t.Fatal(err)
	}
	if s, err = f.coordinator.SelectDateTime(ctx, s, start); err != nil {
		t.Fatal(err)
	}
	if s, err = f.coordinator.SelectProfessional(ctx, s, "p1"); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestFlowHappyPath(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()
	start := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)

	s := f.reachReview(t, start)
	if s.Step != StepReview {
		t.Fatalf("expected review step, got %s", s.Step)
	}

	s, err := f.coordinator.Confirm(ctx, s)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if s.Step != StepConfirmed || s.AppointmentID == "" || s.OrderID == "" {
		t.Fatalf("confirmation incomplete: %+v", s)
	}

	appt, err := f.calendar.Get(ctx, uuid.MustParse(s.AppointmentID))
	if err != nil {
		t.Fatalf("appointment not persisted: %v", err)
	}
	if !appt.Start.Equal(start) || appt.ProfessionalID != "p1" {
		t.Errorf("persisted appointment differs from session: %+v", appt)
	}
}

func TestFlowMixedCartHasNoLocationAndNeverAdvances(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	s, err := f.coordinator.Start(ctx, "biz-1", "cust-1", []string{"svc-home", "svc-salon"})
	if err != nil {
		t.Fatal(err)
	}

	options, err := f.coordinator.LocationOptions(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if len(options) != 0 {
		t.Fatalf("in-person-only plus at-home-only must yield zero options, got %v", options)
	}

	for _, mode := range []schedule.LocationMode{schedule.LocationInPerson, schedule.LocationAtHome} {
		after, err := f.coordinator.SelectLocation(ctx, s, mode, "")
		if !schedule.IsValidation(err) {
			t.Fatalf("mode %s: expected validation failure, got %v", mode, err)
		}
		if after.Step != StepLocation {
			t.Fatalf("mode %s: session advanced despite failure", mode)
		}
	}
}

func TestFlowAtHomeRequiresOwnedAddress(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	s, err := f.coordinator.Start(ctx, "biz-1", "cust-1", []string{"svc-home"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.coordinator.SelectLocation(ctx, s, schedule.LocationAtHome, ""); !schedule.IsValidation(err) {
		t.Fatalf("missing address must fail validation, got %v", err)
	}
	if _, err := f.coordinator.SelectLocation(ctx, s, schedule.LocationAtHome, "addr-unknown"); !schedule.IsValidation(err) {
		t.Fatalf("unknown address must fail validation, got %v", err)
	}

	addr, err := f.addresses.CreateAddress(ctx, addressbook.Address{
		CustomerID: "cust-1", Label: "home", Street: "Rua A", Number: "10", City: "Sao Paulo",
	})
	if err != nil {
		t.Fatal(err)
	}
	s, err = f.coordinator.SelectLocation(ctx, s, schedule.LocationAtHome, addr.ID)
	if err != nil {
		t.Fatalf("SelectLocation with owned address: %v", err)
	}
	if s.Step != StepDateTime || s.AddressID != addr.ID {
		t.Fatalf("unexpected session after location select: %+v", s)
	}
}

func TestFlowNonSchedulableForcesImmediateMode(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	s, err := f.coordinator.Start(ctx, "biz-1", "cust-1", []string{"svc-cut", "svc-walkin"})
	if err != nil {
		t.Fatal(err)
	}
	if s.Mode != ModeImmediate {
		t.Fatalf("non-schedulable service must force immediate mode, got %s", s.Mode)
	}

	s, err = f.coordinator.SelectLocation(ctx, s, schedule.LocationInPerson, "")
	if err != nil {
		t.Fatal(err)
	}
	// Date/time selection is skipped; the earliest slot at or after
	// "now" (10:05) is picked automatically.
	if s.Step != StepProfessional {
		t.Fatalf("immediate mode must skip date/time selection, got step %s", s.Step)
	}
	want := time.Date(2026, 9, 1, 10, 15, 0, 0, time.UTC)
	if !s.Start.Equal(want) {
		t.Fatalf("expected auto-picked start %s, got %s", want, s.Start)
	}

	if _, err := f.coordinator.SelectDateTime(ctx, s, want.Add(time.Hour)); !schedule.IsValidation(err) {
		t.Fatalf("date/time selection must be rejected for immediate sessions, got %v", err)
	}
}

func TestFlowUnavailableSlotPickStaysInPlace(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()
	start := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)

	// Occupy both eligible professionals at the target slot.
	for _, professional := range []string{"p1", "p2"} {
		if err := f.calendar.CreateChecked(ctx, &schedule.Appointment{
			ID: uuid.New(), BusinessID: "biz-1", ProfessionalID: professional,
			ServiceIDs: []string{"svc-cut"}, Start: start, DurationMinutes: 30,
			Status: schedule.StatusScheduled, Kind: schedule.KindService,
		}); err != nil {
			t.Fatal(err)
		}
	}

	s, err := f.coordinator.Start(ctx, "biz-1", "cust-1", []string{"svc-cut"})
	if err != nil {
		t.Fatal(err)
	}
	if s, err = f.coordinator.SelectLocation(ctx, s, schedule.LocationInPerson, ""); err != nil {
		t.Fatal(err)
	}

	after, err := f.coordinator.SelectDateTime(ctx, s, start)
	if !schedule.IsValidation(err) {
		t.Fatalf("expected retryable validation failure, got %v", err)
	}
	if after.Step != StepDateTime || !after.Start.IsZero() {
		t.Fatalf("session must stay at date/time selection: %+v", after)
	}

	// The very next pick can succeed without restarting the flow.
	if _, err := f.coordinator.SelectDateTime(ctx, after, start.Add(time.Hour)); err != nil {
		t.Fatalf("retry after failed pick: %v", err)
	}
}

func TestFlowBusyProfessionalNotSelectable(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()
	start := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)

	if err := f.calendar.CreateChecked(ctx, &schedule.Appointment{
		ID: uuid.New(), BusinessID: "biz-1", ProfessionalID: "p1",
		ServiceIDs: []string{"svc-cut"}, Start: start, DurationMinutes: 30,
		Status: schedule.StatusScheduled, Kind: schedule.KindService,
	}); err != nil {
		t.Fatal(err)
	}

	s, err := f.coordinator.Start(ctx, "biz-1", "cust-1", []string{"svc-cut"})
	if err != nil {
		t.Fatal(err)
	}
	if s, err = f.coordinator.SelectLocation(ctx, s, schedule.LocationInPerson, ""); err != nil {
		t.Fatal(err)
	}
	if s, err = f.coordinator.SelectDateTime(ctx, s, start); err != nil {
		t.Fatal(err)
	}

	options, err := f.coordinator.ProfessionalOptions(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	byID := make(map[string]ProfessionalOption, len(options))
	for _, opt := range options {
		byID[opt.ID] = opt
	}
	if !byID["p1"].Busy || byID["p2"].Busy {
		t.Fatalf("expected p1 busy and p2 free, got %+v", options)
	}
	if byID["p1"].Name != "Ana" {
		t.Errorf("professional names not resolved: %+v", byID["p1"])
	}

	if _, err := f.coordinator.SelectProfessional(ctx, s, "p1"); !schedule.IsValidation(err) {
		t.Fatalf("busy professional must not be selectable, got %v", err)
	}
	if _, err := f.coordinator.SelectProfessional(ctx, s, "p2"); err != nil {
		t.Fatalf("free professional: %v", err)
	}
}

func TestFlowConfirmConflictRoutesBackToTimeSelection(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()
	start := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)

	s := f.reachReview(t, start)

	// Another booking takes p1's slot between review and confirm.
	if err := f.calendar.CreateChecked(ctx, &schedule.Appointment{
		ID: uuid.New(), BusinessID: "biz-1", ProfessionalID: "p1",
		ServiceIDs: []string{"svc-cut"}, Start: start, DurationMinutes: 30,
		Status: schedule.StatusScheduled, Kind: schedule.KindService,
	}); err != nil {
		t.Fatal(err)
	}

	after, err := f.coordinator.Confirm(ctx, s)
	if !schedule.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if after.Step != StepDateTime {
		t.Fatalf("conflict must route back to time selection, got %s", after.Step)
	}
	if !after.Start.IsZero() || after.ProfessionalID != "" {
		t.Fatalf("stale slot/professional must be cleared: %+v", after)
	}
	if after.Location != schedule.LocationInPerson {
		t.Error("location choice must survive the reroute")
	}
}
