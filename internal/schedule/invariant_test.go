package schedule

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Dragonxt022/Express-Services-sub000/internal/catalog"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

// Randomized mix of creations, reschedules and cancellations. After
// every accepted mutation, no professional may hold two overlapping
// active entries. Rejected mutations must be conflicts or validation
// failures, never silent corruption.
func TestCalendarNeverDoubleBooks(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	dir := catalog.NewMemoryDirectory()
	professionals := []string{"p1", "p2", "p3"}
	for _, id := range professionals {
		dir.PutProfessional(catalog.Professional{ID: id, Active: true})
	}
	dir.PutService(catalog.Service{
		ID: "svc", DurationMinutes: 45, BufferMinutes: 15,
		Attendance: catalog.AttendanceBoth, Schedulable: true,
		Professionals: professionals,
	})

	cal := NewMemoryCalendar()
	sched := NewScheduler(cal, catalog.NewResolver(dir), NoopLocker{}, time.Second, nil, nil, logging.Default())

	ctx := context.Background()
	day := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	var created []uuid.UUID

	randomStart := func() time.Time {
		return day.Add(time.Duration(rng.Intn(32)) * 15 * time.Minute)
	}

	for i := 0; i < 500; i++ {
		switch op := rng.Intn(10); {
		case op < 6:
			appt, err := sched.CreateAppointment(ctx, CreateRequest{
				BusinessID:     "biz-1",
				ProfessionalID: professionals[rng.Intn(len(professionals))],
				ServiceIDs:     []string{"svc"},
				Start:          randomStart(),
				Location:       LocationInPerson,
			})
			if err == nil {
				created = append(created, appt.ID)
			} else if !IsConflict(err) {
				t.Fatalf("op %d: unexpected create failure: %v", i, err)
			}
		case op < 8 && len(created) > 0:
			id := created[rng.Intn(len(created))]
			_, err := sched.RescheduleAppointment(ctx, id, randomStart())
			if err != nil && !IsConflict(err) && !IsValidation(err) {
				t.Fatalf("op %d: unexpected reschedule failure: %v", i, err)
			}
		case len(created) > 0:
			id := created[rng.Intn(len(created))]
			_, err := sched.UpdateStatus(ctx, id, StatusCancelled)
			if err != nil && !IsValidation(err) {
				t.Fatalf("op %d: unexpected cancel failure: %v", i, err)
			}
		}

		assertNoOverlaps(t, cal, "biz-1", day)
	}
}

func assertNoOverlaps(t *testing.T, cal *MemoryCalendar, businessID string, day time.Time) {
	t.Helper()
	entries, err := cal.ListDay(context.Background(), businessID, day)
	if err != nil {
		t.Fatal(err)
	}
	for i := range entries {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			if !a.Active() || !b.Active() {
				continue
			}
			if a.Kind != KindService || b.Kind != KindService {
				continue
			}
			if a.ProfessionalID != b.ProfessionalID {
				continue
			}
			if a.Overlaps(b.Start, b.DurationMinutes) {
				t.Fatalf("double booking: %s holds %s and %s", a.ProfessionalID, a.Start, b.Start)
			}
		}
	}
}
