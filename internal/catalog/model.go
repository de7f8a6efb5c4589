package catalog

// AttendanceMode says where a service can be performed.
type AttendanceMode string

const (
	AttendanceInPerson AttendanceMode = "in_person"
	AttendanceAtHome   AttendanceMode = "at_home"
	AttendanceBoth     AttendanceMode = "both"
)

// AllowsInPerson reports whether the mode permits in-person attendance.
func (m AttendanceMode) AllowsInPerson() bool {
	return m == AttendanceInPerson || m == AttendanceBoth
}

// AllowsAtHome reports whether the mode permits at-home attendance.
func (m AttendanceMode) AllowsAtHome() bool {
	return m == AttendanceAtHome || m == AttendanceBoth
}

// Service is a bookable catalog entry. Owned by the catalog service;
// immutable for the duration of a booking session.
type Service struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	DurationMinutes int            `json:"duration_minutes"`
	BufferMinutes   int            `json:"buffer_minutes"`
	Attendance      AttendanceMode `json:"attendance"`
	// Schedulable=false means the service only supports immediate
	// (ASAP) booking, never a future time slot.
	Schedulable   bool     `json:"schedulable"`
	Professionals []string `json:"professionals"`
	PriceCents    int64    `json:"price_cents"`
}

// Professional is a staff member who performs services.
type Professional struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Active   bool     `json:"active"`
	Services []string `json:"services"`
}

// TotalWindowMinutes sums durations and buffers for a cart executed
// sequentially by one professional.
func TotalWindowMinutes(services []Service) int {
	total := 0
	for _, svc := range services {
		total += svc.DurationMinutes + svc.BufferMinutes
	}
	return total
}
