// Package router assembles the HTTP surface: public availability and
// booking endpoints, JWT-guarded admin board routes, the live
// websocket stream, and operational endpoints.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Dragonxt022/Express-Services-sub000/internal/http/handlers"
	httpmiddleware "github.com/Dragonxt022/Express-Services-sub000/internal/http/middleware"
	"github.com/Dragonxt022/Express-Services-sub000/internal/live"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger *logging.Logger

	Availability *handlers.AvailabilityHandler
	Appointments *handlers.AppointmentsHandler
	Sessions     *handlers.SessionsHandler
	Board        *handlers.BoardHandler
	LiveHandler  *live.Handler

	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates the Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Operational endpoints.
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Public read surface.
	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.RateLimit(20, 40))
		public.Get("/availability", cfg.Availability.List)
	})

	// Customer write surface.
	r.Group(func(api chi.Router) {
		api.Use(httpmiddleware.RateLimit(10, 20))
		api.Use(requireBusinessID)

		api.Post("/appointments", cfg.Appointments.Create)
		api.Post("/appointments/{id}/reschedule", cfg.Appointments.Reschedule)
		api.Patch("/appointments/{id}/status", cfg.Appointments.UpdateStatus)

		if cfg.Sessions != nil {
			api.Route("/sessions", func(s chi.Router) {
				s.Post("/", cfg.Sessions.Start)
				s.Get("/{id}", cfg.Sessions.Get)
				s.Post("/{id}/location", cfg.Sessions.SelectLocation)
				s.Post("/{id}/datetime", cfg.Sessions.SelectDateTime)
				s.Get("/{id}/professionals", cfg.Sessions.ProfessionalOptions)
				s.Post("/{id}/professional", cfg.Sessions.SelectProfessional)
				s.Post("/{id}/confirm", cfg.Sessions.Confirm)
			})
		}
	})

	// Admin surface: the schedule board and company-wide blocks.
	r.Group(func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))

		admin.Get("/board/{businessID}/{date}", cfg.Board.DayView)
		admin.Post("/board/appointments/{id}/reschedule", cfg.Board.BeginReschedule)
		admin.Put("/board/appointments/{id}/reschedule", cfg.Board.CompleteReschedule)
		admin.Post("/blocks", cfg.Appointments.CreateBlock)
		admin.Delete("/appointments/{id}", cfg.Appointments.Delete)
	})

	// Live updates; unauthenticated, events carry ids only.
	if cfg.LiveHandler != nil {
		r.Get("/live/{businessID}", cfg.LiveHandler.HandleStream)
	}

	return r
}
