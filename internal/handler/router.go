package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter builds the chi router with the global middleware stack and
// every API route.
func NewRouter(h *Handler, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(log))             // structured access log
	r.Use(CORS)                    // permissive CORS for demo

	// Health
	r.Get("/health", HealthCheck)

	// API routes
	r.Route("/events/{id}", func(r chi.Router) {
		r.Get("/availability", h.Availability)
		r.Get("/remaining", h.Remaining)
		r.Post("/bookings", h.CommitBooking)
		r.Post("/bookings/validate", h.ValidateBooking)
		r.Post("/waitlist", h.JoinWaitlist)
		r.Get("/waitlist", h.ListWaitlist)
	})

	r.Get("/reservations/{id}", h.GetReservation)

	r.Route("/waitlist", func(r chi.Router) {
		r.Get("/", h.ListWaitlist)
		r.Post("/{entryID}/notify", h.NotifyEntry)
		r.Post("/{entryID}/remove", h.RemoveEntry)
	})

	return r
}
