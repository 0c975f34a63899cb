package wire

import (
	"salon-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(r chi.Router, h *adaptor.BookingHandler) {
	r.Route("/api/bookings", func(r chi.Router) {
		r.Post("/", h.CreateBooking)

		r.Get("/customer/{id}", h.GetCustomerBookings)
		r.Get("/resource/{id}", h.GetResourceBookings)

		// occupied windows for greying out a day in the picker
		r.Get("/slots/resource/{id}/date/{date}", h.GetOccupiedSlots)
		r.Get("/report/resource/{id}", h.GetReport)

		r.Get("/{id}", h.GetBookingByID)
		r.Put("/{id}/status", h.UpdateStatus)
	})
}
