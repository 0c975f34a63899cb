package wire

import (
	"salon-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wirePayment(r chi.Router, h *adaptor.PaymentHandler) {
	r.Route("/api/payments", func(r chi.Router) {
		r.Post("/", h.CreatePayment)

		// provider callbacks; unknown or replayed signals still get 200
		r.Post("/webhook", h.Webhook)
		r.Patch("/proceed", h.Proceed)

		r.Post("/pay-at-salon", h.PayAtSalon)

		r.Get("/resource/{id}", h.GetResourceOrders)
		r.Get("/{id}", h.GetOrderByID)
	})

	r.Get("/api/transactions/resource/{id}", h.GetResourceTransactions)
}

func wireReconcile(r chi.Router, h *adaptor.ReconcileHandler) {
	r.Route("/api/reconciliation", func(r chi.Router) {
		r.Get("/inconsistencies", h.ListInconsistencies)
		r.Post("/repair", h.Repair)
	})
}
