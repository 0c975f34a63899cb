package adaptor

import (
	"salon-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Booking   *BookingHandler
	Payment   *PaymentHandler
	Reconcile *ReconcileHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Booking:   NewBookingHandler(service.Booking, service.Report, log),
		Payment:   NewPaymentHandler(service.Payment, service.Reconcile, log),
		Reconcile: NewReconcileHandler(service.Reconcile, log),
	}
}
