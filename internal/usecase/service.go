package usecase

import (
	"net/http"

	"salon-booking/internal/data/repository"
	"salon-booking/internal/gateway"
	"salon-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Booking   BookingService
	Payment   PaymentService
	Reconcile ReconcileService
	Report    ReportService
}

// Deps are the optional collaborators; nil Publisher or Guard disables
// the feature.
type Deps struct {
	Gateways  *gateway.Registry
	Publisher Publisher
	Guard     SignalGuard
}

func NewService(repo *repository.Repository, config *utils.Config, deps Deps, log *zap.Logger) *Service {
	if deps.Gateways == nil {
		deps.Gateways = gateway.NewRegistry()
	}

	booking := NewBookingService(repo, config.App.Location, log)

	var confirmer BookingConfirmer
	if config.Reconcile.BookingServiceURL != "" {
		confirmer = NewHTTPConfirmer(config.Reconcile.BookingServiceURL, &http.Client{}, log)
	} else {
		confirmer = NewLocalConfirmer(booking)
	}

	return &Service{
		Booking:   booking,
		Payment:   NewPaymentService(repo, deps.Gateways, config.Payment, log),
		Reconcile: NewReconcileService(repo, deps.Gateways, confirmer, deps.Publisher, deps.Guard, config.Reconcile, log),
		Report:    NewReportService(repo.Catalog, repo.Booking, log),
	}
}
