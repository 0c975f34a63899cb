package repository

import (
	"salon-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Catalog       CatalogRepository
	Booking       BookingRepository
	PaymentOrder  PaymentOrderRepository
	Transaction   TransactionRepository
	Inconsistency InconsistencyRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Catalog:       NewCatalogRepository(db, log),
		Booking:       NewBookingRepository(db, log),
		PaymentOrder:  NewPaymentOrderRepository(db, log),
		Transaction:   NewTransactionRepository(db, log),
		Inconsistency: NewInconsistencyRepository(db, log),
	}
}
