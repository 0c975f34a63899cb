package entity

import (
	"time"

	"github.com/google/uuid"
)

type InconsistencyKind string

const (
	// payment recorded, booking confirmation call failed
	InconsistencyBookingNotConfirmed InconsistencyKind = "booking_not_confirmed"
	// a second order for an already settled booking was paid
	InconsistencyDuplicatePayment InconsistencyKind = "duplicate_payment"
)

type Inconsistency struct {
	Base
	Kind           InconsistencyKind `db:"kind"`
	BookingID      uuid.UUID         `db:"booking_id"`
	PaymentOrderID uuid.UUID         `db:"payment_order_id"`
	Reason         string            `db:"reason"`
	Attempts       int               `db:"attempts"`
	ResolvedAt     *time.Time        `db:"resolved_at"`
}

func (i *Inconsistency) Resolved() bool {
	return i.ResolvedAt != nil
}
