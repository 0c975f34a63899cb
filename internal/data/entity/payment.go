package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodOmise      PaymentMethod = "omise"
	PaymentMethodStripe     PaymentMethod = "stripe"
	PaymentMethodPayAtSalon PaymentMethod = "pay_at_salon"
)

func (m PaymentMethod) Online() bool {
	return m == PaymentMethodOmise || m == PaymentMethodStripe
}

type PaymentOrderStatus string

const (
	PaymentOrderStatusPending             PaymentOrderStatus = "pending"
	PaymentOrderStatusSuccess             PaymentOrderStatus = "success"
	PaymentOrderStatusPendingSalonPayment PaymentOrderStatus = "pending_salon_payment"
)

// Terminal reports whether the order can no longer be transitioned by
// this service. Pay-at-salon orders are settled out of band.
func (s PaymentOrderStatus) Terminal() bool {
	return s == PaymentOrderStatusSuccess || s == PaymentOrderStatusPendingSalonPayment
}

type PaymentOrder struct {
	Base
	Amount        decimal.Decimal    `db:"amount"`
	Method        PaymentMethod      `db:"method"`
	PaymentLinkID *string            `db:"payment_link_id"`
	BookingID     uuid.UUID          `db:"booking_id"`
	ResourceID    uuid.UUID          `db:"resource_id"`
	PayerID       uuid.UUID          `db:"payer_id"`
	Status        PaymentOrderStatus `db:"status"`
}

// PayAtSalonRef is the synthetic external reference given to orders that
// never touch a payment provider.
func PayAtSalonRef(bookingID uuid.UUID) string {
	return "pay_at_salon_" + bookingID.String()
}
