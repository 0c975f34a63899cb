package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is the settlement record written when a payment order
// reaches success.
type Transaction struct {
	BaseSimple
	PaymentOrderID    uuid.UUID       `db:"payment_order_id"`
	ResourceID        uuid.UUID       `db:"resource_id"`
	PayerID           uuid.UUID       `db:"payer_id"`
	Amount            decimal.Decimal `db:"amount"`
	Method            PaymentMethod   `db:"method"`
	ExternalPaymentID string          `db:"external_payment_id"`
}
