package usecase

import (
	"context"
	"time"

	"salon-booking/internal/data/entity"

	"github.com/shopspring/decimal"
)

// Publisher emits domain events. A nil Publisher disables publishing.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// SignalGuard deduplicates completion signals across instances. A nil
// guard disables it.
type SignalGuard interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type PaymentSucceededEvent struct {
	OrderID           string               `json:"order_id"`
	BookingID         string               `json:"booking_id"`
	ResourceID        string               `json:"resource_id"`
	PayerID           string               `json:"payer_id"`
	Amount            decimal.Decimal      `json:"amount"`
	Method            entity.PaymentMethod `json:"method"`
	ExternalPaymentID string               `json:"external_payment_id"`
	OccurredAt        time.Time            `json:"occurred_at"`
}

type InconsistencyEvent struct {
	ID             string                   `json:"id"`
	Kind           entity.InconsistencyKind `json:"kind"`
	BookingID      string                   `json:"booking_id"`
	PaymentOrderID string                   `json:"payment_order_id"`
	Reason         string                   `json:"reason"`
	OccurredAt     time.Time                `json:"occurred_at"`
}
