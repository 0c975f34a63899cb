package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// bookingTransitions lists every legal (from, to) pair. Same-status
// requests are handled by the caller as a no-op and are not listed here.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a booking in status s may move to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Active statuses hold their slot on the resource time axis.
func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

type Booking struct {
	Base
	ResourceID uuid.UUID       `db:"resource_id"`
	CustomerID uuid.UUID       `db:"customer_id"`
	ServiceIDs []uuid.UUID     `db:"service_ids"`
	StartTime  time.Time       `db:"start_time"`
	EndTime    time.Time       `db:"end_time"`
	TotalPrice decimal.Decimal `db:"total_price"`
	Status     BookingStatus   `db:"status"`
}

// Overlaps uses half-open [start, end) semantics: a booking that ends
// exactly when the other starts does not overlap it.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && start.Before(b.EndTime)
}
