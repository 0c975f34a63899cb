package response

import (
	"time"

	"salon-booking/internal/data/entity"

	"github.com/shopspring/decimal"
)

type BookingResponse struct {
	ID         string               `json:"id"`
	ResourceID string               `json:"resource_id"`
	CustomerID string               `json:"customer_id"`
	ServiceIDs []string             `json:"service_ids"`
	StartTime  time.Time            `json:"start_time"`
	EndTime    time.Time            `json:"end_time"`
	TotalPrice decimal.Decimal      `json:"total_price"`
	Status     entity.BookingStatus `json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// SlotResponse is an occupied [start, end) window.
type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type ReportResponse struct {
	ResourceID     string          `json:"resource_id"`
	ResourceName   string          `json:"resource_name"`
	TotalEarnings  decimal.Decimal `json:"total_earnings"`
	TotalBookings  int             `json:"total_bookings"`
	CancelBookings int             `json:"cancel_bookings"`
	TotalRefund    decimal.Decimal `json:"total_refund"`
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	serviceIDs := make([]string, len(b.ServiceIDs))
	for i, id := range b.ServiceIDs {
		serviceIDs[i] = id.String()
	}

	return BookingResponse{
		ID:         b.ID.String(),
		ResourceID: b.ResourceID.String(),
		CustomerID: b.CustomerID.String(),
		ServiceIDs: serviceIDs,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		TotalPrice: b.TotalPrice,
		Status:     b.Status,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func BookingsToResponse(bookings []*entity.Booking) []BookingResponse {
	out := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = BookingToResponse(b)
	}
	return out
}
