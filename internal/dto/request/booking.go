package request

import "time"

// CreateBookingRequest: ResourceID and CustomerID come from the query
// string, the rest from the JSON body.
type CreateBookingRequest struct {
	ResourceID string    `json:"-" validate:"required,uuid"`
	CustomerID string    `json:"-" validate:"required,uuid"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	ServiceIDs []string  `json:"service_ids" validate:"required,min=1,unique,dive,uuid"`
}

type UpdateBookingStatusRequest struct {
	BookingID string `json:"-" validate:"required,uuid"`
	Status    string `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

type OccupiedSlotsRequest struct {
	ResourceID string `validate:"required,uuid"`
	Date       string `validate:"required,datetime=2006-01-02"`
}
