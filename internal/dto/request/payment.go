package request

import "github.com/shopspring/decimal"

type CreatePaymentRequest struct {
	BookingID  string `json:"booking_id" validate:"required,uuid"`
	PayerID    string `json:"payer_id" validate:"required,uuid"`
	PayerName  string `json:"payer_name" validate:"omitempty,max=100"`
	PayerEmail string `json:"payer_email" validate:"omitempty,email"`
	Method     string `json:"method" validate:"required,oneof=omise stripe"`
}

// PaymentWebhookRequest is the completion signal pushed by a provider.
type PaymentWebhookRequest struct {
	PaymentID     string `json:"payment_id" validate:"max=255"`
	PaymentLinkID string `json:"payment_link_id" validate:"required,max=255"`
	Status        string `json:"status" validate:"required,max=64"`
}

type ProceedPaymentRequest struct {
	PaymentID     string `validate:"required,max=255"`
	PaymentLinkID string `validate:"required,max=255"`
}

type PayAtSalonRequest struct {
	BookingID  string          `json:"booking_id" validate:"required,uuid"`
	Amount     decimal.Decimal `json:"amount"`
	ResourceID string          `json:"resource_id" validate:"required,uuid"`
	PayerID    string          `json:"payer_id" validate:"required,uuid"`
}
