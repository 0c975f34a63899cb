package response

import (
	"time"

	"salon-booking/internal/data/entity"

	"github.com/shopspring/decimal"
)

type PaymentOrderResponse struct {
	ID            string                    `json:"id"`
	Amount        decimal.Decimal           `json:"amount"`
	Method        entity.PaymentMethod      `json:"method"`
	PaymentLinkID *string                   `json:"payment_link_id,omitempty"`
	BookingID     string                    `json:"booking_id"`
	ResourceID    string                    `json:"resource_id"`
	PayerID       string                    `json:"payer_id"`
	Status        entity.PaymentOrderStatus `json:"status"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

type PaymentLinkResponse struct {
	OrderID        string `json:"order_id"`
	PaymentLinkURL string `json:"payment_link_url"`
	PaymentLinkID  string `json:"payment_link_id"`
}

// Confirmation outcomes.
const (
	OutcomeSuccess          = "success"
	OutcomeAlreadyProcessed = "already_processed"
	OutcomeNotFound         = "not_found"
	OutcomeRejected         = "rejected"
)

type ConfirmationResponse struct {
	Outcome          string                    `json:"outcome"`
	OrderID          string                    `json:"order_id,omitempty"`
	Status           entity.PaymentOrderStatus `json:"status,omitempty"`
	BookingConfirmed bool                      `json:"booking_confirmed"`
}

type TransactionResponse struct {
	ID                string               `json:"id"`
	PaymentOrderID    string               `json:"payment_order_id"`
	ResourceID        string               `json:"resource_id"`
	PayerID           string               `json:"payer_id"`
	Amount            decimal.Decimal      `json:"amount"`
	Method            entity.PaymentMethod `json:"method"`
	ExternalPaymentID string               `json:"external_payment_id"`
	CreatedAt         time.Time            `json:"created_at"`
}

type InconsistencyResponse struct {
	ID             string                   `json:"id"`
	Kind           entity.InconsistencyKind `json:"kind"`
	BookingID      string                   `json:"booking_id"`
	PaymentOrderID string                   `json:"payment_order_id"`
	Reason         string                   `json:"reason"`
	Attempts       int                      `json:"attempts"`
	ResolvedAt     *time.Time               `json:"resolved_at,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
}

func PaymentOrderToResponse(o *entity.PaymentOrder) PaymentOrderResponse {
	return PaymentOrderResponse{
		ID:            o.ID.String(),
		Amount:        o.Amount,
		Method:        o.Method,
		PaymentLinkID: o.PaymentLinkID,
		BookingID:     o.BookingID.String(),
		ResourceID:    o.ResourceID.String(),
		PayerID:       o.PayerID.String(),
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func PaymentOrdersToResponse(orders []*entity.PaymentOrder) []PaymentOrderResponse {
	out := make([]PaymentOrderResponse, len(orders))
	for i, o := range orders {
		out[i] = PaymentOrderToResponse(o)
	}
	return out
}

func TransactionsToResponse(txns []*entity.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i, t := range txns {
		out[i] = TransactionResponse{
			ID:                t.ID.String(),
			PaymentOrderID:    t.PaymentOrderID.String(),
			ResourceID:        t.ResourceID.String(),
			PayerID:           t.PayerID.String(),
			Amount:            t.Amount,
			Method:            t.Method,
			ExternalPaymentID: t.ExternalPaymentID,
			CreatedAt:         t.CreatedAt,
		}
	}
	return out
}

func InconsistenciesToResponse(items []*entity.Inconsistency) []InconsistencyResponse {
	out := make([]InconsistencyResponse, len(items))
	for i, inc := range items {
		out[i] = InconsistencyResponse{
			ID:             inc.ID.String(),
			Kind:           inc.Kind,
			BookingID:      inc.BookingID.String(),
			PaymentOrderID: inc.PaymentOrderID.String(),
			Reason:         inc.Reason,
			Attempts:       inc.Attempts,
			ResolvedAt:     inc.ResolvedAt,
			CreatedAt:      inc.CreatedAt,
		}
	}
	return out
}
