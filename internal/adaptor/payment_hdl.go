package adaptor

import (
	"encoding/json"
	"net/http"

	"salon-booking/internal/dto/request"
	"salon-booking/internal/usecase"
	"salon-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	payment   usecase.PaymentService
	reconcile usecase.ReconcileService
	log       *zap.Logger
}

func NewPaymentHandler(payment usecase.PaymentService, reconcile usecase.ReconcileService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		payment:   payment,
		reconcile: reconcile,
		log:       log.With(zap.String("handler", "payment")),
	}
}

// CreatePayment handles POST /api/payments
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	link, err := h.payment.CreateOrder(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create payment")
		return
	}

	utils.ResponseCreated(w, "Payment link created", link)
}

// Webhook handles POST /api/payments/webhook. Unknown and duplicate
// signals are acknowledged with 200 so the provider stops retrying.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req request.PaymentWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.reconcile.ConfirmPayment(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "confirm payment")
		return
	}

	utils.ResponseSuccess(w, result.Outcome, result)
}

// Proceed handles PATCH /api/payments/proceed?payment_id=&payment_link_id=
func (h *PaymentHandler) Proceed(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := request.ProceedPaymentRequest{
		PaymentID:     query.Get("payment_id"),
		PaymentLinkID: query.Get("payment_link_id"),
	}

	result, err := h.reconcile.ProceedPayment(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "proceed payment")
		return
	}

	utils.ResponseSuccess(w, result.Outcome, result)
}

// PayAtSalon handles POST /api/payments/pay-at-salon
func (h *PaymentHandler) PayAtSalon(w http.ResponseWriter, r *http.Request) {
	var req request.PayAtSalonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	order, err := h.reconcile.PayAtSalon(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "pay at salon")
		return
	}

	utils.ResponseCreated(w, "Payment will be collected at the salon", order)
}

// GetOrderByID handles GET /api/payments/{id}
func (h *PaymentHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	order, err := h.payment.GetOrderByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get payment order")
		return
	}

	utils.ResponseSuccess(w, "success", order)
}

// GetResourceOrders handles GET /api/payments/resource/{id}
func (h *PaymentHandler) GetResourceOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.payment.GetResourceOrders(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get salon payment orders")
		return
	}

	utils.ResponseSuccess(w, "success", orders)
}

// GetResourceTransactions handles GET /api/transactions/resource/{id}
func (h *PaymentHandler) GetResourceTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.payment.GetResourceTransactions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get salon transactions")
		return
	}

	utils.ResponseSuccess(w, "success", txns)
}
