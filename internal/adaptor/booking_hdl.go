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

type BookingHandler struct {
	service usecase.BookingService
	report  usecase.ReportService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, report usecase.ReportService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		report:  report,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CreateBooking handles POST /api/bookings?resource_id=&customer_id=
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req request.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	query := r.URL.Query()
	req.ResourceID = query.Get("resource_id")
	req.CustomerID = query.Get("customer_id")

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "Booking created", booking)
}

// GetBookingByID handles GET /api/bookings/{id}
func (h *BookingHandler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	booking, err := h.service.GetBookingByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// GetCustomerBookings handles GET /api/bookings/customer/{id}
func (h *BookingHandler) GetCustomerBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.service.GetCustomerBookings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get customer bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// GetResourceBookings handles GET /api/bookings/resource/{id}
func (h *BookingHandler) GetResourceBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.service.GetResourceBookings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get salon bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// UpdateStatus handles PUT /api/bookings/{id}/status?status=
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	req := request.UpdateBookingStatusRequest{
		BookingID: chi.URLParam(r, "id"),
		Status:    r.URL.Query().Get("status"),
	}

	booking, err := h.service.UpdateStatus(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update booking status")
		return
	}

	utils.ResponseSuccess(w, "Booking status updated", booking)
}

// GetOccupiedSlots handles GET /api/bookings/slots/resource/{id}/date/{date}
func (h *BookingHandler) GetOccupiedSlots(w http.ResponseWriter, r *http.Request) {
	req := request.OccupiedSlotsRequest{
		ResourceID: chi.URLParam(r, "id"),
		Date:       chi.URLParam(r, "date"),
	}

	slots, err := h.service.GetOccupiedSlots(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "get occupied slots")
		return
	}

	utils.ResponseSuccess(w, "success", slots)
}

// GetReport handles GET /api/bookings/report/resource/{id}
func (h *BookingHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.report.BuildReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "build report")
		return
	}

	utils.ResponseSuccess(w, "success", report)
}
