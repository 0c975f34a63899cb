package adaptor

import (
	"errors"
	"net/http"

	"salon-booking/internal/gateway"
	"salon-booking/internal/usecase"
	"salon-booking/pkg/utils"

	"go.uber.org/zap"
)

// handleServiceError maps service errors onto HTTP responses.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var (
		validationErr *usecase.ValidationError
		admissionErr  *usecase.AdmissionError
	)

	switch {
	case errors.As(err, &validationErr):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, "Validation failed", validationErr.Fields)

	case errors.As(err, &admissionErr):
		log.Warn(operation+" rejected", zap.Error(err), zap.String("reason", string(admissionErr.Reason)))
		utils.ResponseJSON(w, http.StatusConflict, false, admissionErr.Detail, nil, map[string]string{
			"reason": string(admissionErr.Reason),
		})

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrAlreadySettled),
		errors.Is(err, usecase.ErrStatusConflict):
		log.Warn(operation+" failed - conflict", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, usecase.ErrInvalidTransition),
		errors.Is(err, usecase.ErrBookingCancelled):
		log.Warn(operation+" failed - invalid state", zap.Error(err))
		utils.ResponseUnprocessable(w, err.Error())

	case errors.Is(err, gateway.ErrGateway):
		log.Error(operation+" failed - payment gateway", zap.Error(err))
		utils.ResponseBadGateway(w, "Payment provider error, please retry")

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
