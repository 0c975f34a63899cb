package usecase

import (
	"errors"
	"fmt"

	"salon-booking/pkg/utils"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrAdmissionRejected = errors.New("admission rejected")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadySettled    = errors.New("booking already has a settled payment")
	ErrBookingCancelled  = errors.New("booking is cancelled")
	ErrStatusConflict    = errors.New("status changed concurrently")
)

// ValidationError keeps the per-field messages so handlers can echo them.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, utils.FormatValidationErrors(e.Fields))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AdmissionReason names the constraint a rejected booking violated.
type AdmissionReason string

const (
	ReasonOutsideWorkingHours AdmissionReason = "outside_working_hours"
	ReasonOverlap             AdmissionReason = "overlap"
	ReasonInvalidWindow       AdmissionReason = "invalid_window"
)

type AdmissionError struct {
	Reason AdmissionReason
	Detail string
}

func (e *AdmissionError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrAdmissionRejected, e.Reason, e.Detail)
}

func (e *AdmissionError) Is(target error) bool { return target == ErrAdmissionRejected }

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s %w", kind, id, ErrNotFound)
}

// validate runs struct tags and wraps any failure as a ValidationError.
func validate(req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return newValidationError(errs)
	}
	return nil
}

func invalidField(field, msg string) error {
	return newValidationError(map[string]string{field: msg})
}
