package response

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes surfaced to clients.
type ErrCode string

var (
	FAILED_REQUEST     ErrCode = "REQUEST_FAILED"
	BAD_REQUEST        ErrCode = "FAILED_TO_DECODE"
	VALIDATION_FAILED  ErrCode = "VALIDATION_FAILED"
	NOT_FOUND          ErrCode = "NOT_FOUND"
	LOCKED             ErrCode = "LOCKED"
	CONFLICT           ErrCode = "CONFLICT"
	SLOT_NOT_AVAILABLE ErrCode = "SLOT_NOT_AVAILABLE"
	INVALID_STATE      ErrCode = "INVALID_STATE"
	ALREADY_CANCELLED  ErrCode = "ALREADY_CANCELLED"
	MISCONFIGURED      ErrCode = "MISCONFIGURED"
	UNAVAILABLE        ErrCode = "UNAVAILABLE"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("resource not found")
	ErrLocked     = errors.New("resource is locked")
	ErrConflict   = errors.New("conflict")

	// ErrSlotTaken is the creation-time conflict: a non-terminal booking
	// already occupies the requested slot.
	ErrSlotTaken = errors.New("slot is not available")

	// ErrInvalidState means a mutation was attempted on a terminal booking.
	ErrInvalidState = errors.New("booking state does not allow this operation")

	// ErrAlreadyCancelled specializes ErrInvalidState for repeat cancels.
	ErrAlreadyCancelled = fmt.Errorf("booking is already cancelled: %w", ErrInvalidState)

	// ErrConfiguration signals malformed provider settings (bad slot
	// duration, inverted working-hours window). Treated as a bug signal.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrUnavailable wraps datastore reachability failures; callers may retry.
	ErrUnavailable = errors.New("datastore unavailable")
)

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsg []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' is required", err.Field()))
		case "email":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' must be a valid email", err.Field()))
		case "min":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' must be at least %s", err.Field(), err.Param()))
		case "max":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' must be at most %s", err.Field(), err.Param()))
		default:
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' is invalid", err.Field()))
		}
	}

	return Error(string(VALIDATION_FAILED), strings.Join(errMsg, ", "))
}
