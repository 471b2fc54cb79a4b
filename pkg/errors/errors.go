package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

const (
	CodeNotFound            = "NOT_FOUND"
	CodeValidation          = "VALIDATION_ERROR"
	CodeConflict            = "CONFLICT"
	CodeInternal            = "INTERNAL_ERROR"
	CodeBadRequest          = "BAD_REQUEST"
	CodeTimeout             = "TIMEOUT"
	CodeUnavailable         = "SERVICE_UNAVAILABLE"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeTooManyRequests     = "TOO_MANY_REQUESTS"
	CodeInvalidTimeFormat   = "INVALID_TIME_FORMAT"
	CodeInvalidTimeSlot     = "INVALID_TIME_SLOT"
	CodeInvalidDuration     = "INVALID_DURATION"
	CodeSlotAlreadyBooked   = "SLOT_ALREADY_BOOKED"
	CodeNotEditable         = "RESERVATION_NOT_EDITABLE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

// Retryable reports whether the caller may safely repeat the whole operation.
func (e *AppError) Retryable() bool {
	return e.Code == CodeConcurrencyConflict
}

func (e *AppError) ToJSON() []byte {
	response := ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
	data, _ := json.Marshal(response)
	return data
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// FieldError is one entry of a ValidationError detail list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

// ValidationFields builds a ValidationError carrying a field-level detail list.
func ValidationFields(message string, fields ...FieldError) *AppError {
	return Validation(message, map[string]any{"fields": fields})
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func InvalidTimeFormat(field, value string) *AppError {
	return &AppError{
		Code:       CodeInvalidTimeFormat,
		Message:    fmt.Sprintf("%s is not a valid date/time", field),
		HTTPStatus: http.StatusBadRequest,
		Details: map[string]any{
			"field": field,
			"value": value,
		},
	}
}

func InvalidTimeSlot(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidTimeSlot,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

func InvalidDuration(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidDuration,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

func SlotAlreadyBooked(start, end time.Time) *AppError {
	return &AppError{
		Code:       CodeSlotAlreadyBooked,
		Message:    "The requested time overlaps an existing confirmed reservation",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"conflict_start": start.UTC().Format(time.RFC3339),
			"conflict_end":   end.UTC().Format(time.RFC3339),
		},
	}
}

func NotEditable(id, status string) *AppError {
	return &AppError{
		Code:       CodeNotEditable,
		Message:    fmt.Sprintf("Reservation is %s and can no longer be changed", status),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"id":     id,
			"status": status,
		},
	}
}

func ConcurrencyConflict(err error) *AppError {
	return &AppError{
		Code:       CodeConcurrencyConflict,
		Message:    "The schedule changed while processing the request. Please try again.",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:       CodeTooManyRequests,
		Message:    message,
		HTTPStatus: http.StatusTooManyRequests,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Timeout(message string) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    message,
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

func Unavailable(service string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    fmt.Sprintf("%s is temporarily unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}
