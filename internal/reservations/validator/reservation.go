package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	apperrors "studiobook/pkg/errors"
	"studiobook/pkg/logger"

	"github.com/go-playground/validator/v10"
)

type ValidationError = apperrors.FieldError

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// ReservationValidator checks request payload shape. Window semantics
// (format, alignment, duration) are checked by the scheduler.
type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &ReservationValidator{
		validate: v,
		logger:   log,
	}
}

// Validate accepts any of the reservation request payloads.
func (v *ReservationValidator) Validate(req any) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ReservationValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +14155550123)", err.Field())
		case "timezone":
			message = fmt.Sprintf("%s must be an IANA time zone name", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid reservation ID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}

// AsAppError converts a Validate result into the API error shape.
func AsAppError(message string, err error) *apperrors.AppError {
	var fields ValidationErrors
	if errors.As(err, &fields) {
		return apperrors.ValidationFields(message, fields...)
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
