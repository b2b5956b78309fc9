package validator

import (
	"errors"
	"fmt"
	"strings"

	"roomio/pkg/logger"

	"github.com/go-playground/validator/v10"
)

const maxAmenityLength = 50

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type RoomValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewRoomValidator(log *logger.Logger) *RoomValidator {
	v := validator.New()

	if err := v.RegisterValidation("amenities", validateAmenities); err != nil {
		log.Fatal("Failed to register 'amenities' validator", "error", err)
	}

	return &RoomValidator{
		validate: v,
		logger:   log,
	}
}

// validateAmenities requires every entry to be non-empty and reasonably short.
// Normalization (lowercasing, dedup) happens in the sanitizer before this runs.
func validateAmenities(fl validator.FieldLevel) bool {
	amenities, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, a := range amenities {
		if a == "" || len(a) > maxAmenityLength {
			return false
		}
	}
	return true
}

func (v *RoomValidator) Validate(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *RoomValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "amenities":
			message = fmt.Sprintf("%s entries must be non-empty and at most %d characters", err.Field(), maxAmenityLength)
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
