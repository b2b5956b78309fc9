package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"roomio/pkg/logger"
	"roomio/pkg/model"

	"github.com/go-playground/validator/v10"
)

var phoneRegex = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

const (
	minHourlyDuration = 1 * time.Hour
	maxHourlyDuration = 12 * time.Hour
	minDailyDuration  = 24 * time.Hour
)

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

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger

	// now is swappable for tests
	now func() time.Time
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("guest_phone", validateGuestPhone); err != nil {
		log.Fatal("Failed to register 'guest_phone' validator", "error", err)
	}
	if err := v.RegisterValidation("booking_status", validateBookingStatus); err != nil {
		log.Fatal("Failed to register 'booking_status' validator", "error", err)
	}

	return &BookingValidator{
		validate: v,
		logger:   log,
		now:      time.Now,
	}
}

func validateGuestPhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	return model.Status(fl.Field().String()).IsValid()
}

// Validate checks a booking against the struct tags plus the rules the tags
// cannot express: interval well-formedness, duration bounds per booking type,
// and the no-past-start rule.
func (v *BookingValidator) Validate(booking *model.Booking) error {
	if err := v.validate.Struct(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if _, err := model.NewInterval(booking.StartTime, booking.EndTime); err != nil {
		return ValidationErrors{
			ValidationError{
				Field:   "EndTime",
				Message: "end_time must be after start_time",
			},
		}
	}

	if booking.StartTime.Before(v.now()) {
		return ValidationErrors{
			ValidationError{
				Field:   "StartTime",
				Message: "start_time cannot be in the past",
			},
		}
	}

	duration := booking.EndTime.Sub(booking.StartTime)
	switch booking.BookingType {
	case model.BookingHourly:
		if duration < minHourlyDuration {
			return ValidationErrors{
				ValidationError{
					Field:   "BookingType",
					Message: "hourly bookings must be at least 1 hour",
				},
			}
		}
		if duration > maxHourlyDuration {
			return ValidationErrors{
				ValidationError{
					Field:   "BookingType",
					Message: "hourly bookings cannot exceed 12 hours",
				},
			}
		}
	case model.BookingDaily:
		if duration < minDailyDuration {
			return ValidationErrors{
				ValidationError{
					Field:   "BookingType",
					Message: "daily bookings must be at least 24 hours",
				},
			}
		}
	}

	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "guest_phone":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +14155552671)", err.Field())
		case "booking_status":
			message = fmt.Sprintf("%s is not a valid booking status", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
