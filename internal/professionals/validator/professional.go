package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"clinagenda/pkg/logger"
	"clinagenda/pkg/model"
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

type ProfessionalValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewProfessionalValidator(log *logger.Logger) *ProfessionalValidator {
	v := validator.New()

	if err := v.RegisterValidation("clock_time", validateClockTime); err != nil {
		log.Fatal("Failed to register 'clock_time' validator", "error", err)
	}
	if err := v.RegisterValidation("calendar_date", validateCalendarDate); err != nil {
		log.Fatal("Failed to register 'calendar_date' validator", "error", err)
	}
	if err := v.RegisterValidation("calendar_month", validateCalendarMonth); err != nil {
		log.Fatal("Failed to register 'calendar_month' validator", "error", err)
	}

	log.Info("Professional validator initialized successfully")

	return &ProfessionalValidator{
		validate: v,
		logger:   log,
	}
}

func validateClockTime(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return false
	}
	_, err := time.Parse("15:04", value)
	return err == nil && len(value) == 5
}

func validateCalendarDate(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return false
	}
	_, err := time.Parse("2006-01-02", value)
	return err == nil && len(value) == 10
}

func validateCalendarMonth(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return false
	}
	_, err := time.Parse("2006-01", value)
	return err == nil && len(value) == 7
}

func (v *ProfessionalValidator) Validate(p *model.Professional) error {
	if err := v.validate.Struct(p); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	for date, window := range p.Availability {
		if !isCalendarDate(date) {
			return ValidationErrors{{Field: "Availability", Message: fmt.Sprintf("invalid date key %q, expected YYYY-MM-DD", date)}}
		}
		if window == nil {
			continue
		}
		if err := v.ValidateWindow(window); err != nil {
			return err
		}
	}

	return nil
}

// ValidateWindow checks the interval shape: the window must be
// non-empty and any lunch break must lie inside it.
func (v *ProfessionalValidator) ValidateWindow(w *model.AvailabilityWindow) error {
	if err := v.validate.Struct(w); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	start, err := model.MinutesOfDay(w.Start)
	if err != nil {
		return ValidationErrors{{Field: "Start", Message: err.Error()}}
	}
	end, err := model.MinutesOfDay(w.End)
	if err != nil {
		return ValidationErrors{{Field: "End", Message: err.Error()}}
	}
	if start >= end {
		return ValidationErrors{{Field: "End", Message: "window end must be after start"}}
	}

	if w.LunchBreak != nil {
		ls, err := model.MinutesOfDay(w.LunchBreak.Start)
		if err != nil {
			return ValidationErrors{{Field: "LunchBreak.Start", Message: err.Error()}}
		}
		le, err := model.MinutesOfDay(w.LunchBreak.End)
		if err != nil {
			return ValidationErrors{{Field: "LunchBreak.End", Message: err.Error()}}
		}
		if ls >= le {
			return ValidationErrors{{Field: "LunchBreak.End", Message: "lunch break end must be after start"}}
		}
		if ls < start || le > end {
			return ValidationErrors{{Field: "LunchBreak", Message: "lunch break must be inside the working window"}}
		}
	}

	return nil
}

func (v *ProfessionalValidator) ValidateUpdate(u *model.ProfessionalUpdate) error {
	if err := v.validate.Struct(u); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ProfessionalValidator) ValidateAssignment(a *model.AvailabilityAssignment) error {
	if err := v.validate.Struct(a); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if a.DayOff && a.Window != nil {
		return ValidationErrors{{Field: "Window", Message: "day_off and window are mutually exclusive"}}
	}
	if !a.DayOff && a.Window == nil {
		return ValidationErrors{{Field: "Window", Message: "window is required unless day_off is set"}}
	}
	if a.Window != nil {
		return v.ValidateWindow(a.Window)
	}
	return nil
}

func (v *ProfessionalValidator) ValidateRecurrence(r *model.RecurrenceRequest) error {
	if err := v.validate.Struct(r); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return v.ValidateWindow(r.Window)
}

func (v *ProfessionalValidator) ValidateAppointmentRequest(req *model.AppointmentRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func isCalendarDate(value string) bool {
	_, err := time.Parse("2006-01-02", value)
	return err == nil && len(value) == 10
}

func (v *ProfessionalValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid object ID", err.Field())
		case "clock_time":
			message = fmt.Sprintf("%s must be a wall-clock time in HH:MM 24-hour format", err.Field())
		case "calendar_date":
			message = fmt.Sprintf("%s must be a calendar date in YYYY-MM-DD format", err.Field())
		case "calendar_month":
			message = fmt.Sprintf("%s must be a calendar month in YYYY-MM format", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
