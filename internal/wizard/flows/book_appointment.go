package flows

import (
	"context"
	"fmt"
	"slices"

	bookingservice "clinagenda/internal/booking/service"
	"clinagenda/internal/wizard/core"
	apperrors "clinagenda/pkg/errors"
	"clinagenda/pkg/model"
)

// State keys collected across the wizard steps.
const (
	PatientID      = "patient_id"
	ProfessionalID = "professional_id"
	ServiceID      = "service_id"
	Date           = "date"
	SlotTime       = "time"

	// Appointment holds the booking receipt once the flow completes.
	Appointment = "appointment"
)

const (
	StepSelectProfessional = "select-professional-service"
	StepSelectSlot         = "select-slot"
	StepConfirm            = "confirm"
)

// NewBookAppointmentFlow is the three-screen booking wizard: pick a
// professional and service, pick an open slot, confirm. Each screen
// gates the next; earlier choices stay editable via Back.
func NewBookAppointmentFlow(booking bookingservice.BookingService) *core.Flow {
	return core.NewFlow("book-appointment",
		core.NewStep(StepSelectProfessional,
			validateProfessionalSelection,
			resolveProfessional(booking),
		),
		core.NewStep(StepSelectSlot,
			validateSlotSelection,
			checkSlotIsFree(booking),
		),
		core.NewStep(StepConfirm,
			nil,
			reserveSlot(booking),
		),
	)
}

func validateProfessionalSelection(_ context.Context, s core.State) error {
	if s.String(ProfessionalID) == "" || s.String(ServiceID) == "" {
		return apperrors.InvalidInput("professional_id and service_id are required to continue")
	}
	return nil
}

func resolveProfessional(booking bookingservice.BookingService) func(context.Context, core.State) error {
	return func(ctx context.Context, s core.State) error {
		_, err := booking.ProfessionalByID(ctx, s.String(ProfessionalID))
		return err
	}
}

func validateSlotSelection(_ context.Context, s core.State) error {
	if s.String(Date) == "" || s.String(SlotTime) == "" {
		return apperrors.InvalidInput("date and time are required to continue")
	}
	return nil
}

// checkSlotIsFree keeps the wizard honest: the chosen time must be on
// the professional's open grid at the moment of selection. The confirm
// step still re-checks under the reservation lock.
func checkSlotIsFree(booking bookingservice.BookingService) func(context.Context, core.State) error {
	return func(ctx context.Context, s core.State) error {
		slots, err := booking.FreeSlots(ctx, s.String(ProfessionalID), s.String(Date))
		if err != nil {
			return err
		}
		if !slices.Contains(slots, s.String(SlotTime)) {
			return apperrors.Conflict(fmt.Sprintf("Slot %s on %s is not available", s.String(SlotTime), s.String(Date)))
		}
		return nil
	}
}

func reserveSlot(booking bookingservice.BookingService) func(context.Context, core.State) error {
	return func(ctx context.Context, s core.State) error {
		appointment, err := booking.Reserve(ctx, &model.AppointmentRequest{
			ProfessionalID: s.String(ProfessionalID),
			ServiceID:      s.String(ServiceID),
			Date:           s.String(Date),
			Time:           s.String(SlotTime),
			PatientID:      s.String(PatientID),
		})
		if err != nil {
			return err
		}
		s[Appointment] = appointment
		return nil
	}
}
