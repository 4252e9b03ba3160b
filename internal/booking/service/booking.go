package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	bookingerrors "clinagenda/internal/booking/errors"
	"clinagenda/internal/booking/repository"
	"clinagenda/internal/professionals/validator"
	"clinagenda/pkg/config"
	apperrors "clinagenda/pkg/errors"
	"clinagenda/pkg/model"
	"clinagenda/pkg/sanitizer"
)

type BookingService interface {
	// FreeSlots lists the open times for a professional on a date. Any
	// form of absence degrades to an empty list; it does not error on
	// unknown professionals or closed days.
	FreeSlots(ctx context.Context, professionalID string, date string) ([]string, error)

	// Reserve books a slot, first writer wins. Returns Conflict when
	// the slot is already held.
	Reserve(ctx context.Context, req *model.AppointmentRequest) (*model.Appointment, error)

	ProfessionalByID(ctx context.Context, id string) (*model.Professional, error)
	ResolveByName(ctx context.Context, name string) (*model.Professional, error)
}

type bookingService struct {
	store     repository.ProfessionalStore
	lockRepo  repository.SlotLockRepository
	validator *validator.ProfessionalValidator
	events    EventPublisher
	cfg       *config.Config
}

// NewBookingService wires the reservation core. events may be nil when
// the deployment runs without a broker.
func NewBookingService(
	store repository.ProfessionalStore,
	lockRepo repository.SlotLockRepository,
	validator *validator.ProfessionalValidator,
	events EventPublisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		store:     store,
		lockRepo:  lockRepo,
		validator: validator,
		events:    events,
		cfg:       cfg,
	}
}

func (s *bookingService) FreeSlots(ctx context.Context, professionalID string, date string) ([]string, error) {
	if professionalID == "" {
		return nil, apperrors.InvalidInput("Professional ID cannot be empty")
	}
	if sanitizer.SanitizeDate(date) == "" {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}

	p, err := s.store.FindByID(ctx, professionalID)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrProfessionalNotFound) || errors.Is(err, bookingerrors.ErrInvalidID) {
			s.cfg.Log.Debug("Availability requested for unknown professional",
				"professional_id", professionalID,
				"date", date,
			)
			return []string{}, nil
		}
		s.cfg.Log.Error("Failed to load professional for availability",
			"professional_id", professionalID,
			"date", date,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve availability", err)
	}

	window := p.Availability[date]
	slots := FreeSlotTimes(window, p.Schedule[date], s.cfg.SlotDurationMin)

	s.cfg.Log.Debug("Availability computed",
		"professional_id", professionalID,
		"date", date,
		"free_slots", len(slots),
	)
	return slots, nil
}

func (s *bookingService) Reserve(ctx context.Context, req *model.AppointmentRequest) (*model.Appointment, error) {
	req.PatientID = sanitizer.SanitizeName(req.PatientID)
	if err := s.validator.ValidateAppointmentRequest(req); err != nil {
		s.cfg.Log.Warn("Appointment request validation failed", "error", err)
		return nil, apperrors.InvalidInput(err.Error())
	}

	// Serialize reservations per (professional, date) so concurrent
	// writers cannot both pass the occupancy check.
	lockID, err := s.acquireSlotLock(ctx, req.ProfessionalID, req.Date)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	var appointment *model.Appointment
	err = s.store.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		p, err := s.store.FindByID(sessCtx, req.ProfessionalID)
		if err != nil {
			if errors.Is(err, bookingerrors.ErrProfessionalNotFound) {
				return apperrors.NotFoundWithID("Professional", req.ProfessionalID)
			}
			if errors.Is(err, bookingerrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid professional ID format")
			}
			return apperrors.Internal("Failed to load professional", err)
		}

		day, err := claimSlot(p.Schedule[req.Date], req.Time, req.PatientID)
		if err != nil {
			return err
		}

		if err := s.store.ReplaceDaySchedule(sessCtx, req.ProfessionalID, req.Date, day); err != nil {
			return apperrors.Internal("Failed to write schedule", err)
		}

		appointment = &model.Appointment{
			ID:             uuid.NewString(),
			ProfessionalID: req.ProfessionalID,
			PatientID:      req.PatientID,
			ServiceID:      req.ServiceID,
			Date:           req.Date,
			Time:           req.Time,
			CreatedAt:      time.Now().UTC().Truncate(time.Millisecond),
		}
		return nil
	})
	if err != nil {
		if apperrors.AsAppError(err).Code != apperrors.CodeConflict {
			s.cfg.Log.Error("Failed to reserve slot",
				"professional_id", req.ProfessionalID,
				"date", req.Date,
				"time", req.Time,
				"error", err,
			)
		}
		return nil, err
	}

	s.publishBooked(ctx, appointment)

	s.cfg.Log.Info("Appointment booked",
		"appointment_id", appointment.ID,
		"professional_id", appointment.ProfessionalID,
		"date", appointment.Date,
		"time", appointment.Time,
	)
	return appointment, nil
}

func (s *bookingService) ProfessionalByID(ctx context.Context, id string) (*model.Professional, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Professional ID cannot be empty")
	}

	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrProfessionalNotFound) {
			return nil, apperrors.NotFoundWithID("Professional", id)
		}
		if errors.Is(err, bookingerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid professional ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve professional", err)
	}
	return p, nil
}

func (s *bookingService) ResolveByName(ctx context.Context, name string) (*model.Professional, error) {
	name = sanitizer.SanitizeName(name)
	if name == "" {
		return nil, apperrors.InvalidInput("Professional name cannot be empty")
	}

	p, err := s.store.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrProfessionalNotFound) {
			return nil, apperrors.NotFound(fmt.Sprintf("Professional %q not found", name))
		}
		return nil, apperrors.Internal("Failed to resolve professional by name", err)
	}
	return p, nil
}

// claimSlot applies the check-then-act rule to one day of the ledger:
// an occupied entry rejects the write, a free entry is claimed in
// place, and a missing entry is appended.
func claimSlot(day []model.TimeSlot, slotTime string, patientID string) ([]model.TimeSlot, error) {
	out := make([]model.TimeSlot, len(day))
	copy(out, day)

	for i, slot := range out {
		if slot.Time != slotTime {
			continue
		}
		if slot.Occupied() {
			return nil, apperrors.Conflict(fmt.Sprintf("Slot %s is already booked", slotTime))
		}
		out[i].Patient = patientID
		return out, nil
	}

	return append(out, model.TimeSlot{Time: slotTime, Patient: patientID}), nil
}

func (s *bookingService) publishBooked(ctx context.Context, a *model.Appointment) {
	if s.events == nil {
		return
	}

	msg, err := appointmentBookedMessage(a)
	if err != nil {
		s.cfg.Log.Error("Failed to build appointment event", "appointment_id", a.ID, "error", err)
		return
	}

	// Best effort: the reservation already committed, losing the event
	// must not fail the request.
	if err := s.events.Publish(ctx, msg); err != nil {
		s.cfg.Log.Error("Failed to publish appointment event",
			"appointment_id", a.ID,
			"error", err,
		)
	}
}

// acquireSlotLock creates an advisory lock covering every slot of the
// professional's day. Conflict means another reservation is in flight.
func (s *bookingService) acquireSlotLock(ctx context.Context, professionalID string, date string) (string, error) {
	lockID := fmt.Sprintf("slot_lock_%s_%s", professionalID, date)

	lock := &model.SlotLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.SlotLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This slot is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire slot lock", err)
	}

	return lockID, nil
}

func (s *bookingService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}
