package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"clinagenda/internal/wizard/flows"
	"clinagenda/pkg/config"
	apperrors "clinagenda/pkg/errors"
	"clinagenda/pkg/logger"
	"clinagenda/pkg/model"
)

type fakeBooking struct {
	professional *model.Professional
	slots        []string
	reserveErr   error
	reserved     int
}

func (b *fakeBooking) FreeSlots(_ context.Context, _ string, _ string) ([]string, error) {
	return b.slots, nil
}

func (b *fakeBooking) Reserve(_ context.Context, req *model.AppointmentRequest) (*model.Appointment, error) {
	b.reserved++
	if b.reserveErr != nil {
		return nil, b.reserveErr
	}
	return &model.Appointment{
		ID:             "appt-1",
		ProfessionalID: req.ProfessionalID,
		PatientID:      req.PatientID,
		ServiceID:      req.ServiceID,
		Date:           req.Date,
		Time:           req.Time,
		CreatedAt:      time.Now(),
	}, nil
}

func (b *fakeBooking) ProfessionalByID(_ context.Context, id string) (*model.Professional, error) {
	if b.professional == nil || b.professional.ID != id {
		return nil, apperrors.NotFoundWithID("Professional", id)
	}
	return b.professional, nil
}

func (b *fakeBooking) ResolveByName(_ context.Context, _ string) (*model.Professional, error) {
	if b.professional == nil {
		return nil, apperrors.NotFound("Professional")
	}
	return b.professional, nil
}

func wizardConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   logger.LevelError,
			Format:  logger.FormatJSON,
			Service: "test",
		}),
	}
}

func testBooking() *fakeBooking {
	return &fakeBooking{
		professional: &model.Professional{ID: "507f1f77bcf86cd799439011", Name: "Dr. Alice Chen"},
		slots:        []string{"09:00", "10:00"},
	}
}

func newSession(t *testing.T, svc WizardService) *SessionView {
	t.Helper()
	session, err := svc.Create(context.Background(), "patient-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return session
}

func TestCreate(t *testing.T) {
	svc := NewWizardService(testBooking(), wizardConfig())

	session := newSession(t, svc)
	if session.Step != flows.StepSelectProfessional {
		t.Errorf("initial step = %q, want %q", session.Step, flows.StepSelectProfessional)
	}
	if session.StepIndex != 0 || session.TotalSteps != 3 || session.Completed {
		t.Errorf("unexpected initial view: %+v", session)
	}

	if _, err := svc.Create(context.Background(), " "); err == nil {
		t.Error("expected error for empty patient id")
	}
}

func TestNext_GatesOnMissingInput(t *testing.T) {
	svc := NewWizardService(testBooking(), wizardConfig())
	session := newSession(t, svc)

	// Step 1 without a service selection must not advance.
	_, err := svc.Next(context.Background(), session.SessionID, map[string]any{
		flows.ProfessionalID: "507f1f77bcf86cd799439011",
	})
	if err == nil {
		t.Fatal("expected gating error")
	}

	current, err := svc.Get(context.Background(), session.SessionID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if current.StepIndex != 0 {
		t.Errorf("session advanced past a failed gate: index %d", current.StepIndex)
	}
	if current.Selection[flows.ProfessionalID] == "" {
		t.Error("partial input should be kept for resubmission")
	}
}

func TestNext_UnknownProfessionalStaysOnStepOne(t *testing.T) {
	svc := NewWizardService(testBooking(), wizardConfig())
	session := newSession(t, svc)

	_, err := svc.Next(context.Background(), session.SessionID, map[string]any{
		flows.ProfessionalID: "507f1f77bcf86cd799439099",
		flows.ServiceID:      "psychology",
	})
	if err == nil {
		t.Fatal("expected not found error")
	}

	current, _ := svc.Get(context.Background(), session.SessionID)
	if current.StepIndex != 0 {
		t.Errorf("index = %d, want 0", current.StepIndex)
	}
}

func TestNext_RejectsSlotOffTheGrid(t *testing.T) {
	svc := NewWizardService(testBooking(), wizardConfig())
	session := newSession(t, svc)

	if _, err := svc.Next(context.Background(), session.SessionID, map[string]any{
		flows.ProfessionalID: "507f1f77bcf86cd799439011",
		flows.ServiceID:      "psychology",
	}); err != nil {
		t.Fatalf("step 1 failed: %v", err)
	}

	_, err := svc.Next(context.Background(), session.SessionID, map[string]any{
		flows.Date:     "2025-11-20",
		flows.SlotTime: "11:00", // not in the free list
	})
	if err == nil {
		t.Fatal("expected conflict for unavailable slot")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeConflict {
		t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeConflict)
	}

	current, _ := svc.Get(context.Background(), session.SessionID)
	if current.Step != flows.StepSelectSlot {
		t.Errorf("step = %q, want %q", current.Step, flows.StepSelectSlot)
	}
}

func TestHappyPath(t *testing.T) {
	booking := testBooking()
	svc := NewWizardService(booking, wizardConfig())
	session := newSession(t, svc)

	if _, err := svc.Next(context.Background(), session.SessionID, map[string]any{
		flows.ProfessionalID: "507f1f77bcf86cd799439011",
		flows.ServiceID:      "psychology",
	}); err != nil {
		t.Fatalf("step 1 failed: %v", err)
	}

	if _, err := svc.Next(context.Background(), session.SessionID, map[string]any{
		flows.Date:     "2025-11-20",
		flows.SlotTime: "09:00",
	}); err != nil {
		t.Fatalf("step 2 failed: %v", err)
	}

	final, err := svc.Next(context.Background(), session.SessionID, nil)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	if !final.Completed {
		t.Error("flow should be completed")
	}
	if final.Appointment == nil || final.Appointment.Time != "09:00" {
		t.Errorf("appointment = %+v", final.Appointment)
	}
	if booking.reserved != 1 {
		t.Errorf("Reserve called %d times, want 1", booking.reserved)
	}

	// A completed session rejects further advancement.
	if _, err := svc.Next(context.Background(), session.SessionID, nil); err == nil {
		t.Error("expected error advancing a completed session")
	}
}

func TestBack(t *testing.T) {
	svc := NewWizardService(testBooking(), wizardConfig())
	session := newSession(t, svc)

	// Back on the first step floors at zero.
	view, err := svc.Back(context.Background(), session.SessionID)
	if err != nil {
		t.Fatalf("Back() error = %v", err)
	}
	if view.StepIndex != 0 {
		t.Errorf("index = %d, want 0", view.StepIndex)
	}

	if _, err := svc.Next(context.Background(), session.SessionID, map[string]any{
		flows.ProfessionalID: "507f1f77bcf86cd799439011",
		flows.ServiceID:      "psychology",
	}); err != nil {
		t.Fatalf("step 1 failed: %v", err)
	}

	view, err = svc.Back(context.Background(), session.SessionID)
	if err != nil {
		t.Fatalf("Back() error = %v", err)
	}
	if view.Step != flows.StepSelectProfessional {
		t.Errorf("step after back = %q", view.Step)
	}
	if view.Selection[flows.ServiceID] != "psychology" {
		t.Error("going back must keep the collected state")
	}

	// Forward again re-validates the kept state.
	view, err = svc.Next(context.Background(), session.SessionID, nil)
	if err != nil {
		t.Fatalf("re-advance failed: %v", err)
	}
	if view.Step != flows.StepSelectSlot {
		t.Errorf("step = %q, want %q", view.Step, flows.StepSelectSlot)
	}
}

func TestConfirmConflictStaysOnConfirm(t *testing.T) {
	booking := testBooking()
	booking.reserveErr = apperrors.Conflict("Slot 09:00 is already booked")
	svc := NewWizardService(booking, wizardConfig())
	session := newSession(t, svc)

	if _, err := svc.Next(context.Background(), session.SessionID, map[string]any{
		flows.ProfessionalID: "507f1f77bcf86cd799439011",
		flows.ServiceID:      "psychology",
	}); err != nil {
		t.Fatalf("step 1 failed: %v", err)
	}
	if _, err := svc.Next(context.Background(), session.SessionID, map[string]any{
		flows.Date:     "2025-11-20",
		flows.SlotTime: "09:00",
	}); err != nil {
		t.Fatalf("step 2 failed: %v", err)
	}

	_, err := svc.Next(context.Background(), session.SessionID, nil)
	if err == nil {
		t.Fatal("expected conflict from confirm")
	}

	current, _ := svc.Get(context.Background(), session.SessionID)
	if current.Completed {
		t.Error("session must not complete after a rejected reservation")
	}
	if current.Step != flows.StepConfirm {
		t.Errorf("step = %q, want %q", current.Step, flows.StepConfirm)
	}
}

// Views snapshot session state under the session's lock; reading one
// session while another caller advances it must be safe. Run with the
// race detector to catch regressions.
func TestConcurrentGetAndNext(t *testing.T) {
	svc := NewWizardService(testBooking(), wizardConfig())
	session := newSession(t, svc)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			// Gating fails without a service selection, but the partial
			// input is still merged into the session state.
			_, _ = svc.Next(context.Background(), session.SessionID, map[string]any{
				flows.ProfessionalID: "507f1f77bcf86cd799439011",
			})
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if _, err := svc.Get(context.Background(), session.SessionID); err != nil {
				t.Errorf("Get() error = %v", err)
				return
			}
		}
	}()

	wg.Wait()

	current, err := svc.Get(context.Background(), session.SessionID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if current.StepIndex != 0 {
		t.Errorf("session advanced past a failed gate: index %d", current.StepIndex)
	}
}

func TestUnknownSession(t *testing.T) {
	svc := NewWizardService(testBooking(), wizardConfig())

	if _, err := svc.Get(context.Background(), "nope"); err == nil {
		t.Error("expected not found")
	}
	if _, err := svc.Next(context.Background(), "nope", nil); err == nil {
		t.Error("expected not found")
	}
	if _, err := svc.Back(context.Background(), "nope"); err == nil {
		t.Error("expected not found")
	}
}
