package service

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	bookingservice "clinagenda/internal/booking/service"
	"clinagenda/internal/wizard/core"
	"clinagenda/internal/wizard/flows"
	"clinagenda/pkg/config"
	apperrors "clinagenda/pkg/errors"
	"clinagenda/pkg/model"
	"clinagenda/pkg/sanitizer"
)

// SessionView is the wizard state handed to clients after every
// operation.
type SessionView struct {
	SessionID   string             `json:"session_id"`
	Flow        string             `json:"flow"`
	Step        string             `json:"step,omitempty"`
	StepIndex   int                `json:"step_index"`
	TotalSteps  int                `json:"total_steps"`
	Completed   bool               `json:"completed"`
	Selection   map[string]string  `json:"selection"`
	Appointment *model.Appointment `json:"appointment,omitempty"`
}

type WizardService interface {
	Create(ctx context.Context, patientID string) (*SessionView, error)
	Get(ctx context.Context, sessionID string) (*SessionView, error)
	Next(ctx context.Context, sessionID string, input map[string]any) (*SessionView, error)
	Back(ctx context.Context, sessionID string) (*SessionView, error)
}

// wizardSession pairs a flow session with its own lock. Every read or
// write of the session's state happens under mu, so one slow step only
// blocks callers of the same session.
type wizardSession struct {
	mu      sync.Mutex
	session *core.Session
}

type wizardService struct {
	booking bookingservice.BookingService
	cfg     *config.Config

	mu       sync.RWMutex
	sessions map[string]*wizardSession
}

func NewWizardService(booking bookingservice.BookingService, cfg *config.Config) WizardService {
	return &wizardService{
		booking:  booking,
		cfg:      cfg,
		sessions: map[string]*wizardSession{},
	}
}

func (s *wizardService) Create(_ context.Context, patientID string) (*SessionView, error) {
	patientID = sanitizer.SanitizeName(patientID)
	if patientID == "" {
		return nil, apperrors.InvalidInput("patient_id is required")
	}

	session := core.NewSession(uuid.NewString(), flows.NewBookAppointmentFlow(s.booking))
	session.State[flows.PatientID] = patientID

	// Snapshot the view before the session is published; once it is in
	// the map other goroutines may mutate it.
	v := view(session)

	s.mu.Lock()
	s.sessions[session.ID] = &wizardSession{session: session}
	s.mu.Unlock()

	s.cfg.Log.Info("Wizard session created",
		"session_id", session.ID,
		"flow", session.Flow.Name(),
	)
	return v, nil
}

func (s *wizardService) Get(_ context.Context, sessionID string) (*SessionView, error) {
	entry, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return view(entry.session), nil
}

func (s *wizardService) Next(ctx context.Context, sessionID string, input map[string]any) (*SessionView, error) {
	entry, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	session := entry.session
	if session.Completed {
		return nil, apperrors.Conflict("Wizard session is already completed")
	}

	if err := session.Next(ctx, input); err != nil {
		s.cfg.Log.Debug("Wizard step rejected",
			"session_id", sessionID,
			"step", session.CurrentStep().Name,
			"error", err,
		)
		// Session stays on the step; surface the rejection with the
		// current view so the client can re-render.
		return nil, err
	}

	return view(session), nil
}

func (s *wizardService) Back(_ context.Context, sessionID string) (*SessionView, error) {
	entry, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.session.Back()
	return view(entry.session), nil
}

func (s *wizardService) lookup(sessionID string) (*wizardSession, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperrors.InvalidInput("Session ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, apperrors.NotFoundWithID("Wizard session", sessionID)
	}
	return entry, nil
}

// view must be called with the session's lock held, or before the
// session is published.
func view(session *core.Session) *SessionView {
	v := &SessionView{
		SessionID:  session.ID,
		Flow:       session.Flow.Name(),
		StepIndex:  session.Index,
		TotalSteps: len(session.Flow.Steps()),
		Completed:  session.Completed,
		Selection:  map[string]string{},
	}

	if step := session.CurrentStep(); step != nil {
		v.Step = step.Name
	}

	for _, key := range []string{flows.ProfessionalID, flows.ServiceID, flows.Date, flows.SlotTime} {
		if value := session.State.String(key); value != "" {
			v.Selection[key] = value
		}
	}

	if appointment, ok := session.State[flows.Appointment].(*model.Appointment); ok {
		v.Appointment = appointment
	}

	return v
}
