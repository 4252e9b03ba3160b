package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"clinagenda/internal/assistant/llm"
	bookingservice "clinagenda/internal/booking/service"
	"clinagenda/pkg/config"
	apperrors "clinagenda/pkg/errors"
	"clinagenda/pkg/model"
)

// maxToolRounds caps the call-respond loop so a misbehaving model
// cannot spin the request forever.
const maxToolRounds = 8

const systemPrompt = `You are the virtual assistant of a health clinic. ` +
	`You are friendly and welcoming. Your goal is to help patients book ` +
	`appointments and answer questions about the clinic's services. Use the ` +
	`available tools to check open times and to book appointments. Always ` +
	`confirm the professional, date and time with the patient before booking. ` +
	`Dates are written YYYY-MM-DD and times HH:MM in 24-hour format.`

type AssistantService interface {
	// Chat runs one conversational turn, resolving any tool calls the
	// model makes before returning its final text.
	Chat(ctx context.Context, conversationID string, patientID string, message string) (*model.AssistantReply, error)
}

type assistantService struct {
	factory llm.SessionFactory
	booking bookingservice.BookingService
	cfg     *config.Config

	mu       sync.Mutex
	sessions map[string]llm.ChatSession
}

// NewAssistantService wires the conversational orchestrator. factory
// may be nil when no API key is configured; Chat then degrades to 503.
func NewAssistantService(factory llm.SessionFactory, booking bookingservice.BookingService, cfg *config.Config) AssistantService {
	return &assistantService{
		factory:  factory,
		booking:  booking,
		cfg:      cfg,
		sessions: map[string]llm.ChatSession{},
	}
}

// SystemPrompt is exported for wiring the model factory.
func SystemPrompt() string {
	return systemPrompt
}

func (s *assistantService) Chat(ctx context.Context, conversationID string, patientID string, message string) (*model.AssistantReply, error) {
	if s.factory == nil {
		return nil, apperrors.Unavailable("Assistant")
	}
	if strings.TrimSpace(message) == "" {
		return nil, apperrors.InvalidInput("Message cannot be empty")
	}
	if strings.TrimSpace(patientID) == "" {
		return nil, apperrors.InvalidInput("Patient ID cannot be empty")
	}

	session, err := s.sessionFor(ctx, conversationID)
	if err != nil {
		s.cfg.Log.Error("Failed to open assistant session",
			"conversation_id", conversationID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to start assistant session", err)
	}

	turn, err := session.Send(ctx, message)
	if err != nil {
		s.cfg.Log.Error("Assistant turn failed",
			"conversation_id", conversationID,
			"error", err,
		)
		return nil, apperrors.Internal("Assistant request failed", err)
	}

	booked := false
	rounds := 0
	for len(turn.Calls) > 0 {
		rounds++
		if rounds > maxToolRounds {
			s.cfg.Log.Warn("Assistant exceeded tool round limit",
				"conversation_id", conversationID,
				"rounds", rounds,
			)
			return nil, apperrors.Internal("Assistant exceeded tool call limit", nil)
		}

		results := make([]llm.ToolResult, 0, len(turn.Calls))
		for _, call := range turn.Calls {
			response, didBook := s.dispatch(ctx, call, patientID)
			booked = booked || didBook
			results = append(results, llm.ToolResult{
				Name:     call.Name,
				Response: response,
			})
		}

		turn, err = session.Reply(ctx, results)
		if err != nil {
			s.cfg.Log.Error("Assistant tool reply failed",
				"conversation_id", conversationID,
				"error", err,
			)
			return nil, apperrors.Internal("Assistant request failed", err)
		}
	}

	s.cfg.Log.Debug("Assistant turn completed",
		"conversation_id", conversationID,
		"tool_rounds", rounds,
		"appointment_booked", booked,
	)

	return &model.AssistantReply{
		ConversationID:    conversationID,
		ResponseText:      turn.Text,
		AppointmentBooked: booked,
	}, nil
}

func (s *assistantService) sessionFor(ctx context.Context, conversationID string) (llm.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[conversationID]; ok {
		return session, nil
	}

	session, err := s.factory.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	s.sessions[conversationID] = session
	return session, nil
}

// dispatch executes one tool call. Failures come back as data for the
// model to phrase, never as errors; a failed booking must not end the
// conversation.
func (s *assistantService) dispatch(ctx context.Context, call llm.ToolCall, patientID string) (map[string]any, bool) {
	switch call.Name {
	case llm.ToolGetAvailability:
		return s.toolAvailability(ctx, call), false

	case llm.ToolBookAppointment:
		return s.toolBook(ctx, call, patientID)

	default:
		s.cfg.Log.Warn("Assistant requested unknown tool", "tool", call.Name)
		return map[string]any{"error": "unknown function"}, false
	}
}

func (s *assistantService) toolAvailability(ctx context.Context, call llm.ToolCall) map[string]any {
	name := stringArg(call.Args, "professionalName")
	date := stringArg(call.Args, "date")

	p, err := s.booking.ResolveByName(ctx, name)
	if err != nil {
		// Unknown professional reads as a fully booked day.
		return map[string]any{"result": []string{}}
	}

	slots, err := s.booking.FreeSlots(ctx, p.ID, date)
	if err != nil {
		s.cfg.Log.Error("Availability tool failed",
			"professional_id", p.ID,
			"date", date,
			"error", err,
		)
		return map[string]any{"result": []string{}}
	}

	return map[string]any{"result": slots}
}

func (s *assistantService) toolBook(ctx context.Context, call llm.ToolCall, patientID string) (map[string]any, bool) {
	name := stringArg(call.Args, "professionalName")
	date := stringArg(call.Args, "date")
	slotTime := stringArg(call.Args, "time")

	p, err := s.booking.ResolveByName(ctx, name)
	if err != nil {
		return map[string]any{
			"result": false,
			"error":  fmt.Sprintf("professional %q not found", name),
		}, false
	}

	_, err = s.booking.Reserve(ctx, &model.AppointmentRequest{
		ProfessionalID: p.ID,
		Date:           date,
		Time:           slotTime,
		PatientID:      patientID,
	})
	if err != nil {
		return map[string]any{
			"result": false,
			"error":  apperrors.AsAppError(err).Message,
		}, false
	}

	return map[string]any{"result": true}, true
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
