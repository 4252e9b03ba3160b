package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Tool names the model is allowed to call.
const (
	ToolGetAvailability = "getProfessionalAvailability"
	ToolBookAppointment = "bookAppointment"
)

// GeminiSessionFactory builds chat sessions against the Gemini API with
// the scheduling tools attached.
type GeminiSessionFactory struct {
	client       *genai.Client
	modelID      string
	systemPrompt string
}

func NewGeminiSessionFactory(ctx context.Context, apiKey, modelID, systemPrompt string) (*GeminiSessionFactory, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("llm: failed to create gemini client: %w", err)
	}

	return &GeminiSessionFactory{
		client:       client,
		modelID:      modelID,
		systemPrompt: systemPrompt,
	}, nil
}

func (f *GeminiSessionFactory) NewSession(_ context.Context) (ChatSession, error) {
	model := f.client.GenerativeModel(f.modelID)

	if strings.TrimSpace(f.systemPrompt) != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(f.systemPrompt))
	}
	model.Tools = []*genai.Tool{{FunctionDeclarations: schedulingTools()}}

	return &geminiSession{chat: model.StartChat()}, nil
}

func (f *GeminiSessionFactory) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func schedulingTools() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        ToolGetAvailability,
			Description: "Lists the open appointment times for a named health professional on a specific date.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"professionalName": {Type: genai.TypeString, Description: "Full or partial name of the professional"},
					"date":             {Type: genai.TypeString, Description: "Calendar date in YYYY-MM-DD format"},
				},
				Required: []string{"professionalName", "date"},
			},
		},
		{
			Name:        ToolBookAppointment,
			Description: "Books a confirmed appointment for the current patient with a professional at a specific date and time.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"professionalName": {Type: genai.TypeString, Description: "Full or partial name of the professional"},
					"date":             {Type: genai.TypeString, Description: "Calendar date in YYYY-MM-DD format"},
					"time":             {Type: genai.TypeString, Description: "Slot time in HH:MM 24-hour format"},
				},
				Required: []string{"professionalName", "date", "time"},
			},
		},
	}
}

type geminiSession struct {
	chat *genai.ChatSession
}

func (s *geminiSession) Send(ctx context.Context, text string) (*Turn, error) {
	resp, err := s.chat.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("llm: gemini send failed: %w", err)
	}
	return parseTurn(resp)
}

func (s *geminiSession) Reply(ctx context.Context, results []ToolResult) (*Turn, error) {
	parts := make([]genai.Part, 0, len(results))
	for _, result := range results {
		parts = append(parts, genai.FunctionResponse{
			Name:     result.Name,
			Response: result.Response,
		})
	}

	resp, err := s.chat.SendMessage(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("llm: gemini tool reply failed: %w", err)
	}
	return parseTurn(resp)
}

func parseTurn(resp *genai.GenerateContentResponse) (*Turn, error) {
	if len(resp.Candidates) == 0 {
		return nil, errors.New("llm: gemini returned no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return nil, errors.New("llm: gemini returned empty content")
	}

	turn := &Turn{}
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			turn.Calls = append(turn.Calls, ToolCall{
				Name: p.Name,
				Args: p.Args,
			})
		}
	}
	turn.Text = strings.TrimSpace(text.String())

	return turn, nil
}
