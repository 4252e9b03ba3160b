package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"clinagenda/internal/assistant/service"
	httputil "clinagenda/pkg/http"
	"clinagenda/pkg/logger"
)

type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	PatientID      string `json:"patient_id"`
	Message        string `json:"message"`
}

type AssistantHandler struct {
	service service.AssistantService
	log     *logger.Logger
}

func NewAssistantHandler(service service.AssistantService, log *logger.Logger) *AssistantHandler {
	return &AssistantHandler{
		service: service,
		log:     log,
	}
}

func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Chat", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	// A fresh conversation gets a server-issued id the client echoes
	// back on subsequent turns.
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}

	reply, err := h.service.Chat(r.Context(), req.ConversationID, req.PatientID, req.Message)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Chat", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, reply); err != nil {
		h.log.Error("failed to write success response", "handler", "Chat", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AssistantHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/assistant/chat", h.Chat)
}
