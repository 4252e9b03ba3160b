package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"clinagenda/internal/wizard/service"
	httputil "clinagenda/pkg/http"
	"clinagenda/pkg/logger"
)

type CreateSessionRequest struct {
	PatientID string `json:"patient_id"`
}

type WizardHandler struct {
	service service.WizardService
	log     *logger.Logger
}

func NewWizardHandler(service service.WizardService, log *logger.Logger) *WizardHandler {
	return &WizardHandler{
		service: service,
		log:     log,
	}
}

func (h *WizardHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	session, err := h.service.Create(r.Context(), req.PatientID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, session); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *WizardHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, err := h.service.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, session); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *WizardHandler) Next(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	input := map[string]any{}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
				Error: "Invalid request body",
			}); writeErr != nil {
				h.log.Error("failed to write JSON response", "handler", "Next", "operation", "WriteJSON", "error", writeErr)
			}
			return
		}
	}

	session, err := h.service.Next(r.Context(), ps.ByName("id"), input)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Next", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, session); err != nil {
		h.log.Error("failed to write success response", "handler", "Next", "operation", "WriteSuccess", "error", err)
	}
}

func (h *WizardHandler) Back(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, err := h.service.Back(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Back", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, session); err != nil {
		h.log.Error("failed to write success response", "handler", "Back", "operation", "WriteSuccess", "error", err)
	}
}

func (h *WizardHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/booking-wizard", h.Create)
	router.GET("/api/v1/booking-wizard/:id", h.Get)
	router.POST("/api/v1/booking-wizard/:id/next", h.Next)
	router.POST("/api/v1/booking-wizard/:id/back", h.Back)
}
