package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"clinagenda/internal/booking/service"
	httputil "clinagenda/pkg/http"
	"clinagenda/pkg/logger"
	"clinagenda/pkg/model"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

type AvailabilityResponse struct {
	ProfessionalID string   `json:"professional_id"`
	Date           string   `json:"date"`
	Slots          []string `json:"slots"`
}

func (h *BookingHandler) GetAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	professionalID := strings.TrimSpace(query.Get("professional_id"))
	date := strings.TrimSpace(query.Get("date"))

	if professionalID == "" || date == "" {
		if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "'professional_id' and 'date' query parameters are required",
		}); err != nil {
			h.log.Error("failed to write bad request response", "handler", "GetAvailability", "operation", "WriteJSON", "error", err)
		}
		return
	}

	slots, err := h.service.FreeSlots(r.Context(), professionalID, date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAvailability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, AvailabilityResponse{
		ProfessionalID: professionalID,
		Date:           date,
		Slots:          slots,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAvailability", "operation", "WriteJSON", "error", err)
	}
}

func (h *BookingHandler) CreateAppointment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.AppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CreateAppointment", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	appointment, err := h.service.Reserve(r.Context(), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CreateAppointment", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, appointment); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateAppointment", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/availability", h.GetAvailability)
	router.POST("/api/v1/appointments", h.CreateAppointment)
}
