package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clinagenda/pkg/kafka"
	"clinagenda/pkg/model"
)

// EventPublisher is what the booking flow needs from the message bus.
// *kafka.Producer satisfies it; tests swap in a recorder.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// AppointmentBookedEvent is the payload emitted after a reservation
// commits. Keyed by professional and date so per-day ordering holds on
// the partition.
type AppointmentBookedEvent struct {
	AppointmentID  string    `json:"appointment_id"`
	ProfessionalID string    `json:"professional_id"`
	PatientID      string    `json:"patient_id"`
	ServiceID      string    `json:"service_id,omitempty"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	BookedAt       time.Time `json:"booked_at"`
}

func appointmentBookedMessage(a *model.Appointment) (kafka.Message, error) {
	event := AppointmentBookedEvent{
		AppointmentID:  a.ID,
		ProfessionalID: a.ProfessionalID,
		PatientID:      a.PatientID,
		ServiceID:      a.ServiceID,
		Date:           a.Date,
		Time:           a.Time,
		BookedAt:       a.CreatedAt,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal appointment event: %w", err)
	}

	return kafka.Message{
		Key:       fmt.Sprintf("%s_%s", a.ProfessionalID, a.Date),
		Value:     value,
		Timestamp: a.CreatedAt,
	}, nil
}
