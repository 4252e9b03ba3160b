package model

import "time"

// AppointmentRequest is the booking write. PatientID is whatever the
// caller uses to identify the patient; the core does not dereference it.
type AppointmentRequest struct {
	ProfessionalID string `json:"professional_id" validate:"required,mongodb"`
	Date           string `json:"date" validate:"required,calendar_date"`
	Time           string `json:"time" validate:"required,clock_time"`
	PatientID      string `json:"patient_id" validate:"required,min=1,max=120"`
	ServiceID      string `json:"service_id,omitempty" validate:"omitempty,max=64"`
}

// Appointment is the record returned for a successful reservation. The
// schedule ledger stays the source of truth; this is the receipt handed
// to callers and published to the event stream.
type Appointment struct {
	ID             string    `json:"id" bson:"_id"`
	ProfessionalID string    `json:"professional_id" bson:"professional_id"`
	PatientID      string    `json:"patient_id" bson:"patient_id"`
	ServiceID      string    `json:"service_id,omitempty" bson:"service_id,omitempty"`
	Date           string    `json:"date" bson:"date"`
	Time           string    `json:"time" bson:"time"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

// AssistantReply is the conversational orchestrator's turn result.
type AssistantReply struct {
	ConversationID    string `json:"conversation_id"`
	ResponseText      string `json:"response_text"`
	AppointmentBooked bool   `json:"appointment_booked"`
}
