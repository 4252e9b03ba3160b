package model

import "time"

// Professional is the unit of scheduling. Availability maps a
// YYYY-MM-DD date to a working window: a nil value is an explicit day
// off, an absent key means the day is closed. Schedule holds the
// booked ledger per date; the two maps are eventually consistent and
// only Booking Reservation writes Schedule.
type Professional struct {
	ID           string                         `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name         string                         `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Role         string                         `json:"role" bson:"role" validate:"required,min=2,max=100"`
	Availability map[string]*AvailabilityWindow `json:"availability" bson:"availability" validate:"omitempty"`
	Schedule     map[string][]TimeSlot          `json:"schedule" bson:"schedule" validate:"omitempty"`
	CreatedAt    time.Time                      `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type ProfessionalUpdate struct {
	Name string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Role string `json:"role,omitempty" validate:"omitempty,min=2,max=100"`
}

// AvailabilityWindow is a half-open bookable interval [Start, End) with
// an optional lunch break excluded from it.
type AvailabilityWindow struct {
	Start      string      `json:"start" bson:"start" validate:"required,clock_time"`
	End        string      `json:"end" bson:"end" validate:"required,clock_time"`
	LunchBreak *LunchBreak `json:"lunch_break,omitempty" bson:"lunch_break,omitempty" validate:"omitempty"`
}

type LunchBreak struct {
	Start string `json:"start" bson:"start" validate:"required,clock_time"`
	End   string `json:"end" bson:"end" validate:"required,clock_time"`
}

// TimeSlot is one ledger entry. An empty Patient means the slot row
// exists but is free.
type TimeSlot struct {
	Time    string `json:"time" bson:"time" validate:"required,clock_time"`
	Patient string `json:"patient,omitempty" bson:"patient,omitempty"`
}

// Occupied reports whether the slot excludes its time from generated
// availability.
func (s TimeSlot) Occupied() bool {
	return s.Patient != ""
}

// AvailabilityAssignment applies one window (or a day off when Window
// is nil) to every date in the selection.
type AvailabilityAssignment struct {
	Dates  []string            `json:"dates" validate:"required,min=1,dive,calendar_date"`
	Window *AvailabilityWindow `json:"window" validate:"omitempty"`
	DayOff bool                `json:"day_off,omitempty"`
}

type RecurrenceRule string

const (
	RecurrenceWeekly   RecurrenceRule = "weekly"
	RecurrenceBiweekly RecurrenceRule = "biweekly"
	RecurrenceMonthly  RecurrenceRule = "monthly"
)

// RecurrenceRequest expands a rule anchored at ReferenceDate over every
// matching date of Month (YYYY-MM) and applies Window to each.
type RecurrenceRequest struct {
	Rule          RecurrenceRule      `json:"rule" validate:"required,oneof=weekly biweekly monthly"`
	ReferenceDate string              `json:"reference_date" validate:"required,calendar_date"`
	Month         string              `json:"month" validate:"required,calendar_month"`
	Window        *AvailabilityWindow `json:"window" validate:"required"`
}
