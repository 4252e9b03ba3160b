package service

import (
	"reflect"
	"testing"

	"clinagenda/pkg/model"
)

func TestExpandRecurrence(t *testing.T) {
	tests := []struct {
		name          string
		rule          model.RecurrenceRule
		referenceDate string
		month         string
		want          []string
	}{
		{
			name:          "weekly hits every matching weekday",
			rule:          model.RecurrenceWeekly,
			referenceDate: "2025-11-03", // Monday
			month:         "2025-11",
			want:          []string{"2025-11-03", "2025-11-10", "2025-11-17", "2025-11-24"},
		},
		{
			name:          "biweekly keeps alternating calendar rows",
			rule:          model.RecurrenceBiweekly,
			referenceDate: "2025-11-03",
			month:         "2025-11",
			want:          []string{"2025-11-03", "2025-11-17"},
		},
		{
			name:          "monthly hits the same day of month",
			rule:          model.RecurrenceMonthly,
			referenceDate: "2025-11-20",
			month:         "2025-12",
			want:          []string{"2025-12-20"},
		},
		{
			name:          "monthly skips months without the day",
			rule:          model.RecurrenceMonthly,
			referenceDate: "2025-10-31",
			month:         "2025-11",
			want:          nil,
		},
		{
			name:          "weekly carries into the next month",
			rule:          model.RecurrenceWeekly,
			referenceDate: "2025-11-03",
			month:         "2025-12",
			want:          []string{"2025-12-01", "2025-12-08", "2025-12-15", "2025-12-22", "2025-12-29"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandRecurrence(tt.rule, tt.referenceDate, tt.month)
			if err != nil {
				t.Fatalf("ExpandRecurrence() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExpandRecurrence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpandRecurrence_Errors(t *testing.T) {
	if _, err := ExpandRecurrence(model.RecurrenceWeekly, "not-a-date", "2025-11"); err == nil {
		t.Error("expected error for malformed reference date")
	}
	if _, err := ExpandRecurrence(model.RecurrenceWeekly, "2025-11-03", "November"); err == nil {
		t.Error("expected error for malformed month")
	}
	if _, err := ExpandRecurrence("daily", "2025-11-03", "2025-11"); err == nil {
		t.Error("expected error for unknown rule")
	}
}

func TestWeekOfMonth(t *testing.T) {
	tests := []struct {
		day     int
		weekday int
		want    int
	}{
		{1, 0, 1},  // month starting on Sunday
		{1, 6, 1},  // month starting on Saturday
		{3, 1, 2},  // 2025-11-03, Monday
		{10, 1, 3}, // 2025-11-10
		{17, 1, 4}, // 2025-11-17
		{24, 1, 5}, // 2025-11-24
	}

	for _, tt := range tests {
		if got := weekOfMonth(tt.day, tt.weekday); got != tt.want {
			t.Errorf("weekOfMonth(%d, %d) = %d, want %d", tt.day, tt.weekday, got, tt.want)
		}
	}
}
