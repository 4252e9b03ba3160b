package model

import (
	"fmt"
	"time"
)

// MinutesOfDay parses a strict five-character HH:MM string into minutes
// since midnight.
func MinutesOfDay(clock string) (int, error) {
	if len(clock) != 5 || clock[2] != ':' {
		return 0, fmt.Errorf("invalid HH:MM time %q", clock)
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("invalid HH:MM time %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ClockTime formats minutes since midnight back into HH:MM.
func ClockTime(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
