package service

import (
	"clinagenda/pkg/model"
)

// FreeSlotTimes walks the working window on a stepMin grid and returns
// the times still open for booking, in ascending order.
//
// The window is half-open: a slot exists at every grid time t with
// start <= t < end. Grid times inside the lunch break [lunch.Start,
// lunch.End) are skipped, as are times held by an occupied ledger
// entry. A nil window means the day is off and yields no slots.
// Malformed input degrades to an empty result; this function never
// errors.
func FreeSlotTimes(window *model.AvailabilityWindow, booked []model.TimeSlot, stepMin int) []string {
	if window == nil || stepMin <= 0 {
		return []string{}
	}

	start, err := model.MinutesOfDay(window.Start)
	if err != nil {
		return []string{}
	}
	end, err := model.MinutesOfDay(window.End)
	if err != nil {
		return []string{}
	}

	lunchStart, lunchEnd := -1, -1
	if window.LunchBreak != nil {
		ls, errS := model.MinutesOfDay(window.LunchBreak.Start)
		le, errE := model.MinutesOfDay(window.LunchBreak.End)
		if errS == nil && errE == nil {
			lunchStart, lunchEnd = ls, le
		}
	}

	occupied := make(map[string]struct{}, len(booked))
	for _, slot := range booked {
		if slot.Occupied() {
			occupied[slot.Time] = struct{}{}
		}
	}

	slots := []string{}
	for t := start; t < end; t += stepMin {
		if lunchStart >= 0 && t >= lunchStart && t < lunchEnd {
			continue
		}
		clock := model.ClockTime(t)
		if _, taken := occupied[clock]; taken {
			continue
		}
		slots = append(slots, clock)
	}

	return slots
}
