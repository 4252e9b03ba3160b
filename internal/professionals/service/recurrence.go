package service

import (
	"fmt"
	"time"

	"clinagenda/pkg/model"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// weekOfMonth numbers the calendar rows of a month grid starting on
// Sunday: week 1 is the row containing the 1st. weekday uses Sunday=0.
func weekOfMonth(dayOfMonth int, weekday int) int {
	return (dayOfMonth + 6 - weekday + 6) / 7
}

// ExpandRecurrence lists the dates of month that a rule anchored at
// referenceDate touches, in ascending order.
//
// weekly hits every date sharing the reference's weekday. biweekly
// keeps only those whose calendar-row parity matches the reference's
// row in its own month. monthly hits the single date sharing the
// reference's day of month, which can be none for short months.
func ExpandRecurrence(rule model.RecurrenceRule, referenceDate string, month string) ([]string, error) {
	ref, err := time.Parse(dateLayout, referenceDate)
	if err != nil {
		return nil, fmt.Errorf("invalid reference date %q: %w", referenceDate, err)
	}
	first, err := time.Parse(monthLayout, month)
	if err != nil {
		return nil, fmt.Errorf("invalid month %q: %w", month, err)
	}

	daysInMonth := first.AddDate(0, 1, -1).Day()

	var dates []string
	switch rule {
	case model.RecurrenceWeekly, model.RecurrenceBiweekly:
		refParity := weekOfMonth(ref.Day(), int(ref.Weekday())) % 2

		for day := 1; day <= daysInMonth; day++ {
			d := time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
			if d.Weekday() != ref.Weekday() {
				continue
			}
			if rule == model.RecurrenceBiweekly {
				if weekOfMonth(day, int(d.Weekday()))%2 != refParity {
					continue
				}
			}
			dates = append(dates, d.Format(dateLayout))
		}

	case model.RecurrenceMonthly:
		if ref.Day() <= daysInMonth {
			d := time.Date(first.Year(), first.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
			dates = append(dates, d.Format(dateLayout))
		}

	default:
		return nil, fmt.Errorf("unknown recurrence rule %q", rule)
	}

	return dates, nil
}
