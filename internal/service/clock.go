package service

import (
	"time"

	"github.com/chowchow0048/PMS/internal/models"
)

// Clock abstracts "now" so occurrence-date math is testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// WeekdayOf maps a calendar date onto the clinic weekday enum.
func WeekdayOf(t time.Time) models.Weekday {
	// time.Weekday counts from Sunday; the grid counts from Monday.
	idx := (int(t.Weekday()) + 6) % 7
	return models.WeekdayOrder[idx]
}

// OccurrenceDate computes the expected clinic date for a reservation made at
// now: the next occurrence of day on or after today in the current week cycle.
// When today's weekday is past the clinic's weekday the date rolls into next
// week.
func OccurrenceDate(day models.Weekday, now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	delta := day.ISOIndex() - WeekdayOf(now).ISOIndex()
	if delta < 0 {
		delta += 7
	}
	return today.AddDate(0, 0, delta)
}

// DateOnly truncates a timestamp to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
