package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chowchow0048/PMS/internal/models"
)

func TestWeekdayOf(t *testing.T) {
	// 2026-03-02 is a Monday.
	monday := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, models.Monday, WeekdayOf(monday))
	assert.Equal(t, models.Sunday, WeekdayOf(monday.AddDate(0, 0, 6)))
}

func TestOccurrenceDateSameDay(t *testing.T) {
	wednesday := time.Date(2026, 3, 4, 18, 30, 0, 0, time.UTC)
	got := OccurrenceDate(models.Wednesday, wednesday)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), got)
}

func TestOccurrenceDateLaterThisWeek(t *testing.T) {
	tuesday := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	got := OccurrenceDate(models.Friday, tuesday)
	assert.Equal(t, time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC), got)
}

func TestOccurrenceDateRollsToNextWeek(t *testing.T) {
	friday := time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC)
	got := OccurrenceDate(models.Tuesday, friday)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), got)
}

func TestOccurrenceDateSundayToMonday(t *testing.T) {
	sunday := time.Date(2026, 3, 8, 23, 0, 0, 0, time.UTC)
	got := OccurrenceDate(models.Monday, sunday)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), got)
}
