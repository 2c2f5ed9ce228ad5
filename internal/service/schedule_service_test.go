package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chowchow0048/PMS/internal/models"
)

type fakeScheduleReader struct {
	clinics []models.ClinicDetail
	counts  map[string]int
	rosters map[string][]models.RosterMember
}

func (f *fakeScheduleReader) ListActiveDetails(ctx context.Context) ([]models.ClinicDetail, error) {
	return f.clinics, nil
}

func (f *fakeScheduleReader) ListDetailsByDay(ctx context.Context, day models.Weekday) ([]models.ClinicDetail, error) {
	var matched []models.ClinicDetail
	for _, clinic := range f.clinics {
		if clinic.Day == day {
			matched = append(matched, clinic)
		}
	}
	return matched, nil
}

func (f *fakeScheduleReader) RosterCounts(ctx context.Context) (map[string]int, error) {
	return f.counts, nil
}

func (f *fakeScheduleReader) Rosters(ctx context.Context) (map[string][]models.RosterMember, error) {
	return f.rosters, nil
}

func (f *fakeScheduleReader) Roster(ctx context.Context, clinicID string) ([]models.RosterMember, error) {
	return f.rosters[clinicID], nil
}

func scheduleDetail(id string, day models.Weekday, start string, capacity int) models.ClinicDetail {
	return models.ClinicDetail{
		Clinic: models.Clinic{
			ID:        id,
			Day:       day,
			StartTime: start,
			Room:      "301",
			Capacity:  capacity,
			IsActive:  true,
		},
		TeacherName: "Park Teacher",
		SubjectName: "Math",
	}
}

func TestWeeklyScheduleBuildsStableGrid(t *testing.T) {
	reader := &fakeScheduleReader{
		clinics: []models.ClinicDetail{
			scheduleDetail("clinic-1", models.Monday, "19:00", 10),
			scheduleDetail("clinic-2", models.Wednesday, "20:00", 5),
		},
		counts: map[string]int{"clinic-1": 3, "clinic-2": 5},
		rosters: map[string][]models.RosterMember{
			"clinic-1": {{StudentID: "stu-1", Name: "Kim Jiwoo"}},
		},
	}
	svc := NewScheduleService(reader, nil, fixedClock{t: testNow}, zap.NewNop())

	grid, err := svc.WeeklySchedule(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, grid.TotalClinics)
	assert.Equal(t, models.WeekdayOrder, grid.Days)
	assert.Equal(t, []string{"19:00", "20:00"}, grid.Times)

	// Every day has every time slot, empty or not.
	for _, day := range grid.Days {
		require.Len(t, grid.Schedule[day], 2)
	}

	monday := grid.Schedule[models.Monday]["19:00"]
	require.NotNil(t, monday.ClinicID)
	assert.Equal(t, "clinic-1", *monday.ClinicID)
	assert.Equal(t, 3, monday.CurrentCount)
	assert.Equal(t, 7, monday.RemainingSpots)
	assert.False(t, monday.IsFull)
	assert.Len(t, monday.Students, 1)

	full := grid.Schedule[models.Wednesday]["20:00"]
	assert.True(t, full.IsFull)
	assert.Zero(t, full.RemainingSpots)
	assert.Empty(t, full.Students)

	empty := grid.Schedule[models.Sunday]["19:00"]
	assert.Nil(t, empty.ClinicID)
	assert.Zero(t, empty.Capacity)
	assert.NotNil(t, empty.Students)
}

func TestWeeklyScheduleBucketsUnknownDayUnderMonday(t *testing.T) {
	reader := &fakeScheduleReader{
		clinics: []models.ClinicDetail{
			scheduleDetail("clinic-1", "monday", "19:00", 10),
			scheduleDetail("clinic-2", models.Friday, "20:00", 5),
		},
		counts:  map[string]int{"clinic-1": 2},
		rosters: map[string][]models.RosterMember{},
	}
	svc := NewScheduleService(reader, nil, fixedClock{t: testNow}, zap.NewNop())

	// A row seeded with a day outside the enum must not break the grid.
	grid, err := svc.WeeklySchedule(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, grid.TotalClinics)

	bucketed := grid.Schedule[models.Monday]["19:00"]
	require.NotNil(t, bucketed.ClinicID)
	assert.Equal(t, "clinic-1", *bucketed.ClinicID)
	assert.Equal(t, 8, bucketed.RemainingSpots)
}

func TestTodayScheduleFiltersByWeekday(t *testing.T) {
	reader := &fakeScheduleReader{
		clinics: []models.ClinicDetail{
			scheduleDetail("clinic-1", models.Tuesday, "19:00", 10),
			scheduleDetail("clinic-2", models.Friday, "20:00", 5),
		},
		counts:  map[string]int{"clinic-1": 2},
		rosters: map[string][]models.RosterMember{},
	}
	// testNow is a Tuesday.
	svc := NewScheduleService(reader, nil, fixedClock{t: testNow}, zap.NewNop())

	cells, err := svc.TodaySchedule(context.Background())
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, "clinic-1", *cells[0].ClinicID)
	assert.Equal(t, 2, cells[0].CurrentCount)
}
