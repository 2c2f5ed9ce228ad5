package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/chowchow0048/PMS/internal/models"
	appErrors "github.com/chowchow0048/PMS/pkg/errors"
)

const scheduleCacheKey = "clinic:weekly_schedule"

type scheduleClinicReader interface {
	ListActiveDetails(ctx context.Context) ([]models.ClinicDetail, error)
	ListDetailsByDay(ctx context.Context, day models.Weekday) ([]models.ClinicDetail, error)
	RosterCounts(ctx context.Context) (map[string]int, error)
	Rosters(ctx context.Context) (map[string][]models.RosterMember, error)
	Roster(ctx context.Context, clinicID string) ([]models.RosterMember, error)
}

// ScheduleService serves the read side: the weekly day×time grid and the
// today view. Reads take no locks; the counts they report are a snapshot and
// may be stale by the time a client acts on them, which the reserve path
// re-validates anyway.
type ScheduleService struct {
	clinics scheduleClinicReader
	cache   *CacheService
	clock   Clock
	logger  *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(clinics scheduleClinicReader, cache *CacheService, clock Clock, logger *zap.Logger) *ScheduleService {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{clinics: clinics, cache: cache, clock: clock, logger: logger}
}

// WeeklySchedule builds the full grid. Every day×time cell is present even
// when empty, so clients render a stable table.
func (s *ScheduleService) WeeklySchedule(ctx context.Context) (*models.WeeklySchedule, error) {
	var cached models.WeeklySchedule
	if hit, _ := s.cache.Get(ctx, scheduleCacheKey, &cached); hit {
		return &cached, nil
	}

	clinics, err := s.clinics.ListActiveDetails(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clinics")
	}
	counts, err := s.clinics.RosterCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count rosters")
	}
	rosters, err := s.clinics.Rosters(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rosters")
	}

	times := distinctTimes(clinics)
	schedule := make(map[models.Weekday]map[string]models.ScheduleCell, len(models.WeekdayOrder))
	for _, day := range models.WeekdayOrder {
		row := make(map[string]models.ScheduleCell, len(times))
		for _, slot := range times {
			row[slot] = models.ScheduleCell{Students: []models.RosterMember{}}
		}
		schedule[day] = row
	}
	for i := range clinics {
		clinic := &clinics[i]
		day := clinic.Day
		if !day.Valid() {
			// Mis-seeded rows bucket under Monday, matching ISOIndex, rather
			// than breaking the whole grid.
			day = models.WeekdayOrder[day.ISOIndex()]
			s.logger.Warn("clinic has unknown day",
				zap.String("clinic_id", clinic.ID),
				zap.String("day", string(clinic.Day)))
		}
		schedule[day][clinic.StartTime] = s.cell(clinic, counts[clinic.ID], rosters[clinic.ID])
	}

	grid := &models.WeeklySchedule{
		Schedule:     schedule,
		Days:         models.WeekdayOrder,
		Times:        times,
		TotalClinics: len(clinics),
	}
	_ = s.cache.Set(ctx, scheduleCacheKey, grid, 0)
	return grid, nil
}

// TodaySchedule returns the clinics running on the current weekday with live
// seat counts and rosters.
func (s *ScheduleService) TodaySchedule(ctx context.Context) ([]models.ScheduleCell, error) {
	day := WeekdayOf(s.clock.Now())
	clinics, err := s.clinics.ListDetailsByDay(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list today's clinics")
	}
	counts, err := s.clinics.RosterCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count rosters")
	}
	rosters, err := s.clinics.Rosters(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rosters")
	}

	cells := make([]models.ScheduleCell, 0, len(clinics))
	for i := range clinics {
		clinic := &clinics[i]
		cells = append(cells, s.cell(clinic, counts[clinic.ID], rosters[clinic.ID]))
	}
	return cells, nil
}

// InvalidateSchedule drops the cached grid after a committed roster change.
func (s *ScheduleService) InvalidateSchedule(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, scheduleCacheKey); err != nil {
		s.logger.Warn("schedule cache invalidation failed", zap.Error(err))
	}
}

func (s *ScheduleService) cell(clinic *models.ClinicDetail, count int, students []models.RosterMember) models.ScheduleCell {
	if students == nil {
		students = []models.RosterMember{}
	}
	remaining := clinic.Capacity - count
	if remaining < 0 {
		remaining = 0
	}
	id := clinic.ID
	teacher := clinic.TeacherName
	subject := clinic.SubjectName
	room := clinic.Room
	return models.ScheduleCell{
		ClinicID:       &id,
		TeacherName:    &teacher,
		Subject:        &subject,
		Room:           &room,
		Capacity:       clinic.Capacity,
		CurrentCount:   count,
		RemainingSpots: remaining,
		IsFull:         count >= clinic.Capacity,
		Students:       students,
	}
}

func distinctTimes(clinics []models.ClinicDetail) []string {
	seen := make(map[string]struct{})
	var times []string
	for i := range clinics {
		if _, ok := seen[clinics[i].StartTime]; ok {
			continue
		}
		seen[clinics[i].StartTime] = struct{}{}
		times = append(times, clinics[i].StartTime)
	}
	sort.Strings(times)
	return times
}
