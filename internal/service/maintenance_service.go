package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/chowchow0048/PMS/pkg/errors"
)

type rosterClearer interface {
	ClearAllRosters(ctx context.Context) (int64, error)
}

type noShowDecayer interface {
	DecayNoShowCounts(ctx context.Context) (int64, error)
}

type attendanceCleaner interface {
	DeleteInactiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// MaintenanceService runs the scheduled upkeep: the weekly roster reset with
// its no-show decay, and the purge of stale deactivated attendance rows that
// would otherwise squat on the uniqueness key space.
type MaintenanceService struct {
	clinics    rosterClearer
	users      noShowDecayer
	attendance attendanceCleaner
	schedule   scheduleInvalidator
	clock      Clock
	cleanupAge time.Duration
	logger     *zap.Logger
}

// NewMaintenanceService constructs MaintenanceService.
func NewMaintenanceService(
	clinics rosterClearer,
	users noShowDecayer,
	attendance attendanceCleaner,
	schedule scheduleInvalidator,
	clock Clock,
	cleanupAge time.Duration,
	logger *zap.Logger,
) *MaintenanceService {
	if clock == nil {
		clock = SystemClock()
	}
	if cleanupAge <= 0 {
		cleanupAge = 14 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{
		clinics:    clinics,
		users:      users,
		attendance: attendance,
		schedule:   schedule,
		clock:      clock,
		cleanupAge: cleanupAge,
		logger:     logger,
	}
}

// WeeklyReset clears every roster and decays every positive no-show counter
// by one. The two steps are independent: a failure in one does not undo the
// other, and each statement is atomic on its own.
func (s *MaintenanceService) WeeklyReset(ctx context.Context) error {
	cleared, err := s.clinics.ClearAllRosters(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear rosters")
	}
	decayed, err := s.users.DecayNoShowCounts(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decay no-show counts")
	}
	s.schedule.InvalidateSchedule(ctx)
	s.logger.Info("weekly reset complete",
		zap.Int64("reservations_cleared", cleared),
		zap.Int64("counters_decayed", decayed))
	return nil
}

// CleanupInactiveAttendance purges deactivated attendance rows older than the
// configured age.
func (s *MaintenanceService) CleanupInactiveAttendance(ctx context.Context) error {
	cutoff := s.clock.Now().Add(-s.cleanupAge)
	purged, err := s.attendance.DeleteInactiveOlderThan(ctx, cutoff)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge attendance rows")
	}
	s.logger.Info("inactive attendance purged",
		zap.Int64("purged", purged),
		zap.Time("cutoff", cutoff))
	return nil
}
