package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/chowchow0048/PMS/internal/models"
	"github.com/chowchow0048/PMS/internal/repository"
	"github.com/chowchow0048/PMS/pkg/config"
	appErrors "github.com/chowchow0048/PMS/pkg/errors"
)

type reservationStore interface {
	InReservationTx(ctx context.Context, clinicID string, fn func(repository.ReservationTx) error) error
}

type clinicDetailReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.ClinicDetail, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type clinicLocker interface {
	TryAcquire(ctx context.Context, clinicID string) (bool, error)
	Release(ctx context.Context, clinicID string) error
}

type attemptLimiter interface {
	IsLimited(ctx context.Context, userID, action string) (bool, error)
}

type scheduleInvalidator interface {
	InvalidateSchedule(ctx context.Context)
}

// ReserveRequest describes a reservation attempt.
type ReserveRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	ClinicID  string `json:"clinic_id" validate:"required"`
}

// CancelRequest describes a cancellation attempt.
type CancelRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	ClinicID  string `json:"clinic_id" validate:"required"`
}

// ReservationResult is returned on a successful reserve or cancel.
type ReservationResult struct {
	Clinic         models.ClinicSummary `json:"clinic"`
	RemainingSpots int                  `json:"remaining_spots"`
}

// ReservationService is the first-come-first-served seat engine. All roster
// mutations for a clinic run under that clinic's database row lock, so no two
// committed reservations can push the roster past capacity; the Redis lock in
// front rejects a second in-flight attempt immediately instead of queuing it
// on the row.
type ReservationService struct {
	store     reservationStore
	clinics   clinicDetailReader
	users     studentReader
	locker    clinicLocker
	limiter   attemptLimiter
	schedule  scheduleInvalidator
	metrics   *MetricsService
	clock     Clock
	cfg       config.ReservationConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReservationService constructs ReservationService.
func NewReservationService(
	store reservationStore,
	clinics clinicDetailReader,
	users studentReader,
	locker clinicLocker,
	limiter attemptLimiter,
	schedule scheduleInvalidator,
	metrics *MetricsService,
	clock Clock,
	cfg config.ReservationConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *ReservationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &ReservationService{
		store:     store,
		clinics:   clinics,
		users:     users,
		locker:    locker,
		limiter:   limiter,
		schedule:  schedule,
		metrics:   metrics,
		clock:     clock,
		cfg:       cfg,
		validator: validate,
		logger:    logger,
	}
}

// Reserve books a seat for the student on the clinic's next weekly occurrence.
// Failure conditions are checked in a fixed order: rate limit first with no
// lock taken, then existence and policy checks, then capacity strictly after
// the row lock is held. Checking capacity before the lock would let two
// readers both observe one free seat and both commit.
func (s *ReservationService) Reserve(ctx context.Context, req ReserveRequest) (result *ReservationResult, err error) {
	defer func() { s.recordOutcome("reserve", err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reservation payload")
	}

	limited, err := s.limiter.IsLimited(ctx, req.StudentID, ActionReserve)
	if err != nil {
		// Fail open: an unreachable limiter admits the attempt instead of
		// taking reservations down with it. Capacity still holds via the lock.
		s.logger.Warn("rate limiter unavailable, admitting attempt",
			zap.String("student_id", req.StudentID), zap.Error(err))
		limited = false
	}
	if limited {
		s.metrics.RecordRateLimited()
		return nil, appErrors.ErrRateLimited
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	detail, err := s.clinics.FindDetailByID(ctx, req.ClinicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "clinic not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load clinic")
	}
	if !detail.IsActive {
		return nil, appErrors.ErrSlotInactive
	}

	acquired, err := s.locker.TryAcquire(ctx, req.ClinicID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lock store unavailable")
	}
	if !acquired {
		s.metrics.RecordLockContention()
		return nil, appErrors.ErrConcurrentAccess
	}
	defer s.release(ctx, req.ClinicID)

	now := s.clock.Now()
	occurrence := OccurrenceDate(detail.Day, now)

	var remaining int
	txErr := s.store.InReservationTx(ctx, req.ClinicID, func(tx repository.ReservationTx) error {
		clinic := tx.Clinic()
		if !clinic.IsActive {
			return appErrors.ErrSlotInactive
		}
		reserved, err := tx.RosterContains(ctx, student.ID)
		if err != nil {
			return err
		}
		if reserved {
			return appErrors.ErrAlreadyReserved
		}
		// A cancelled-then-re-reserved seat in the same week leaves a
		// deactivated attendance row on the occurrence key; drop it before the
		// insert below so the uniqueness constraint does not collide.
		if student.Role.IsStudent() {
			if _, err := tx.PurgeInactiveAttendance(ctx, student.ID, occurrence); err != nil {
				return err
			}
			if student.NoShowCount >= s.cfg.NoShowThreshold {
				return appErrors.ErrNoShowBlocked
			}
		}
		count, err := tx.RosterCount(ctx)
		if err != nil {
			return err
		}
		if count >= clinic.Capacity {
			return appErrors.ErrCapacityExceeded
		}
		if err := tx.AddStudent(ctx, student.ID); err != nil {
			return err
		}
		if student.Role.IsStudent() {
			record := &models.ClinicAttendance{
				StudentID:          student.ID,
				ReservationDate:    DateOnly(now),
				ExpectedClinicDate: occurrence,
				Type:               models.AttendanceNone,
				IsActive:           true,
			}
			if _, err := tx.CreateAttendance(ctx, record); err != nil {
				return err
			}
			if student.MandatoryClinic {
				if err := tx.ClearMandatoryClinic(ctx, student.ID); err != nil {
					return err
				}
			}
		}
		remaining = clinic.Capacity - count - 1
		return nil
	})
	if txErr != nil {
		return nil, s.mapTxError(txErr, "reservation failed")
	}

	s.schedule.InvalidateSchedule(ctx)
	s.logger.Info("reservation created",
		zap.String("clinic_id", req.ClinicID),
		zap.String("student_id", student.ID),
		zap.Int("remaining_spots", remaining))
	return &ReservationResult{Clinic: s.summary(detail, remaining), RemainingSpots: remaining}, nil
}

// Cancel releases the student's seat. Gated entirely by configuration so
// administrators can hard-disable self-service cancellation.
func (s *ReservationService) Cancel(ctx context.Context, req CancelRequest) (result *ReservationResult, err error) {
	defer func() { s.recordOutcome("cancel", err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancellation payload")
	}
	if !s.cfg.CancellationEnabled {
		return nil, appErrors.ErrCancellationDisabled
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	detail, err := s.clinics.FindDetailByID(ctx, req.ClinicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "clinic not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load clinic")
	}

	acquired, err := s.locker.TryAcquire(ctx, req.ClinicID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lock store unavailable")
	}
	if !acquired {
		s.metrics.RecordLockContention()
		return nil, appErrors.ErrConcurrentAccess
	}
	defer s.release(ctx, req.ClinicID)

	occurrence := OccurrenceDate(detail.Day, s.clock.Now())

	var remaining int
	txErr := s.store.InReservationTx(ctx, req.ClinicID, func(tx repository.ReservationTx) error {
		clinic := tx.Clinic()
		reserved, err := tx.RosterContains(ctx, student.ID)
		if err != nil {
			return err
		}
		if !reserved {
			return appErrors.ErrNotReserved
		}
		count, err := tx.RosterCount(ctx)
		if err != nil {
			return err
		}
		if err := tx.RemoveStudent(ctx, student.ID); err != nil {
			return err
		}
		record, err := tx.FindAttendance(ctx, student.ID, occurrence)
		if err != nil {
			return err
		}
		if record != nil {
			// Deleting a record that was marked absent un-records the
			// absence, so the penalty comes back off the counter.
			if record.Type == models.AttendanceAbsent {
				if err := tx.AdjustNoShow(ctx, student.ID, -s.cfg.NoShowPenalty); err != nil {
					return err
				}
			}
			if err := tx.DeleteAttendance(ctx, record.ID); err != nil {
				return err
			}
		}
		remaining = clinic.Capacity - count + 1
		return nil
	})
	if txErr != nil {
		return nil, s.mapTxError(txErr, "cancellation failed")
	}

	s.schedule.InvalidateSchedule(ctx)
	s.logger.Info("reservation cancelled",
		zap.String("clinic_id", req.ClinicID),
		zap.String("student_id", student.ID),
		zap.Int("remaining_spots", remaining))
	return &ReservationResult{Clinic: s.summary(detail, remaining), RemainingSpots: remaining}, nil
}

func (s *ReservationService) release(ctx context.Context, clinicID string) {
	if err := s.locker.Release(ctx, clinicID); err != nil {
		s.logger.Warn("failed to release clinic lock", zap.String("clinic_id", clinicID), zap.Error(err))
	}
}

func (s *ReservationService) mapTxError(err error, fallback string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "clinic not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fallback)
}

func (s *ReservationService) recordOutcome(operation string, err error) {
	if err == nil {
		s.metrics.RecordReservation(operation, "success")
		return
	}
	s.metrics.RecordReservation(operation, appErrors.FromError(err).Code)
}

func (s *ReservationService) summary(detail *models.ClinicDetail, remaining int) models.ClinicSummary {
	current := detail.Capacity - remaining
	if current < 0 {
		current = 0
	}
	return models.ClinicSummary{
		ID:             detail.ID,
		Day:            detail.Day,
		StartTime:      detail.StartTime,
		Room:           detail.Room,
		SubjectName:    detail.SubjectName,
		TeacherName:    detail.TeacherName,
		Capacity:       detail.Capacity,
		CurrentCount:   current,
		RemainingSpots: remaining,
	}
}
