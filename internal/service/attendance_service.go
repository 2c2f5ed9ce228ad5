package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chowchow0048/PMS/internal/models"
	"github.com/chowchow0048/PMS/internal/repository"
	appErrors "github.com/chowchow0048/PMS/pkg/errors"
	"github.com/chowchow0048/PMS/pkg/export"
)

type attendanceStore interface {
	InAttendanceTx(ctx context.Context, attendanceID string, fn func(repository.AttendanceTx) error) error
}

type attendanceLister interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.ClinicAttendanceDetail, error)
}

type clinicRosterReader interface {
	FindByID(ctx context.Context, id string) (*models.Clinic, error)
	Roster(ctx context.Context, clinicID string) ([]models.RosterMember, error)
}

type sheetRenderer interface {
	Render(sheet export.Sheet) ([]byte, error)
}

type pdfRenderer interface {
	Render(sheet export.Sheet, title string) ([]byte, error)
}

// BulkCreateResult splits get-or-create outcomes for a clinic's roster.
type BulkCreateResult struct {
	Created  []string `json:"created"`
	Existing []string `json:"existing"`
}

// AttendanceService manages the per-occurrence attendance ledger and the
// no-show counters it drives. Outcome transitions and counter adjustments run
// in one transaction with the student row locked, so two racing transitions
// for the same student cannot lose an update.
type AttendanceService struct {
	store   attendanceStore
	records attendanceLister
	clinics clinicRosterReader
	seats   reservationStore
	csv     sheetRenderer
	pdf     pdfRenderer
	clock   Clock
	penalty int
	logger  *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(
	store attendanceStore,
	records attendanceLister,
	clinics clinicRosterReader,
	seats reservationStore,
	csv sheetRenderer,
	pdf pdfRenderer,
	clock Clock,
	penalty int,
	logger *zap.Logger,
) *AttendanceService {
	if clock == nil {
		clock = SystemClock()
	}
	if penalty <= 0 {
		penalty = 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		store:   store,
		records: records,
		clinics: clinics,
		seats:   seats,
		csv:     csv,
		pdf:     pdf,
		clock:   clock,
		penalty: penalty,
		logger:  logger,
	}
}

// MarkAttendance transitions a record to the given outcome. Entering absent
// adds the no-show penalty to the student's counter; leaving absent removes
// it again, floored at zero. The penalty is larger than the weekly decay on
// purpose: missing a reserved seat costs more than it credits back.
func (s *AttendanceService) MarkAttendance(ctx context.Context, id string, outcome models.AttendanceType) (*models.ClinicAttendance, error) {
	if !outcome.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidOutcome, fmt.Sprintf("unknown attendance outcome %q", outcome))
	}

	var updated *models.ClinicAttendance
	err := s.store.InAttendanceTx(ctx, id, func(tx repository.AttendanceTx) error {
		record := tx.Record()
		previous := record.Type
		if previous != outcome && tx.Student().Role.IsStudent() {
			switch {
			case outcome == models.AttendanceAbsent:
				if err := tx.AdjustNoShow(ctx, s.penalty); err != nil {
					return err
				}
			case previous == models.AttendanceAbsent:
				if err := tx.AdjustNoShow(ctx, -s.penalty); err != nil {
					return err
				}
			}
		}
		var actual *time.Time
		if outcome != models.AttendanceNone {
			now := s.clock.Now()
			actual = &now
		}
		if err := tx.UpdateOutcome(ctx, outcome, actual); err != nil {
			return err
		}
		copied := *record
		copied.Type = outcome
		copied.ActualDate = actual
		copied.UpdatedAt = s.clock.Now()
		updated = &copied
		return nil
	})
	if err != nil {
		return nil, s.mapError(err, "failed to update attendance")
	}
	s.logger.Info("attendance updated",
		zap.String("attendance_id", id),
		zap.String("outcome", string(outcome)))
	return updated, nil
}

// Delete removes a record. Deleting a record in the absent state un-records
// the absence, so the penalty comes back off the counter first.
func (s *AttendanceService) Delete(ctx context.Context, id string) error {
	err := s.store.InAttendanceTx(ctx, id, func(tx repository.AttendanceTx) error {
		if tx.Record().Type == models.AttendanceAbsent && tx.Student().Role.IsStudent() {
			if err := tx.AdjustNoShow(ctx, -s.penalty); err != nil {
				return err
			}
		}
		return tx.Delete(ctx)
	})
	if err != nil {
		return s.mapError(err, "failed to delete attendance")
	}
	s.logger.Info("attendance deleted", zap.String("attendance_id", id))
	return nil
}

// BulkCreateForToday ensures every current roster member of the clinic has an
// attendance record for today's occurrence. Runs under the clinic's row lock
// so it cannot race a concurrent reserve on the same roster.
func (s *AttendanceService) BulkCreateForToday(ctx context.Context, clinicID string) (*BulkCreateResult, error) {
	if _, err := s.clinics.FindByID(ctx, clinicID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "clinic not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load clinic")
	}
	roster, err := s.clinics.Roster(ctx, clinicID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	today := DateOnly(s.clock.Now())
	result := &BulkCreateResult{Created: []string{}, Existing: []string{}}
	err = s.seats.InReservationTx(ctx, clinicID, func(tx repository.ReservationTx) error {
		for _, member := range roster {
			record := &models.ClinicAttendance{
				StudentID:          member.StudentID,
				ReservationDate:    today,
				ExpectedClinicDate: today,
				Type:               models.AttendanceNone,
				IsActive:           true,
			}
			created, err := tx.CreateAttendance(ctx, record)
			if err != nil {
				return err
			}
			if created {
				result.Created = append(result.Created, member.StudentID)
			} else {
				result.Existing = append(result.Existing, member.StudentID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.mapError(err, "failed to create attendance records")
	}
	s.logger.Info("attendance records ensured",
		zap.String("clinic_id", clinicID),
		zap.Int("created", len(result.Created)),
		zap.Int("existing", len(result.Existing)))
	return result, nil
}

// List returns attendance records for the admin view. The date defaults to
// today when the filter leaves it empty.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.ClinicAttendanceDetail, error) {
	if filter.Date == nil {
		today := DateOnly(s.clock.Now())
		filter.Date = &today
	}
	records, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// ExportCSV renders the filtered attendance sheet as CSV bytes.
func (s *AttendanceService) ExportCSV(ctx context.Context, filter models.AttendanceFilter) ([]byte, error) {
	records, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data, err := s.csv.Render(s.sheet(records))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, nil
}

// ExportPDF renders the filtered attendance sheet as a PDF document.
func (s *AttendanceService) ExportPDF(ctx context.Context, filter models.AttendanceFilter) ([]byte, error) {
	records, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data, err := s.pdf.Render(s.sheet(records), "Clinic Attendance")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return data, nil
}

func (s *AttendanceService) sheet(records []models.ClinicAttendanceDetail) export.Sheet {
	sheet := export.Sheet{
		Headers: []string{"Student", "Clinic Day", "Time", "Room", "Expected Date", "Outcome"},
	}
	for _, record := range records {
		sheet.Rows = append(sheet.Rows, map[string]string{
			"Student":       record.StudentName,
			"Clinic Day":    string(record.ClinicDay),
			"Time":          record.ClinicTime,
			"Room":          record.ClinicRoom,
			"Expected Date": record.ExpectedClinicDate.Format("2006-01-02"),
			"Outcome":       string(record.Type),
		})
	}
	return sheet
}

func (s *AttendanceService) mapError(err error, fallback string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fallback)
}
