package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/chowchow0048/PMS/internal/models"
)

// AttendanceRepository handles persistence for per-occurrence attendance rows.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, clinic_id, student_id, reservation_date, expected_clinic_date, actual_date, attendance_type, is_active, created_at, updated_at`

// FindByID returns an attendance record by ID.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.ClinicAttendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM clinic_attendances WHERE id = $1`, attendanceColumns)
	var record models.ClinicAttendance
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByIDForUpdate locks the attendance row within the transaction.
func (r *AttendanceRepository) FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.ClinicAttendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM clinic_attendances WHERE id = $1 FOR UPDATE`, attendanceColumns)
	var record models.ClinicAttendance
	if err := tx.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetOrCreateTx creates the record for (clinic, student, expected date) unless
// one already exists, reconciling concurrent creators against the uniqueness
// constraint instead of double-inserting. Returns whether a row was created
// and the row now in place.
func (r *AttendanceRepository) GetOrCreateTx(ctx context.Context, tx *sqlx.Tx, record *models.ClinicAttendance) (bool, *models.ClinicAttendance, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Type == "" {
		record.Type = models.AttendanceNone
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	const insert = `INSERT INTO clinic_attendances
        (id, clinic_id, student_id, reservation_date, expected_clinic_date, attendance_type, is_active, created_at, updated_at)
        VALUES (:id, :clinic_id, :student_id, :reservation_date, :expected_clinic_date, :attendance_type, :is_active, :created_at, :updated_at)
        ON CONFLICT (clinic_id, student_id, expected_clinic_date) DO NOTHING`
	result, err := tx.NamedExecContext(ctx, insert, record)
	if err != nil {
		return false, nil, fmt.Errorf("create attendance: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, nil, fmt.Errorf("check attendance insert: %w", err)
	}
	if inserted > 0 {
		return true, record, nil
	}

	existing, err := r.findForOccurrence(ctx, tx, record.ClinicID, record.StudentID, record.ExpectedClinicDate)
	if err != nil {
		return false, nil, fmt.Errorf("load existing attendance: %w", err)
	}
	return false, existing, nil
}

func (r *AttendanceRepository) findForOccurrence(ctx context.Context, q sqlx.QueryerContext, clinicID, studentID string, date time.Time) (*models.ClinicAttendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM clinic_attendances
        WHERE clinic_id = $1 AND student_id = $2 AND expected_clinic_date = $3`, attendanceColumns)
	var record models.ClinicAttendance
	if err := sqlx.GetContext(ctx, q, &record, query, clinicID, studentID, date); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindForOccurrenceTx returns the record for one occurrence, or nil when none
// exists.
func (r *AttendanceRepository) FindForOccurrenceTx(ctx context.Context, tx *sqlx.Tx, clinicID, studentID string, date time.Time) (*models.ClinicAttendance, error) {
	record, err := r.findForOccurrence(ctx, tx, clinicID, studentID, date)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// PurgeInactiveTx deletes inactive records for the occurrence so a re-reserve
// in the same week does not collide with the uniqueness constraint.
func (r *AttendanceRepository) PurgeInactiveTx(ctx context.Context, tx *sqlx.Tx, clinicID, studentID string, date time.Time) (int64, error) {
	const query = `DELETE FROM clinic_attendances
        WHERE clinic_id = $1 AND student_id = $2 AND expected_clinic_date = $3 AND is_active = FALSE`
	result, err := tx.ExecContext(ctx, query, clinicID, studentID, date)
	if err != nil {
		return 0, fmt.Errorf("purge inactive attendance: %w", err)
	}
	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count purged attendance: %w", err)
	}
	return purged, nil
}

// ActivateTx reactivates a previously deactivated record.
func (r *AttendanceRepository) ActivateTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	const query = `UPDATE clinic_attendances SET is_active = TRUE, updated_at = NOW() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("activate attendance: %w", err)
	}
	return nil
}

// UpdateOutcomeTx sets the attendance outcome and stamps the check-in date.
func (r *AttendanceRepository) UpdateOutcomeTx(ctx context.Context, tx *sqlx.Tx, id string, outcome models.AttendanceType, actual *time.Time) error {
	const query = `UPDATE clinic_attendances SET attendance_type = $2, actual_date = $3, updated_at = NOW() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, outcome, actual); err != nil {
		return fmt.Errorf("update attendance outcome: %w", err)
	}
	return nil
}

// DeleteTx removes the record inside the transaction.
func (r *AttendanceRepository) DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM clinic_attendances WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	return nil
}

// List returns attendance records with display metadata, filtered by clinic
// and date. Date defaults to today when absent, matching the admin view.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.ClinicAttendanceDetail, error) {
	query := `SELECT a.id, a.clinic_id, a.student_id, a.reservation_date, a.expected_clinic_date, a.actual_date, a.attendance_type, a.is_active, a.created_at, a.updated_at,
        u.name AS student_name, c.day AS clinic_day, c.start_time AS clinic_time, c.room AS clinic_room
        FROM clinic_attendances a
        JOIN users u ON u.id = a.student_id
        JOIN clinics c ON c.id = a.clinic_id`
	var conditions []string
	var args []interface{}

	if filter.ClinicID != "" {
		conditions = append(conditions, fmt.Sprintf("a.clinic_id = $%d", len(args)+1))
		args = append(args, filter.ClinicID)
	}
	if filter.Date != nil {
		conditions = append(conditions, fmt.Sprintf("a.expected_clinic_date = $%d", len(args)+1))
		args = append(args, *filter.Date)
	}
	for i, condition := range conditions {
		if i == 0 {
			query += " WHERE " + condition
		} else {
			query += " AND " + condition
		}
	}
	query += " ORDER BY a.expected_clinic_date DESC, a.created_at DESC"

	var records []models.ClinicAttendanceDetail
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendances: %w", err)
	}
	return records, nil
}

// DeleteInactiveOlderThan purges stale inactive rows, returning how many were
// removed. Run by the cleanup job to keep the uniqueness key space clean.
func (r *AttendanceRepository) DeleteInactiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM clinic_attendances WHERE is_active = FALSE AND updated_at < $1`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup inactive attendance: %w", err)
	}
	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count purged attendance: %w", err)
	}
	return purged, nil
}
