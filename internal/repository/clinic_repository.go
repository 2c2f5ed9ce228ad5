package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/chowchow0048/PMS/internal/models"
)

// ClinicRepository handles persistence for clinic slots and their rosters.
type ClinicRepository struct {
	db *sqlx.DB
}

// NewClinicRepository constructs the repository.
func NewClinicRepository(db *sqlx.DB) *ClinicRepository {
	return &ClinicRepository{db: db}
}

// FindByID returns a clinic by its ID without locking.
func (r *ClinicRepository) FindByID(ctx context.Context, id string) (*models.Clinic, error) {
	const query = `SELECT id, teacher_id, subject_id, day, start_time, room, capacity, is_active, created_at, updated_at
        FROM clinics WHERE id = $1`
	var clinic models.Clinic
	if err := r.db.GetContext(ctx, &clinic, query, id); err != nil {
		return nil, err
	}
	return &clinic, nil
}

// FindDetailByID returns a clinic with teacher and subject names joined in.
func (r *ClinicRepository) FindDetailByID(ctx context.Context, id string) (*models.ClinicDetail, error) {
	const query = `SELECT c.id, c.teacher_id, c.subject_id, c.day, c.start_time, c.room, c.capacity, c.is_active, c.created_at, c.updated_at,
        u.name AS teacher_name, s.name AS subject_name
        FROM clinics c
        JOIN users u ON u.id = c.teacher_id
        JOIN subjects s ON s.id = c.subject_id
        WHERE c.id = $1`
	var detail models.ClinicDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByIDForUpdate fetches the clinic row with an exclusive row lock scoped to
// the given transaction. PostgreSQL rejects FOR UPDATE on the nullable side of
// an outer join, so only the clinics row is locked here; joined display data is
// read separately without the lock.
func (r *ClinicRepository) FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Clinic, error) {
	const query = `SELECT id, teacher_id, subject_id, day, start_time, room, capacity, is_active, created_at, updated_at
        FROM clinics WHERE id = $1 FOR UPDATE`
	var clinic models.Clinic
	if err := tx.GetContext(ctx, &clinic, query, id); err != nil {
		return nil, err
	}
	return &clinic, nil
}

// RosterCount returns the number of reservation holders on a clinic.
func (r *ClinicRepository) RosterCount(ctx context.Context, clinicID string) (int, error) {
	return rosterCount(ctx, r.db, clinicID)
}

// RosterCountTx is the transaction-scoped variant of RosterCount.
func (r *ClinicRepository) RosterCountTx(ctx context.Context, tx *sqlx.Tx, clinicID string) (int, error) {
	return rosterCount(ctx, tx, clinicID)
}

func rosterCount(ctx context.Context, q sqlx.QueryerContext, clinicID string) (int, error) {
	const query = `SELECT COUNT(*) FROM clinic_students WHERE clinic_id = $1`
	var count int
	if err := sqlx.GetContext(ctx, q, &count, query, clinicID); err != nil {
		return 0, fmt.Errorf("count roster: %w", err)
	}
	return count, nil
}

// RosterContainsTx reports whether the student already holds a reservation.
func (r *ClinicRepository) RosterContainsTx(ctx context.Context, tx *sqlx.Tx, clinicID, studentID string) (bool, error) {
	const query = `SELECT 1 FROM clinic_students WHERE clinic_id = $1 AND student_id = $2 LIMIT 1`
	var exists int
	if err := tx.GetContext(ctx, &exists, query, clinicID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check roster membership: %w", err)
	}
	return true, nil
}

// AddStudentTx adds a student to the roster. Callers must hold the clinic's
// row lock; nothing here re-validates capacity.
func (r *ClinicRepository) AddStudentTx(ctx context.Context, tx *sqlx.Tx, clinicID, studentID string) error {
	const query = `INSERT INTO clinic_students (clinic_id, student_id, created_at) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, query, clinicID, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add roster member: %w", err)
	}
	return nil
}

// RemoveStudentTx removes a student from the roster.
func (r *ClinicRepository) RemoveStudentTx(ctx context.Context, tx *sqlx.Tx, clinicID, studentID string) error {
	const query = `DELETE FROM clinic_students WHERE clinic_id = $1 AND student_id = $2`
	if _, err := tx.ExecContext(ctx, query, clinicID, studentID); err != nil {
		return fmt.Errorf("remove roster member: %w", err)
	}
	return nil
}

// Roster returns the reservation holders of a clinic with display names.
func (r *ClinicRepository) Roster(ctx context.Context, clinicID string) ([]models.RosterMember, error) {
	const query = `SELECT cs.student_id, u.name, u.username
        FROM clinic_students cs
        JOIN users u ON u.id = cs.student_id
        WHERE cs.clinic_id = $1
        ORDER BY cs.created_at`
	var members []models.RosterMember
	if err := r.db.SelectContext(ctx, &members, query, clinicID); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return members, nil
}

// ListActiveDetails returns all active clinics with joined names, ordered for
// the weekly grid.
func (r *ClinicRepository) ListActiveDetails(ctx context.Context) ([]models.ClinicDetail, error) {
	const query = `SELECT c.id, c.teacher_id, c.subject_id, c.day, c.start_time, c.room, c.capacity, c.is_active, c.created_at, c.updated_at,
        u.name AS teacher_name, s.name AS subject_name
        FROM clinics c
        JOIN users u ON u.id = c.teacher_id
        JOIN subjects s ON s.id = c.subject_id
        WHERE c.is_active = TRUE
        ORDER BY c.day, c.start_time`
	var clinics []models.ClinicDetail
	if err := r.db.SelectContext(ctx, &clinics, query); err != nil {
		return nil, fmt.Errorf("list active clinics: %w", err)
	}
	return clinics, nil
}

// ListDetailsByDay returns clinics scheduled on the given weekday.
func (r *ClinicRepository) ListDetailsByDay(ctx context.Context, day models.Weekday) ([]models.ClinicDetail, error) {
	const query = `SELECT c.id, c.teacher_id, c.subject_id, c.day, c.start_time, c.room, c.capacity, c.is_active, c.created_at, c.updated_at,
        u.name AS teacher_name, s.name AS subject_name
        FROM clinics c
        JOIN users u ON u.id = c.teacher_id
        JOIN subjects s ON s.id = c.subject_id
        WHERE c.day = $1
        ORDER BY c.start_time`
	var clinics []models.ClinicDetail
	if err := r.db.SelectContext(ctx, &clinics, query, day); err != nil {
		return nil, fmt.Errorf("list clinics by day: %w", err)
	}
	return clinics, nil
}

// RosterCounts returns the member count per clinic in one round trip.
func (r *ClinicRepository) RosterCounts(ctx context.Context) (map[string]int, error) {
	const query = `SELECT clinic_id, COUNT(*) AS member_count FROM clinic_students GROUP BY clinic_id`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count rosters: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var clinicID string
		var count int
		if err := rows.Scan(&clinicID, &count); err != nil {
			return nil, fmt.Errorf("scan roster count: %w", err)
		}
		counts[clinicID] = count
	}
	return counts, rows.Err()
}

// Rosters returns every clinic's members keyed by clinic ID.
func (r *ClinicRepository) Rosters(ctx context.Context) (map[string][]models.RosterMember, error) {
	const query = `SELECT cs.clinic_id, cs.student_id, u.name, u.username
        FROM clinic_students cs
        JOIN users u ON u.id = cs.student_id
        ORDER BY cs.clinic_id, cs.created_at`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rosters: %w", err)
	}
	defer rows.Close()

	rosters := make(map[string][]models.RosterMember)
	for rows.Next() {
		var clinicID string
		var member models.RosterMember
		if err := rows.Scan(&clinicID, &member.StudentID, &member.Name, &member.Username); err != nil {
			return nil, fmt.Errorf("scan roster member: %w", err)
		}
		rosters[clinicID] = append(rosters[clinicID], member)
	}
	return rosters, rows.Err()
}

// ClearAllRosters removes every reservation, returning the number cleared.
// Used by the weekly reset job.
func (r *ClinicRepository) ClearAllRosters(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM clinic_students`)
	if err != nil {
		return 0, fmt.Errorf("clear rosters: %w", err)
	}
	cleared, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleared rosters: %w", err)
	}
	return cleared, nil
}
