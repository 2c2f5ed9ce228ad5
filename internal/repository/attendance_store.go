package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/chowchow0048/PMS/internal/models"
)

// AttendanceTx exposes operations available while holding an attendance row's
// lock. The student row is locked after the attendance row, always in that
// order, so concurrent outcome updates cannot deadlock.
type AttendanceTx interface {
	Record() *models.ClinicAttendance
	Student() *models.User
	UpdateOutcome(ctx context.Context, outcome models.AttendanceType, actual *time.Time) error
	Delete(ctx context.Context) error
	AdjustNoShow(ctx context.Context, delta int) error
}

// AttendanceStore runs attendance units of work against PostgreSQL.
type AttendanceStore struct {
	db         *sqlx.DB
	users      *UserRepository
	attendance *AttendanceRepository
}

// NewAttendanceStore constructs the store.
func NewAttendanceStore(db *sqlx.DB, users *UserRepository, attendance *AttendanceRepository) *AttendanceStore {
	return &AttendanceStore{db: db, users: users, attendance: attendance}
}

// InAttendanceTx begins a transaction, locks the attendance row and its
// student row, then invokes fn. The transaction commits when fn returns nil.
func (s *AttendanceStore) InAttendanceTx(ctx context.Context, attendanceID string, fn func(AttendanceTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	record, err := s.attendance.FindByIDForUpdate(ctx, tx, attendanceID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	student, err := s.users.FindByIDForUpdate(ctx, tx, record.StudentID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	scoped := &attendanceTx{store: s, tx: tx, record: record, student: student}
	if err := fn(scoped); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance tx: %w", err)
	}
	return nil
}

type attendanceTx struct {
	store   *AttendanceStore
	tx      *sqlx.Tx
	record  *models.ClinicAttendance
	student *models.User
}

func (t *attendanceTx) Record() *models.ClinicAttendance {
	return t.record
}

func (t *attendanceTx) Student() *models.User {
	return t.student
}

func (t *attendanceTx) UpdateOutcome(ctx context.Context, outcome models.AttendanceType, actual *time.Time) error {
	return t.store.attendance.UpdateOutcomeTx(ctx, t.tx, t.record.ID, outcome, actual)
}

func (t *attendanceTx) Delete(ctx context.Context) error {
	return t.store.attendance.DeleteTx(ctx, t.tx, t.record.ID)
}

func (t *attendanceTx) AdjustNoShow(ctx context.Context, delta int) error {
	return t.store.users.AdjustNoShowTx(ctx, t.tx, t.student.ID, delta)
}
