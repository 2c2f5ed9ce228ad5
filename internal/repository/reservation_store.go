package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/chowchow0048/PMS/internal/models"
)

// ReservationTx exposes the operations available while holding a clinic's
// exclusive row lock. All writes within one invocation commit or roll back
// together; there is no partial-success state.
type ReservationTx interface {
	// Clinic returns the locked clinic row as read under the lock.
	Clinic() *models.Clinic
	RosterCount(ctx context.Context) (int, error)
	RosterContains(ctx context.Context, studentID string) (bool, error)
	AddStudent(ctx context.Context, studentID string) error
	RemoveStudent(ctx context.Context, studentID string) error

	// PurgeInactiveAttendance removes deactivated rows for the occurrence so a
	// fresh insert does not collide with the uniqueness constraint.
	PurgeInactiveAttendance(ctx context.Context, studentID string, date time.Time) (int64, error)
	// CreateAttendance performs a get-or-create for the record's natural key,
	// reactivating an existing inactive row. Returns whether a row was created.
	CreateAttendance(ctx context.Context, record *models.ClinicAttendance) (bool, error)
	FindAttendance(ctx context.Context, studentID string, date time.Time) (*models.ClinicAttendance, error)
	DeleteAttendance(ctx context.Context, id string) error

	// AdjustNoShow locks the student row and applies a delta floored at zero.
	AdjustNoShow(ctx context.Context, studentID string, delta int) error
	ClearMandatoryClinic(ctx context.Context, studentID string) error
}

// ReservationStore runs reservation units of work against PostgreSQL. Each
// unit locks the clinic row first, so the sequence of committed roster changes
// per clinic is totally ordered by lock acquisition order.
type ReservationStore struct {
	db         *sqlx.DB
	clinics    *ClinicRepository
	users      *UserRepository
	attendance *AttendanceRepository
}

// NewReservationStore constructs the store.
func NewReservationStore(db *sqlx.DB, clinics *ClinicRepository, users *UserRepository, attendance *AttendanceRepository) *ReservationStore {
	return &ReservationStore{db: db, clinics: clinics, users: users, attendance: attendance}
}

// InReservationTx begins a transaction, acquires the clinic's row lock and
// invokes fn with the lock-scoped operations. The transaction commits when fn
// returns nil and rolls back otherwise. A missing clinic surfaces the
// underlying sql.ErrNoRows.
func (s *ReservationStore) InReservationTx(ctx context.Context, clinicID string, fn func(ReservationTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reservation tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	clinic, err := s.clinics.FindByIDForUpdate(ctx, tx, clinicID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	scoped := &reservationTx{store: s, tx: tx, clinic: clinic}
	if err := fn(scoped); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reservation tx: %w", err)
	}
	return nil
}

type reservationTx struct {
	store  *ReservationStore
	tx     *sqlx.Tx
	clinic *models.Clinic
}

func (t *reservationTx) Clinic() *models.Clinic {
	return t.clinic
}

func (t *reservationTx) RosterCount(ctx context.Context) (int, error) {
	return t.store.clinics.RosterCountTx(ctx, t.tx, t.clinic.ID)
}

func (t *reservationTx) RosterContains(ctx context.Context, studentID string) (bool, error) {
	return t.store.clinics.RosterContainsTx(ctx, t.tx, t.clinic.ID, studentID)
}

func (t *reservationTx) AddStudent(ctx context.Context, studentID string) error {
	return t.store.clinics.AddStudentTx(ctx, t.tx, t.clinic.ID, studentID)
}

func (t *reservationTx) RemoveStudent(ctx context.Context, studentID string) error {
	return t.store.clinics.RemoveStudentTx(ctx, t.tx, t.clinic.ID, studentID)
}

func (t *reservationTx) PurgeInactiveAttendance(ctx context.Context, studentID string, date time.Time) (int64, error) {
	return t.store.attendance.PurgeInactiveTx(ctx, t.tx, t.clinic.ID, studentID, date)
}

func (t *reservationTx) CreateAttendance(ctx context.Context, record *models.ClinicAttendance) (bool, error) {
	record.ClinicID = t.clinic.ID
	created, existing, err := t.store.attendance.GetOrCreateTx(ctx, t.tx, record)
	if err != nil {
		return false, err
	}
	if !created && !existing.IsActive {
		if err := t.store.attendance.ActivateTx(ctx, t.tx, existing.ID); err != nil {
			return false, err
		}
	}
	return created, nil
}

func (t *reservationTx) FindAttendance(ctx context.Context, studentID string, date time.Time) (*models.ClinicAttendance, error) {
	return t.store.attendance.FindForOccurrenceTx(ctx, t.tx, t.clinic.ID, studentID, date)
}

func (t *reservationTx) DeleteAttendance(ctx context.Context, id string) error {
	return t.store.attendance.DeleteTx(ctx, t.tx, id)
}

func (t *reservationTx) AdjustNoShow(ctx context.Context, studentID string, delta int) error {
	if _, err := t.store.users.FindByIDForUpdate(ctx, t.tx, studentID); err != nil {
		return err
	}
	return t.store.users.AdjustNoShowTx(ctx, t.tx, studentID, delta)
}

func (t *reservationTx) ClearMandatoryClinic(ctx context.Context, studentID string) error {
	return t.store.users.ClearMandatoryClinicTx(ctx, t.tx, studentID)
}
