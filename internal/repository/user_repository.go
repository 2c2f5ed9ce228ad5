package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/chowchow0048/PMS/internal/models"
)

// UserRepository handles persistence for students and teachers.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, name, phone_num, role, school, grade, no_show_count, mandatory_clinic, active, created_at, updated_at`

// FindByID returns a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDForUpdate locks the user row for the duration of the transaction.
// Required around no-show counter mutations so two racing attendance
// transitions cannot lose an update.
func (r *UserRepository) FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 FOR UPDATE`, userColumns)
	var user models.User
	if err := tx.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// AdjustNoShowTx applies a delta to the student's no-show counter, flooring at
// zero. Callers must hold the user's row lock.
func (r *UserRepository) AdjustNoShowTx(ctx context.Context, tx *sqlx.Tx, studentID string, delta int) error {
	const query = `UPDATE users SET no_show_count = GREATEST(no_show_count + $2, 0), updated_at = NOW() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, studentID, delta); err != nil {
		return fmt.Errorf("adjust no-show count: %w", err)
	}
	return nil
}

// ClearMandatoryClinicTx clears the mandatory-clinic flag after the student
// reserves a seat.
func (r *UserRepository) ClearMandatoryClinicTx(ctx context.Context, tx *sqlx.Tx, studentID string) error {
	const query = `UPDATE users SET mandatory_clinic = FALSE, updated_at = NOW() WHERE id = $1 AND mandatory_clinic = TRUE`
	if _, err := tx.ExecContext(ctx, query, studentID); err != nil {
		return fmt.Errorf("clear mandatory clinic flag: %w", err)
	}
	return nil
}

// DecayNoShowCounts decrements every positive no-show counter by one, floored
// at zero. Run once per week by the reset job.
func (r *UserRepository) DecayNoShowCounts(ctx context.Context) (int64, error) {
	const query = `UPDATE users SET no_show_count = no_show_count - 1, updated_at = NOW() WHERE no_show_count > 0`
	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("decay no-show counts: %w", err)
	}
	decayed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count decayed users: %w", err)
	}
	return decayed, nil
}
