package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/chowchow0048/PMS/internal/models"
)

func newUserRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "name", "phone_num", "role", "school", "grade", "no_show_count", "mandatory_clinic", "active", "created_at", "updated_at"})
}

func TestUserRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := userRows().
		AddRow("stu-1", "jiwoo.kim", "Kim Jiwoo", "01012345678", models.RoleStudent, "Hanbit High", "2", 1, false, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, name, phone_num, role, school, grade, no_show_count, mandatory_clinic, active, created_at, updated_at FROM users WHERE id = $1")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	user, err := repo.FindByID(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Equal(t, "Kim Jiwoo", user.Name)
	require.True(t, user.Role.IsStudent())
	require.Equal(t, 1, user.NoShowCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryAdjustNoShowTx(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET no_show_count = GREATEST(no_show_count + $2, 0), updated_at = NOW() WHERE id = $1")).
		WithArgs("stu-1", -2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.AdjustNoShowTx(context.Background(), tx, "stu-1", -2))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDecayNoShowCounts(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET no_show_count = no_show_count - 1, updated_at = NOW() WHERE no_show_count > 0")).
		WillReturnResult(sqlmock.NewResult(0, 5))

	decayed, err := repo.DecayNoShowCounts(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 5, decayed)
	require.NoError(t, mock.ExpectationsWereMet())
}
