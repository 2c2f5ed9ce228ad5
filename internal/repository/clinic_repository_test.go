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

func newClinicRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var clinicColumns = []string{"id", "teacher_id", "subject_id", "day", "start_time", "room", "capacity", "is_active", "created_at", "updated_at"}

func TestClinicRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newClinicRepoMock(t)
	defer cleanup()
	repo := NewClinicRepository(db)

	rows := sqlmock.NewRows(clinicColumns).
		AddRow("clinic-1", "teacher-1", "subject-1", models.Monday, "19:00", "301", 18, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, teacher_id, subject_id, day, start_time, room, capacity, is_active, created_at, updated_at")).
		WithArgs("clinic-1").
		WillReturnRows(rows)

	clinic, err := repo.FindByID(context.Background(), "clinic-1")
	require.NoError(t, err)
	require.Equal(t, "clinic-1", clinic.ID)
	require.Equal(t, 18, clinic.Capacity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClinicRepositoryRosterCount(t *testing.T) {
	db, mock, cleanup := newClinicRepoMock(t)
	defer cleanup()
	repo := NewClinicRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM clinic_students WHERE clinic_id = $1")).
		WithArgs("clinic-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.RosterCount(context.Background(), "clinic-1")
	require.NoError(t, err)
	require.Equal(t, 7, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClinicRepositoryRoster(t *testing.T) {
	db, mock, cleanup := newClinicRepoMock(t)
	defer cleanup()
	repo := NewClinicRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "name", "username"}).
		AddRow("stu-1", "Kim Jiwoo", "jiwoo.kim").
		AddRow("stu-2", "Lee Haneul", "haneul.lee")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT cs.student_id, u.name, u.username")).
		WithArgs("clinic-1").
		WillReturnRows(rows)

	members, err := repo.Roster(context.Background(), "clinic-1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, "stu-1", members[0].StudentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClinicRepositoryRosterCounts(t *testing.T) {
	db, mock, cleanup := newClinicRepoMock(t)
	defer cleanup()
	repo := NewClinicRepository(db)

	rows := sqlmock.NewRows([]string{"clinic_id", "member_count"}).
		AddRow("clinic-1", 12).
		AddRow("clinic-2", 3)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT clinic_id, COUNT(*) AS member_count FROM clinic_students GROUP BY clinic_id")).
		WillReturnRows(rows)

	counts, err := repo.RosterCounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]int{"clinic-1": 12, "clinic-2": 3}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClinicRepositoryClearAllRosters(t *testing.T) {
	db, mock, cleanup := newClinicRepoMock(t)
	defer cleanup()
	repo := NewClinicRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM clinic_students")).
		WillReturnResult(sqlmock.NewResult(0, 42))

	cleared, err := repo.ClearAllRosters(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 42, cleared)
	require.NoError(t, mock.ExpectationsWereMet())
}
