package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/aba-scheduler-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var staffRows = []string{"id", "full_name", "role", "team_id", "qualification_ids", "active", "created_at", "updated_at"}

func TestStaffRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	rows := sqlmock.NewRows(staffRows).
		AddRow("s1", "Rae Burton", "RBT", nil, []byte(`["RBT_CERT"]`), true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, role, team_id, qualification_ids, active, created_at, updated_at FROM staff WHERE 1=1 ORDER BY full_name ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM staff WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.StaffFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, []string{"RBT_CERT"}, list[0].QualificationIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	mock.ExpectQuery("SELECT id, .+ FROM staff WHERE 1=1 AND team_id = \\$1 AND role = \\$2 ORDER BY full_name ASC LIMIT 20 OFFSET 0").
		WithArgs("team-1", "RBT").
		WillReturnRows(sqlmock.NewRows(staffRows))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM staff WHERE 1=1 AND team_id = \\$1 AND role = \\$2").
		WithArgs("team-1", "RBT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.StaffFilter{TeamID: "team-1", Role: "rbt"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	rows := sqlmock.NewRows(staffRows).
		AddRow("s1", "Rae Burton", "RBT", "team-1", []byte(`["RBT_CERT"]`), true, time.Now(), time.Now()).
		AddRow("s2", "Olive Tran", "OT", "team-1", []byte(`[]`), true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, role, team_id, qualification_ids, active, created_at, updated_at FROM staff WHERE active = TRUE ORDER BY id")).
		WillReturnRows(rows)

	staff, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, staff, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	rows := sqlmock.NewRows(staffRows).
		AddRow("s1", "Rae Burton", "RBT", "team-1", []byte(`["RBT_CERT","CPR"]`), true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, role, team_id, qualification_ids, active, created_at, updated_at FROM staff WHERE id = $1")).
		WithArgs("s1").
		WillReturnRows(rows)

	staff, err := repo.FindByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleRBT, staff.Role)
	assert.Equal(t, []string{"RBT_CERT", "CPR"}, staff.QualificationIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
