package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightRepositoryLoadAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeightRepository(db)

	rows := sqlmock.NewRows([]string{"rule_id", "weight", "updated_at"}).
		AddRow("MISSING_THERAPIST", 1.4, time.Now()).
		AddRow("WEEKLY_HOURS_EXCEEDED", 0.8, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT rule_id, weight, updated_at FROM rule_weights ORDER BY rule_id")).
		WillReturnRows(rows)

	weights, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.4, weights["MISSING_THERAPIST"], 1e-9)
	assert.InDelta(t, 0.8, weights["WEEKLY_HOURS_EXCEEDED"], 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeightRepositoryLoadAllEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeightRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT rule_id, weight, updated_at FROM rule_weights ORDER BY rule_id")).
		WillReturnRows(sqlmock.NewRows([]string{"rule_id", "weight", "updated_at"}))

	weights, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, weights)
}

func TestWeightRepositoryUpsertAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeightRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO rule_weights").
		WithArgs("MISSING_THERAPIST", 1.4, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpsertAll(context.Background(), map[string]float64{"MISSING_THERAPIST": 1.4})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeightRepositoryUpsertRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeightRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO rule_weights").
		WithArgs("MISSING_THERAPIST", 1.4, sqlmock.AnyArg()).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.UpsertAll(context.Background(), map[string]float64{"MISSING_THERAPIST": 1.4})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
