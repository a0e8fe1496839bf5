package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/aba-scheduler-api/internal/models"
)

func TestFeedbackRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	mock.ExpectExec("INSERT INTO schedule_feedback").
		WithArgs(sqlmock.AnyArg(), nil, nil, 4, 0, sqlmock.AnyArg(), "solid week", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	feedback := &models.ScheduleFeedback{Rating: 4, FeedbackText: "solid week"}
	require.NoError(t, repo.Create(context.Background(), feedback))
	assert.NotEmpty(t, feedback.ID)
	assert.False(t, feedback.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepositoryListRecentClampsLimit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	cols := []string{"id", "schedule_id", "team_id", "rating", "violations_count", "violations_detail", "feedback_text", "created_at"}
	mock.ExpectQuery("SELECT id, .+ FROM schedule_feedback ORDER BY created_at DESC LIMIT 100").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("f1", nil, nil, 3, 0, nil, "", time.Now()))

	// An out-of-range limit falls back to 100.
	feedback, err := repo.ListRecent(context.Background(), 10000)
	require.NoError(t, err)
	assert.Len(t, feedback, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepositoryCountSince(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	since := time.Now().Add(-time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedule_feedback WHERE created_at > $1")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.CountSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
