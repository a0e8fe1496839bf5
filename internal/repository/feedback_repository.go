package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/brightpath/aba-scheduler-api/internal/models"
)

// FeedbackRepository manages persistence for schedule feedback.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository constructs a FeedbackRepository.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create stores one feedback record.
func (r *FeedbackRepository) Create(ctx context.Context, feedback *models.ScheduleFeedback) error {
	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	feedback.CreatedAt = time.Now().UTC()
	const query = `
		INSERT INTO schedule_feedback (id, schedule_id, team_id, rating, violations_count, violations_detail, feedback_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query,
		feedback.ID, feedback.ScheduleID, feedback.TeamID, feedback.Rating,
		feedback.ViolationsCount, feedback.ViolationsDetail, feedback.FeedbackText, feedback.CreatedAt,
	); err != nil {
		return fmt.Errorf("create schedule feedback: %w", err)
	}
	return nil
}

// ListRecent returns the most recent feedback records, newest first.
func (r *FeedbackRepository) ListRecent(ctx context.Context, limit int) ([]models.ScheduleFeedback, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := fmt.Sprintf(`
		SELECT id, schedule_id, team_id, rating, violations_count, violations_detail, feedback_text, created_at
		FROM schedule_feedback
		ORDER BY created_at DESC
		LIMIT %d`, limit)
	var feedback []models.ScheduleFeedback
	if err := r.db.SelectContext(ctx, &feedback, query); err != nil {
		return nil, fmt.Errorf("list recent feedback: %w", err)
	}
	return feedback, nil
}

// CountSince returns how many feedback records arrived after the given time.
func (r *FeedbackRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM schedule_feedback WHERE created_at > $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, since); err != nil {
		return 0, fmt.Errorf("count feedback since: %w", err)
	}
	return total, nil
}
