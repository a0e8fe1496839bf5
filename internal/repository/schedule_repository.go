package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/brightpath/aba-scheduler-api/internal/models"
)

// ScheduleRepository manages persistence for generated schedules and their
// entries.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// BeginTxx exposes transactions so the service layer can persist a schedule
// and its entries atomically.
func (r *ScheduleRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// Create stores a generated schedule header inside a transaction.
func (r *ScheduleRepository) Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.GeneratedSchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	if schedule.Status == "" {
		schedule.Status = models.GeneratedScheduleStatusDraft
	}
	const query = `
		INSERT INTO generated_schedules (id, team_id, status, best_fitness, generations, success, meta, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := exec.ExecContext(ctx, query,
		schedule.ID, schedule.TeamID, schedule.Status, schedule.BestFitness,
		schedule.Generations, schedule.Success, schedule.Meta, schedule.CreatedAt, schedule.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create generated schedule: %w", err)
	}
	return nil
}

// InsertEntries stores schedule entries in one batched statement.
func (r *ScheduleRepository) InsertEntries(ctx context.Context, exec sqlx.ExtContext, scheduleID string, entries []models.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	placeholders := make([]string, 0, len(entries))
	args := make([]interface{}, 0, len(entries)*8)
	for i, entry := range entries {
		id := entry.ID
		if id == "" {
			id = uuid.NewString()
		}
		base := i * 8
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		args = append(args, id, scheduleID, entry.ClientID, entry.StaffID, entry.DayOfWeek, entry.StartMinute, entry.EndMinute, entry.SessionType)
	}
	query := "INSERT INTO generated_schedule_entries (id, schedule_id, client_id, staff_id, day_of_week, start_minute, end_minute, session_type) VALUES " +
		strings.Join(placeholders, ", ")
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert schedule entries: %w", err)
	}
	return nil
}

// FindByID fetches a generated schedule header.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.GeneratedSchedule, error) {
	const query = `SELECT id, team_id, status, best_fitness, generations, success, meta, created_at, updated_at FROM generated_schedules WHERE id = $1`
	var schedule models.GeneratedSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListEntries returns the entries of a schedule ordered for display.
func (r *ScheduleRepository) ListEntries(ctx context.Context, scheduleID string) ([]models.ScheduleEntry, error) {
	const query = `
		SELECT id, schedule_id, client_id, staff_id, day_of_week, start_minute, end_minute, session_type
		FROM generated_schedule_entries
		WHERE schedule_id = $1
		ORDER BY day_of_week, start_minute, id`
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

// List returns stored schedule headers matching the filter.
func (r *ScheduleRepository) List(ctx context.Context, filter models.GeneratedScheduleFilter) ([]models.GeneratedSchedule, int, error) {
	base := "FROM generated_schedules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TeamID != "" {
		conditions = append(conditions, fmt.Sprintf("team_id = $%d", len(args)+1))
		args = append(args, filter.TeamID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, strings.ToUpper(filter.Status))
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, team_id, status, best_fitness, generations, success, meta, created_at, updated_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, size, offset)
	var schedules []models.GeneratedSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list generated schedules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count generated schedules: %w", err)
	}

	return schedules, total, nil
}
