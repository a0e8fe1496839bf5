package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/brightpath/aba-scheduler-api/internal/models"
)

// QualificationRepository manages persistence for insurance qualifications.
type QualificationRepository struct {
	db *sqlx.DB
}

// NewQualificationRepository constructs a QualificationRepository.
func NewQualificationRepository(db *sqlx.DB) *QualificationRepository {
	return &QualificationRepository{db: db}
}

const qualificationColumns = "id, name, max_staff_per_day, min_session_minutes, max_session_minutes, max_hours_per_week, hierarchy_order, created_at, updated_at"

// ListAll returns every qualification ordered by id.
func (r *QualificationRepository) ListAll(ctx context.Context) ([]models.InsuranceQualification, error) {
	query := fmt.Sprintf("SELECT %s FROM insurance_qualifications ORDER BY id", qualificationColumns)
	var qualifications []models.InsuranceQualification
	if err := r.db.SelectContext(ctx, &qualifications, query); err != nil {
		return nil, fmt.Errorf("list qualifications: %w", err)
	}
	return qualifications, nil
}

// FindByID fetches a qualification by id.
func (r *QualificationRepository) FindByID(ctx context.Context, id string) (*models.InsuranceQualification, error) {
	query := fmt.Sprintf("SELECT %s FROM insurance_qualifications WHERE id = $1", qualificationColumns)
	var qualification models.InsuranceQualification
	if err := r.db.GetContext(ctx, &qualification, query, id); err != nil {
		return nil, err
	}
	return &qualification, nil
}
