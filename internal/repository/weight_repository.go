package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// WeightRepository persists the tuned rule weights, one row per rule id.
type WeightRepository struct {
	db *sqlx.DB
}

// NewWeightRepository constructs a WeightRepository.
func NewWeightRepository(db *sqlx.DB) *WeightRepository {
	return &WeightRepository{db: db}
}

type ruleWeightRow struct {
	RuleID    string    `db:"rule_id"`
	Weight    float64   `db:"weight"`
	UpdatedAt time.Time `db:"updated_at"`
}

// LoadAll returns the stored weight per rule id. An empty map means no
// tuning has been persisted yet and the defaults apply.
func (r *WeightRepository) LoadAll(ctx context.Context) (map[string]float64, error) {
	const query = `SELECT rule_id, weight, updated_at FROM rule_weights ORDER BY rule_id`
	var rows []ruleWeightRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("load rule weights: %w", err)
	}
	weights := make(map[string]float64, len(rows))
	for _, row := range rows {
		weights[row.RuleID] = row.Weight
	}
	return weights, nil
}

// UpsertAll writes every weight in one transaction so readers never observe
// a half-applied recalibration.
func (r *WeightRepository) UpsertAll(ctx context.Context, weights map[string]float64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin weights tx: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO rule_weights (rule_id, weight, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (rule_id) DO UPDATE SET weight = EXCLUDED.weight, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for ruleID, weight := range weights {
		if _, err := tx.ExecContext(ctx, query, ruleID, weight, now); err != nil {
			return fmt.Errorf("upsert weight %s: %w", ruleID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit weights tx: %w", err)
	}
	return nil
}
