package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ScheduleFeedback is one human rating of a produced schedule together with
// the validator output observed at rating time. Observations feed the
// weight-tuning service.
type ScheduleFeedback struct {
	ID               string         `db:"id" json:"id"`
	ScheduleID       *string        `db:"schedule_id" json:"schedule_id,omitempty"`
	TeamID           *string        `db:"team_id" json:"team_id,omitempty"`
	Rating           int            `db:"rating" json:"rating"`
	ViolationsCount  int            `db:"violations_count" json:"violations_count"`
	ViolationsDetail types.JSONText `db:"violations_detail" json:"violations_detail,omitempty"`
	FeedbackText     string         `db:"feedback_text" json:"feedback_text"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
}

// RuleIDs decodes the distinct rule ids present in the stored violation
// detail. Decoding is best effort; malformed detail yields no ids.
func (f *ScheduleFeedback) RuleIDs() []string {
	if len(f.ViolationsDetail) == 0 {
		return nil
	}
	var violations []ValidationError
	if err := f.ViolationsDetail.Unmarshal(&violations); err != nil {
		return nil
	}
	seen := make(map[string]struct{}, len(violations))
	var ids []string
	for _, v := range violations {
		if _, ok := seen[v.RuleID]; ok {
			continue
		}
		seen[v.RuleID] = struct{}{}
		ids = append(ids, v.RuleID)
	}
	return ids
}

// TuningDiagnostics summarises the stored observations for display.
type TuningDiagnostics struct {
	AverageRating         float64  `json:"average_rating"`
	Observations          int      `json:"observations"`
	Strengths             []string `json:"strengths"`
	RecommendedFocusAreas []string `json:"recommended_focus_areas"`
}
