package models

import "time"

// InsuranceQualification declares the payer-driven rules that apply to any
// client requiring it. All caps are optional; nil means "no rule".
type InsuranceQualification struct {
	ID                 string    `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	MaxStaffPerDay     *int      `db:"max_staff_per_day" json:"max_staff_per_day,omitempty"`
	MinSessionMinutes  *int      `db:"min_session_minutes" json:"min_session_minutes,omitempty"`
	MaxSessionMinutes  *int      `db:"max_session_minutes" json:"max_session_minutes,omitempty"`
	MaxHoursPerWeek    *int      `db:"max_hours_per_week" json:"max_hours_per_week,omitempty"`
	HierarchyOrder     *int      `db:"hierarchy_order" json:"hierarchy_order,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}
