package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AlliedHealthType distinguishes occupational therapy from speech therapy
// needs.
type AlliedHealthType string

const (
	AlliedHealthOT  AlliedHealthType = "OT"
	AlliedHealthSLP AlliedHealthType = "SLP"
)

// AlliedHealthNeed describes an additional, narrower coverage window layered
// on top of a client's default weekly coverage. Days use ISO weekday indexes
// (1 = Monday). Times are minutes from midnight on the 15-minute grid.
type AlliedHealthNeed struct {
	Type             AlliedHealthType `json:"type"`
	Days             []int            `json:"days"`
	StartMinute      int              `json:"start_minute"`
	EndMinute        int              `json:"end_minute"`
	PreferredStaffID *string          `json:"preferred_staff_id,omitempty"`
}

// OnDay reports whether the need applies on the given weekday.
func (n AlliedHealthNeed) OnDay(day int) bool {
	for _, d := range n.Days {
		if d == day {
			return true
		}
	}
	return false
}

// SessionType returns the schedule entry session type matching the need.
func (n AlliedHealthNeed) SessionType() SessionType {
	if n.Type == AlliedHealthSLP {
		return SessionAlliedHealthSLP
	}
	return SessionAlliedHealthOT
}

// Client represents a therapy recipient. Staff assigned to a client must
// hold every qualification in RequiredQualificationIDs.
type Client struct {
	ID                       string             `db:"id" json:"id"`
	FullName                 string             `db:"full_name" json:"full_name"`
	TeamID                   *string            `db:"team_id" json:"team_id,omitempty"`
	RequiredQualificationIDs []string           `db:"-" json:"required_qualification_ids"`
	AlliedHealthNeeds        []AlliedHealthNeed `db:"-" json:"allied_health_needs"`
	RawQualifications        types.JSONText     `db:"required_qualification_ids" json:"-"`
	RawAlliedHealthNeeds     types.JSONText     `db:"allied_health_needs" json:"-"`
	Active                   bool               `db:"active" json:"active"`
	CreatedAt                time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time          `db:"updated_at" json:"updated_at"`
}

// ClientFilter captures query parameters for listing clients.
type ClientFilter struct {
	TeamID    string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
