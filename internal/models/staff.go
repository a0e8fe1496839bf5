package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// StaffRole identifies the clinical role held by a staff member. Behavioural
// roles form an ordered hierarchy (BT lowest, BCBA highest); OT and SLP are
// allied-health roles outside the hierarchy and may only deliver sessions of
// their own discipline.
type StaffRole string

const (
	RoleBT    StaffRole = "BT"
	RoleRBT   StaffRole = "RBT"
	RoleSTAR1 StaffRole = "STAR1"
	RoleSTAR2 StaffRole = "STAR2"
	RoleSTAR3 StaffRole = "STAR3"
	RoleCF    StaffRole = "CF"
	RoleBCBA  StaffRole = "BCBA"
	RoleOT    StaffRole = "OT"
	RoleSLP   StaffRole = "SLP"
)

var roleTier = map[StaffRole]int{
	RoleBT:    1,
	RoleRBT:   2,
	RoleSTAR1: 3,
	RoleSTAR2: 4,
	RoleSTAR3: 5,
	RoleCF:    6,
	RoleBCBA:  7,
}

// Tier returns the position of a behavioural role in the hierarchy, or 0 for
// allied-health roles.
func (r StaffRole) Tier() int {
	return roleTier[r]
}

// AlliedHealth reports whether the role is restricted to allied-health
// sessions.
func (r StaffRole) AlliedHealth() bool {
	return r == RoleOT || r == RoleSLP
}

// Valid reports whether the role is part of the known taxonomy.
func (r StaffRole) Valid() bool {
	if _, ok := roleTier[r]; ok {
		return true
	}
	return r.AlliedHealth()
}

// Staff represents a therapy provider. Records are immutable for the
// duration of one scheduling run.
type Staff struct {
	ID               string         `db:"id" json:"id"`
	FullName         string         `db:"full_name" json:"full_name"`
	Role             StaffRole      `db:"role" json:"role"`
	TeamID           *string        `db:"team_id" json:"team_id,omitempty"`
	QualificationIDs []string       `db:"-" json:"qualification_ids"`
	RawQualification types.JSONText `db:"qualification_ids" json:"-"`
	Active           bool           `db:"active" json:"active"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// HoldsAll reports whether the staff member holds every qualification in ids.
func (s *Staff) HoldsAll(ids []string) bool {
	if len(ids) == 0 {
		return true
	}
	held := make(map[string]struct{}, len(s.QualificationIDs))
	for _, id := range s.QualificationIDs {
		held[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := held[id]; !ok {
			return false
		}
	}
	return true
}

// StaffFilter captures query parameters for listing staff.
type StaffFilter struct {
	TeamID    string
	Role      string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
