package models

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SessionType classifies what a schedule entry delivers.
type SessionType string

const (
	SessionABA             SessionType = "ABA"
	SessionAlliedHealthOT  SessionType = "ALLIED_HEALTH_OT"
	SessionAlliedHealthSLP SessionType = "ALLIED_HEALTH_SLP"
	SessionIndirectTime    SessionType = "INDIRECT_TIME"
	SessionAdminTime       SessionType = "ADMIN_TIME"
)

// RequiresClient reports whether entries of this type must reference a
// client.
func (t SessionType) RequiresClient() bool {
	return t != SessionIndirectTime && t != SessionAdminTime
}

// RequiresStaff reports whether entries of this type must have an assigned
// staff member to be considered complete.
func (t SessionType) RequiresStaff() bool {
	return t != SessionAdminTime
}

// Weekday names indexed 1 (Monday) through 7 (Sunday).
var weekdayNames = map[int]string{
	1: "MONDAY",
	2: "TUESDAY",
	3: "WEDNESDAY",
	4: "THURSDAY",
	5: "FRIDAY",
	6: "SATURDAY",
	7: "SUNDAY",
}

// WeekdayName returns the uppercase English name for an ISO weekday index.
func WeekdayName(day int) string {
	if name, ok := weekdayNames[day]; ok {
		return name
	}
	return fmt.Sprintf("DAY_%d", day)
}

// FormatMinute renders minutes-from-midnight as HH:MM.
func FormatMinute(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// ScheduleEntry is one session in a weekly schedule. StaffID nil means
// "unassigned"; ClientID nil is only legal for non-client session types.
// Times are minutes from midnight on the 15-minute grid.
type ScheduleEntry struct {
	ID          string      `db:"id" json:"id"`
	ScheduleID  string      `db:"schedule_id" json:"-"`
	ClientID    *string     `db:"client_id" json:"client_id,omitempty"`
	StaffID     *string     `db:"staff_id" json:"staff_id,omitempty"`
	DayOfWeek   int         `db:"day_of_week" json:"day_of_week"`
	StartMinute int         `db:"start_minute" json:"start_minute"`
	EndMinute   int         `db:"end_minute" json:"end_minute"`
	SessionType SessionType `db:"session_type" json:"session_type"`
}

// Duration returns the entry length in minutes.
func (e ScheduleEntry) Duration() int {
	return e.EndMinute - e.StartMinute
}

// Overlaps reports whether two half-open [start, end) intervals on the same
// day intersect.
func (e ScheduleEntry) Overlaps(other ScheduleEntry) bool {
	return e.DayOfWeek == other.DayOfWeek && e.StartMinute < other.EndMinute && other.StartMinute < e.EndMinute
}

// GeneratedScheduleStatus tracks the lifecycle of a stored run result.
type GeneratedScheduleStatus string

const (
	GeneratedScheduleStatusDraft     GeneratedScheduleStatus = "DRAFT"
	GeneratedScheduleStatusPublished GeneratedScheduleStatus = "PUBLISHED"
	GeneratedScheduleStatusArchived  GeneratedScheduleStatus = "ARCHIVED"
)

// GeneratedSchedule is the persisted outcome of one engine run. Entries are
// stored separately and share the schedule id; no two entries share an id.
type GeneratedSchedule struct {
	ID          string                  `db:"id" json:"id"`
	TeamID      *string                 `db:"team_id" json:"team_id,omitempty"`
	Status      GeneratedScheduleStatus `db:"status" json:"status"`
	BestFitness float64                 `db:"best_fitness" json:"best_fitness"`
	Generations int                     `db:"generations" json:"generations"`
	Success     bool                    `db:"success" json:"success"`
	Meta        types.JSONText          `db:"meta" json:"meta,omitempty"`
	CreatedAt   time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time               `db:"updated_at" json:"updated_at"`
}

// GeneratedScheduleFilter captures list query parameters for stored runs.
type GeneratedScheduleFilter struct {
	TeamID   string
	Status   string
	Page     int
	PageSize int
}
