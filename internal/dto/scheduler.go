package dto

import "github.com/brightpath/aba-scheduler-api/internal/models"

// GenerateScheduleRequest instructs the engine to build a weekly schedule.
// Days default to Monday-Friday. Seed makes the run reproducible; omit it
// for a time-derived seed. The overrides tune the search without touching
// server configuration.
type GenerateScheduleRequest struct {
	TeamID         *string `json:"teamId"`
	Days           []int   `json:"days" validate:"omitempty,dive,min=1,max=7"`
	Seed           *int64  `json:"seed"`
	PopulationSize int     `json:"populationSize" validate:"omitempty,min=10,max=1000"`
	MaxGenerations int     `json:"maxGenerations" validate:"omitempty,min=1,max=2000"`
}

// GenerateScheduleResponse is the GA generation result contract: the best
// candidate is always returned, with success=false and the accumulated
// violations when no feasible schedule was found.
type GenerateScheduleResponse struct {
	ScheduleID            string                   `json:"scheduleId"`
	Schedule              []models.ScheduleEntry   `json:"schedule"`
	FinalValidationErrors []models.ValidationError `json:"finalValidationErrors"`
	Generations           int                      `json:"generations"`
	BestFitness           float64                  `json:"bestFitness"`
	Success               bool                     `json:"success"`
	StatusMessage         string                   `json:"statusMessage"`
}

// ScheduleDetailResponse returns a stored schedule with its entries.
type ScheduleDetailResponse struct {
	Schedule models.GeneratedSchedule `json:"schedule"`
	Entries  []models.ScheduleEntry   `json:"entries"`
}

// ScheduleListResponse pages through stored schedule headers.
type ScheduleListResponse struct {
	Schedules []models.GeneratedSchedule `json:"schedules"`
	Total     int                        `json:"total"`
	Page      int                        `json:"page"`
	PageSize  int                        `json:"pageSize"`
}

// ValidateEntryRequest checks one candidate entry against the rest of the
// current schedule without running the search engine.
type ValidateEntryRequest struct {
	Entry    models.ScheduleEntry   `json:"entry" validate:"required"`
	Schedule []models.ScheduleEntry `json:"schedule"`
}

// ValidateEntryResponse lists the local-mode violations; an empty list means
// the edit is safe to commit.
type ValidateEntryResponse struct {
	Valid      bool                     `json:"valid"`
	Violations []models.ValidationError `json:"violations"`
}
