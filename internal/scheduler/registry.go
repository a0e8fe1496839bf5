package scheduler

import (
	"fmt"
	"sort"

	"github.com/brightpath/aba-scheduler-api/internal/models"
)

// GridMinutes is the granularity of the weekly time grid.
const GridMinutes = 15

// OperatingHours bounds the company day, in minutes from midnight on the
// 15-minute grid.
type OperatingHours struct {
	StartMinute int
	EndMinute   int
}

// AlignedToGrid reports whether a minute value sits on the 15-minute grid.
func AlignedToGrid(minute int) bool {
	return minute%GridMinutes == 0
}

// Snapshot is a read-only view of the domain registry taken at the start of
// a run. The engine never mutates it, so it is safe to share across
// concurrent fitness evaluations.
type Snapshot struct {
	Staff          []models.Staff
	Clients        []models.Client
	Teams          []models.Team
	Qualifications []models.InsuranceQualification
	Hours          OperatingHours

	staffByID  map[string]*models.Staff
	clientByID map[string]*models.Client
	teamByID   map[string]*models.Team
	qualByID   map[string]*models.InsuranceQualification
}

// NewSnapshot indexes the registry records for constant-time lookups.
func NewSnapshot(staff []models.Staff, clients []models.Client, teams []models.Team, qualifications []models.InsuranceQualification, hours OperatingHours) *Snapshot {
	s := &Snapshot{
		Staff:          staff,
		Clients:        clients,
		Teams:          teams,
		Qualifications: qualifications,
		Hours:          hours,
		staffByID:      make(map[string]*models.Staff, len(staff)),
		clientByID:     make(map[string]*models.Client, len(clients)),
		teamByID:       make(map[string]*models.Team, len(teams)),
		qualByID:       make(map[string]*models.InsuranceQualification, len(qualifications)),
	}
	for i := range staff {
		s.staffByID[staff[i].ID] = &s.Staff[i]
	}
	for i := range clients {
		s.clientByID[clients[i].ID] = &s.Clients[i]
	}
	for i := range teams {
		s.teamByID[teams[i].ID] = &s.Teams[i]
	}
	for i := range qualifications {
		s.qualByID[qualifications[i].ID] = &s.Qualifications[i]
	}
	return s
}

// StaffByID returns the staff record for an id, or nil.
func (s *Snapshot) StaffByID(id string) *models.Staff {
	return s.staffByID[id]
}

// ClientByID returns the client record for an id, or nil.
func (s *Snapshot) ClientByID(id string) *models.Client {
	return s.clientByID[id]
}

// QualificationByID returns the qualification record for an id, or nil.
func (s *Snapshot) QualificationByID(id string) *models.InsuranceQualification {
	return s.qualByID[id]
}

// ClientQualifications resolves the qualification rules attached to a
// client's requirements, skipping unknown ids.
func (s *Snapshot) ClientQualifications(c *models.Client) []*models.InsuranceQualification {
	result := make([]*models.InsuranceQualification, 0, len(c.RequiredQualificationIDs))
	for _, id := range c.RequiredQualificationIDs {
		if q := s.qualByID[id]; q != nil {
			result = append(result, q)
		}
	}
	return result
}

// ValidateConfiguration checks the registry for malformed records that would
// make a run meaningless. Problems are reported before a search starts, not
// discovered mid-generation.
func (s *Snapshot) ValidateConfiguration() []models.ValidationError {
	var errs []models.ValidationError
	configErr := func(msg string, details map[string]any) {
		errs = append(errs, models.ValidationError{RuleID: models.RuleConfigurationError, Message: msg, Details: details})
	}

	if s.Hours.StartMinute >= s.Hours.EndMinute {
		configErr("operating hours start must precede end", map[string]any{"start": s.Hours.StartMinute, "end": s.Hours.EndMinute})
	}
	if !AlignedToGrid(s.Hours.StartMinute) || !AlignedToGrid(s.Hours.EndMinute) {
		configErr("operating hours must align to the 15-minute grid", map[string]any{"start": s.Hours.StartMinute, "end": s.Hours.EndMinute})
	}

	for i := range s.Staff {
		st := &s.Staff[i]
		if !st.Role.Valid() {
			configErr(fmt.Sprintf("staff %s has unknown role %q", st.ID, st.Role), map[string]any{"staff_id": st.ID})
		}
		if st.TeamID != nil && s.teamByID[*st.TeamID] == nil {
			configErr(fmt.Sprintf("staff %s references nonexistent team %s", st.ID, *st.TeamID), map[string]any{"staff_id": st.ID, "team_id": *st.TeamID})
		}
		for _, qid := range st.QualificationIDs {
			if s.qualByID[qid] == nil {
				configErr(fmt.Sprintf("staff %s holds unknown qualification %s", st.ID, qid), map[string]any{"staff_id": st.ID, "qualification_id": qid})
			}
		}
	}

	for i := range s.Clients {
		c := &s.Clients[i]
		if c.TeamID != nil && s.teamByID[*c.TeamID] == nil {
			configErr(fmt.Sprintf("client %s references nonexistent team %s", c.ID, *c.TeamID), map[string]any{"client_id": c.ID, "team_id": *c.TeamID})
		}
		for _, qid := range c.RequiredQualificationIDs {
			if s.qualByID[qid] == nil {
				configErr(fmt.Sprintf("client %s requires unknown qualification %s", c.ID, qid), map[string]any{"client_id": c.ID, "qualification_id": qid})
			}
		}
		for _, need := range c.AlliedHealthNeeds {
			if need.StartMinute >= need.EndMinute {
				configErr(fmt.Sprintf("client %s has an allied-health window with start >= end", c.ID), map[string]any{"client_id": c.ID, "type": string(need.Type)})
			}
			for _, day := range need.Days {
				if day < 1 || day > 7 {
					configErr(fmt.Sprintf("client %s has an allied-health need on invalid day %d", c.ID, day), map[string]any{"client_id": c.ID, "day": day})
				}
			}
			if need.PreferredStaffID != nil && s.staffByID[*need.PreferredStaffID] == nil {
				configErr(fmt.Sprintf("client %s prefers nonexistent staff %s", c.ID, *need.PreferredStaffID), map[string]any{"client_id": c.ID, "staff_id": *need.PreferredStaffID})
			}
		}
	}

	for i := range s.Qualifications {
		q := &s.Qualifications[i]
		if q.MaxStaffPerDay != nil && *q.MaxStaffPerDay <= 0 {
			configErr(fmt.Sprintf("qualification %s declares an unsatisfiable maxStaffPerDay of %d", q.ID, *q.MaxStaffPerDay), map[string]any{"qualification_id": q.ID})
		}
		if q.MaxHoursPerWeek != nil && *q.MaxHoursPerWeek <= 0 {
			configErr(fmt.Sprintf("qualification %s declares an unsatisfiable maxHoursPerWeek of %d", q.ID, *q.MaxHoursPerWeek), map[string]any{"qualification_id": q.ID})
		}
		if q.MinSessionMinutes != nil && q.MaxSessionMinutes != nil && *q.MinSessionMinutes > *q.MaxSessionMinutes {
			configErr(fmt.Sprintf("qualification %s min session duration exceeds max", q.ID), map[string]any{"qualification_id": q.ID})
		}
	}

	return errs
}

// sortedClientIDs returns client ids in lexical order for deterministic
// iteration.
func (s *Snapshot) sortedClientIDs() []string {
	ids := make([]string, 0, len(s.clientByID))
	for id := range s.clientByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
