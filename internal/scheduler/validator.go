package scheduler

import (
	"fmt"
	"sort"

	"github.com/brightpath/aba-scheduler-api/internal/models"
)

// Validate runs every constraint check against a full schedule and returns
// the ordered violation list. It is a pure function: repeated calls on the
// same input produce the same output. Overlap checks are hash-indexed by
// (owner, day) so total time stays close to linear in entry count.
func Validate(entries []models.ScheduleEntry, snap *Snapshot) []models.ValidationError {
	var errs []models.ValidationError
	for i := range entries {
		errs = append(errs, checkEntry(&entries[i], snap)...)
	}
	errs = append(errs, checkDoubleBookings(entries)...)
	errs = append(errs, checkMaxStaffPerDay(entries, snap)...)
	errs = append(errs, checkWeeklyHours(entries, snap)...)
	return errs
}

// ValidateEntry is the local mode used by interactive single-entry edits:
// it runs only the checks whose inputs are local to the candidate (time
// order, role, qualification, duration, window, and double-booking against
// the rest of the current schedule). Weekly aggregates are deferred to the
// next full pass.
func ValidateEntry(candidate models.ScheduleEntry, rest []models.ScheduleEntry, snap *Snapshot) []models.ValidationError {
	errs := checkEntry(&candidate, snap)
	for i := range rest {
		other := &rest[i]
		if other.ID == candidate.ID {
			continue
		}
		if candidate.StaffID != nil && other.StaffID != nil && *candidate.StaffID == *other.StaffID && candidate.Overlaps(*other) {
			errs = append(errs, doubleBookedError(models.RuleStaffDoubleBooked, *candidate.StaffID, candidate, *other))
		}
		if candidate.ClientID != nil && other.ClientID != nil && *candidate.ClientID == *other.ClientID && candidate.Overlaps(*other) {
			errs = append(errs, doubleBookedError(models.RuleClientDoubleBooked, *candidate.ClientID, candidate, *other))
		}
	}
	return errs
}

func checkEntry(e *models.ScheduleEntry, snap *Snapshot) []models.ValidationError {
	var errs []models.ValidationError

	switch {
	case e.StartMinute == 0 && e.EndMinute == 0:
		errs = append(errs, models.ValidationError{
			RuleID:  models.RuleMissingTimes,
			Message: fmt.Sprintf("entry %s has no start or end time", e.ID),
			Details: map[string]any{"entry_id": e.ID},
		})
	case e.StartMinute >= e.EndMinute:
		errs = append(errs, models.ValidationError{
			RuleID:  models.RuleInvalidTimeOrder,
			Message: fmt.Sprintf("entry %s starts at or after its end (%s >= %s)", e.ID, models.FormatMinute(e.StartMinute), models.FormatMinute(e.EndMinute)),
			Details: map[string]any{"entry_id": e.ID, "start_minute": e.StartMinute, "end_minute": e.EndMinute},
		})
	default:
		if e.StartMinute < snap.Hours.StartMinute || e.EndMinute > snap.Hours.EndMinute {
			errs = append(errs, models.ValidationError{
				RuleID:  models.RuleOutsideOperatingHours,
				Message: fmt.Sprintf("entry %s falls outside operating hours %s-%s", e.ID, models.FormatMinute(snap.Hours.StartMinute), models.FormatMinute(snap.Hours.EndMinute)),
				Details: map[string]any{"entry_id": e.ID, "start_minute": e.StartMinute, "end_minute": e.EndMinute},
			})
		}
	}

	if e.StaffID == nil && e.SessionType.RequiresStaff() {
		errs = append(errs, models.ValidationError{
			RuleID:  models.RuleMissingTherapist,
			Message: fmt.Sprintf("entry %s has no assigned staff", e.ID),
			Details: entryDetails(e),
		})
	}
	if e.ClientID == nil && e.SessionType.RequiresClient() {
		errs = append(errs, models.ValidationError{
			RuleID:  models.RuleMissingClient,
			Message: fmt.Sprintf("%s entry %s has no client", e.SessionType, e.ID),
			Details: map[string]any{"entry_id": e.ID, "session_type": string(e.SessionType)},
		})
	}

	var staff *models.Staff
	if e.StaffID != nil {
		staff = snap.StaffByID(*e.StaffID)
	}
	var client *models.Client
	if e.ClientID != nil {
		client = snap.ClientByID(*e.ClientID)
	}

	if staff != nil {
		errs = append(errs, checkRole(e, staff)...)
	}
	if staff != nil && client != nil && !staff.HoldsAll(client.RequiredQualificationIDs) {
		errs = append(errs, models.ValidationError{
			RuleID:  models.RuleQualificationMissing,
			Message: fmt.Sprintf("staff %s lacks a qualification required by client %s", staff.ID, client.ID),
			Details: map[string]any{"entry_id": e.ID, "staff_id": staff.ID, "client_id": client.ID, "required": client.RequiredQualificationIDs},
		})
	}
	if client != nil && e.StartMinute < e.EndMinute {
		errs = append(errs, checkDuration(e, client, snap)...)
		errs = append(errs, checkAlliedWindow(e, client)...)
	}
	return errs
}

func checkRole(e *models.ScheduleEntry, staff *models.Staff) []models.ValidationError {
	var want models.StaffRole
	switch e.SessionType {
	case models.SessionAlliedHealthOT:
		want = models.RoleOT
	case models.SessionAlliedHealthSLP:
		want = models.RoleSLP
	case models.SessionABA:
		if staff.Role.AlliedHealth() {
			return []models.ValidationError{{
				RuleID:  models.RuleRoleMismatch,
				Message: fmt.Sprintf("allied-health staff %s (%s) cannot deliver ABA sessions", staff.ID, staff.Role),
				Details: map[string]any{"entry_id": e.ID, "staff_id": staff.ID, "role": string(staff.Role)},
			}}
		}
		return nil
	default:
		return nil
	}
	if staff.Role != want {
		return []models.ValidationError{{
			RuleID:  models.RuleRoleMismatch,
			Message: fmt.Sprintf("%s session requires role %s but staff %s holds %s", e.SessionType, want, staff.ID, staff.Role),
			Details: map[string]any{"entry_id": e.ID, "staff_id": staff.ID, "role": string(staff.Role), "required_role": string(want)},
		}}
	}
	return nil
}

func checkDuration(e *models.ScheduleEntry, client *models.Client, snap *Snapshot) []models.ValidationError {
	var errs []models.ValidationError
	duration := e.Duration()
	for _, q := range snap.ClientQualifications(client) {
		if q.MinSessionMinutes != nil && duration < *q.MinSessionMinutes {
			errs = append(errs, models.ValidationError{
				RuleID:  models.RuleMinDurationViolated,
				Message: fmt.Sprintf("entry %s lasts %d minutes, below the %d minute minimum of qualification %s", e.ID, duration, *q.MinSessionMinutes, q.ID),
				Details: map[string]any{"entry_id": e.ID, "qualification_id": q.ID, "duration_minutes": duration, "min_minutes": *q.MinSessionMinutes},
			})
		}
		if q.MaxSessionMinutes != nil && duration > *q.MaxSessionMinutes {
			errs = append(errs, models.ValidationError{
				RuleID:  models.RuleMaxDurationViolated,
				Message: fmt.Sprintf("entry %s lasts %d minutes, above the %d minute maximum of qualification %s", e.ID, duration, *q.MaxSessionMinutes, q.ID),
				Details: map[string]any{"entry_id": e.ID, "qualification_id": q.ID, "duration_minutes": duration, "max_minutes": *q.MaxSessionMinutes},
			})
		}
	}
	return errs
}

func checkAlliedWindow(e *models.ScheduleEntry, client *models.Client) []models.ValidationError {
	var alliedType models.AlliedHealthType
	switch e.SessionType {
	case models.SessionAlliedHealthOT:
		alliedType = models.AlliedHealthOT
	case models.SessionAlliedHealthSLP:
		alliedType = models.AlliedHealthSLP
	default:
		return nil
	}

	declared := false
	for _, need := range client.AlliedHealthNeeds {
		if need.Type != alliedType {
			continue
		}
		declared = true
		if need.OnDay(e.DayOfWeek) && e.StartMinute >= need.StartMinute && e.EndMinute <= need.EndMinute {
			return nil
		}
	}
	if !declared {
		return nil
	}
	return []models.ValidationError{{
		RuleID:  models.RuleAlliedHealthWindow,
		Message: fmt.Sprintf("%s entry %s for client %s falls outside the declared need window", e.SessionType, e.ID, client.ID),
		Details: map[string]any{"entry_id": e.ID, "client_id": client.ID, "day_of_week": e.DayOfWeek, "start_minute": e.StartMinute, "end_minute": e.EndMinute},
	}}
}

type ownerDay struct {
	owner string
	day   int
}

func checkDoubleBookings(entries []models.ScheduleEntry) []models.ValidationError {
	staffIndex := make(map[ownerDay][]*models.ScheduleEntry)
	clientIndex := make(map[ownerDay][]*models.ScheduleEntry)
	for i := range entries {
		e := &entries[i]
		if e.StaffID != nil {
			key := ownerDay{owner: *e.StaffID, day: e.DayOfWeek}
			staffIndex[key] = append(staffIndex[key], e)
		}
		if e.ClientID != nil {
			key := ownerDay{owner: *e.ClientID, day: e.DayOfWeek}
			clientIndex[key] = append(clientIndex[key], e)
		}
	}
	errs := overlapErrors(staffIndex, models.RuleStaffDoubleBooked)
	return append(errs, overlapErrors(clientIndex, models.RuleClientDoubleBooked)...)
}

func overlapErrors(index map[ownerDay][]*models.ScheduleEntry, ruleID string) []models.ValidationError {
	keys := make([]ownerDay, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].owner != keys[j].owner {
			return keys[i].owner < keys[j].owner
		}
		return keys[i].day < keys[j].day
	})

	var errs []models.ValidationError
	for _, key := range keys {
		group := index[key]
		sort.Slice(group, func(i, j int) bool {
			if group[i].StartMinute != group[j].StartMinute {
				return group[i].StartMinute < group[j].StartMinute
			}
			return group[i].ID < group[j].ID
		})
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if group[j].StartMinute >= group[i].EndMinute {
					break
				}
				errs = append(errs, doubleBookedError(ruleID, key.owner, *group[i], *group[j]))
			}
		}
	}
	return errs
}

func doubleBookedError(ruleID, ownerID string, a, b models.ScheduleEntry) models.ValidationError {
	kind := "staff"
	if ruleID == models.RuleClientDoubleBooked {
		kind = "client"
	}
	return models.ValidationError{
		RuleID: ruleID,
		Message: fmt.Sprintf("%s %s is double booked on %s: %s-%s overlaps %s-%s",
			kind, ownerID, models.WeekdayName(a.DayOfWeek),
			models.FormatMinute(a.StartMinute), models.FormatMinute(a.EndMinute),
			models.FormatMinute(b.StartMinute), models.FormatMinute(b.EndMinute)),
		Details: map[string]any{"owner_id": ownerID, "day_of_week": a.DayOfWeek, "entry_ids": []string{a.ID, b.ID}},
	}
}

func checkMaxStaffPerDay(entries []models.ScheduleEntry, snap *Snapshot) []models.ValidationError {
	type clientDay struct {
		clientID string
		day      int
	}
	distinct := make(map[clientDay]map[string]struct{})
	for i := range entries {
		e := &entries[i]
		if e.ClientID == nil || e.StaffID == nil {
			continue
		}
		key := clientDay{clientID: *e.ClientID, day: e.DayOfWeek}
		if distinct[key] == nil {
			distinct[key] = make(map[string]struct{})
		}
		distinct[key][*e.StaffID] = struct{}{}
	}

	keys := make([]clientDay, 0, len(distinct))
	for key := range distinct {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].clientID != keys[j].clientID {
			return keys[i].clientID < keys[j].clientID
		}
		return keys[i].day < keys[j].day
	})

	var errs []models.ValidationError
	for _, key := range keys {
		client := snap.ClientByID(key.clientID)
		if client == nil {
			continue
		}
		for _, q := range snap.ClientQualifications(client) {
			if q.MaxStaffPerDay == nil {
				continue
			}
			if count := len(distinct[key]); count > *q.MaxStaffPerDay {
				errs = append(errs, models.ValidationError{
					RuleID:  models.RuleMaxStaffPerDayExceeded,
					Message: fmt.Sprintf("client %s is served by %d distinct staff on %s, above the cap of %d from qualification %s", key.clientID, count, models.WeekdayName(key.day), *q.MaxStaffPerDay, q.ID),
					Details: map[string]any{"client_id": key.clientID, "day_of_week": key.day, "staff_count": count, "max_staff_per_day": *q.MaxStaffPerDay, "qualification_id": q.ID},
				})
			}
		}
	}
	return errs
}

func checkWeeklyHours(entries []models.ScheduleEntry, snap *Snapshot) []models.ValidationError {
	minutes := make(map[string]int)
	for i := range entries {
		e := &entries[i]
		if e.StaffID == nil || e.StartMinute >= e.EndMinute {
			continue
		}
		minutes[*e.StaffID] += e.Duration()
	}

	staffIDs := make([]string, 0, len(minutes))
	for id := range minutes {
		staffIDs = append(staffIDs, id)
	}
	sort.Strings(staffIDs)

	var errs []models.ValidationError
	for _, staffID := range staffIDs {
		staff := snap.StaffByID(staffID)
		if staff == nil {
			continue
		}
		total := minutes[staffID]
		for _, qid := range staff.QualificationIDs {
			q := snap.QualificationByID(qid)
			if q == nil || q.MaxHoursPerWeek == nil {
				continue
			}
			if limit := *q.MaxHoursPerWeek * 60; total > limit {
				errs = append(errs, models.ValidationError{
					RuleID:  models.RuleWeeklyHoursExceeded,
					Message: fmt.Sprintf("staff %s is scheduled %d minutes this week, above the %d hour cap from qualification %s", staffID, total, *q.MaxHoursPerWeek, q.ID),
					Details: map[string]any{"staff_id": staffID, "total_minutes": total, "max_hours_per_week": *q.MaxHoursPerWeek, "qualification_id": q.ID},
				})
			}
		}
	}
	return errs
}

func entryDetails(e *models.ScheduleEntry) map[string]any {
	details := map[string]any{"entry_id": e.ID, "day_of_week": e.DayOfWeek, "session_type": string(e.SessionType)}
	if e.ClientID != nil {
		details["client_id"] = *e.ClientID
	}
	return details
}
