package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brightpath/aba-scheduler-api/internal/models"
)

func TestEvaluatorCleanScheduleScoresZero(t *testing.T) {
	snap := rosterSnapshot(nil, basicClient())
	eval := NewEvaluator(models.DefaultWeightTable(), 2.0)
	entries := []models.ScheduleEntry{
		{ID: "e1", ClientID: strPtr("client-1"), StaffID: strPtr("staff-rbt"), DayOfWeek: 1, StartMinute: 540, EndMinute: 600, SessionType: models.SessionABA},
	}
	assert.Zero(t, eval.Score(entries, snap))
}

func TestEvaluatorUnassignedSlotSurcharge(t *testing.T) {
	snap := rosterSnapshot(nil, basicClient())
	eval := NewEvaluator(models.DefaultWeightTable(), 2.0)
	entries := []models.ScheduleEntry{
		{ID: "e1", ClientID: strPtr("client-1"), DayOfWeek: 1, StartMinute: 540, EndMinute: 600, SessionType: models.SessionABA},
	}
	// One MISSING_THERAPIST violation at the default weight plus the fixed
	// surcharge for the uncovered slot.
	score, violations := eval.ScoreDetail(entries, snap)
	assert.InDelta(t, models.DefaultRuleWeight+UnassignedSlotPenalty, score, 1e-9)
	assert.Len(t, violations, 1)
}

func TestEvaluatorPreferredProviderReward(t *testing.T) {
	team := models.Team{ID: "team-1", Name: "North"}
	staff := []models.Staff{
		{ID: "ot-a", FullName: "Ana", Role: models.RoleOT, TeamID: strPtr("team-1"), Active: true},
		{ID: "ot-b", FullName: "Ben", Role: models.RoleOT, TeamID: strPtr("team-1"), Active: true},
	}
	client := basicClient()
	client.AlliedHealthNeeds = []models.AlliedHealthNeed{
		{Type: models.AlliedHealthOT, Days: []int{1}, StartMinute: 540, EndMinute: 570, PreferredStaffID: strPtr("ot-a")},
	}
	snap := NewSnapshot(staff, []models.Client{client}, []models.Team{team}, nil, defaultHours())
	eval := NewEvaluator(models.DefaultWeightTable(), 2.0)

	// An unassigned filler entry keeps both scores above zero so the reward
	// is visible after clamping.
	filler := models.ScheduleEntry{ID: "gap", ClientID: strPtr("client-1"), DayOfWeek: 2, StartMinute: 540, EndMinute: 600, SessionType: models.SessionABA}
	otEntry := func(staffID string) models.ScheduleEntry {
		return models.ScheduleEntry{ID: "ot", ClientID: strPtr("client-1"), StaffID: strPtr(staffID), DayOfWeek: 1, StartMinute: 540, EndMinute: 570, SessionType: models.SessionAlliedHealthOT}
	}

	preferred := eval.Score([]models.ScheduleEntry{filler, otEntry("ot-a")}, snap)
	other := eval.Score([]models.ScheduleEntry{filler, otEntry("ot-b")}, snap)
	assert.InDelta(t, 0.5, other-preferred, 1e-9)
}

func TestEvaluatorWorkloadBalancePenalty(t *testing.T) {
	snap := rosterSnapshot(nil, basicClient())
	eval := NewEvaluator(models.DefaultWeightTable(), 2.0)

	entries := []models.ScheduleEntry{
		{ID: "a1", ClientID: strPtr("client-1"), StaffID: strPtr("staff-rbt"), DayOfWeek: 1, StartMinute: 480, EndMinute: 540, SessionType: models.SessionABA},
		{ID: "a2", ClientID: strPtr("client-1"), StaffID: strPtr("staff-rbt"), DayOfWeek: 1, StartMinute: 540, EndMinute: 600, SessionType: models.SessionABA},
		{ID: "a3", ClientID: strPtr("client-1"), StaffID: strPtr("staff-rbt"), DayOfWeek: 1, StartMinute: 600, EndMinute: 660, SessionType: models.SessionABA},
		{ID: "a4", ClientID: strPtr("client-1"), StaffID: strPtr("staff-rbt"), DayOfWeek: 1, StartMinute: 660, EndMinute: 720, SessionType: models.SessionABA},
		{ID: "b1", ClientID: strPtr("client-1"), StaffID: strPtr("staff-bcba"), DayOfWeek: 1, StartMinute: 720, EndMinute: 780, SessionType: models.SessionABA},
	}
	// Counts 4 and 1 give a variance of 2.25, so 0.25 above the threshold at
	// the default 0.25 balance weight.
	assert.InDelta(t, 0.0625, eval.Score(entries, snap), 1e-9)
}

func TestEvaluatorNeverNegative(t *testing.T) {
	team := models.Team{ID: "team-1", Name: "North"}
	staff := []models.Staff{
		{ID: "ot-a", FullName: "Ana", Role: models.RoleOT, TeamID: strPtr("team-1"), Active: true},
	}
	client := basicClient()
	client.AlliedHealthNeeds = []models.AlliedHealthNeed{
		{Type: models.AlliedHealthOT, Days: []int{1}, StartMinute: 540, EndMinute: 570, PreferredStaffID: strPtr("ot-a")},
	}
	snap := NewSnapshot(staff, []models.Client{client}, []models.Team{team}, nil, defaultHours())
	eval := NewEvaluator(models.DefaultWeightTable(), 2.0)

	entries := []models.ScheduleEntry{
		{ID: "ot", ClientID: strPtr("client-1"), StaffID: strPtr("ot-a"), DayOfWeek: 1, StartMinute: 540, EndMinute: 570, SessionType: models.SessionAlliedHealthOT},
	}
	assert.Zero(t, eval.Score(entries, snap))
}

func TestEvaluatorHonoursCustomWeights(t *testing.T) {
	snap := rosterSnapshot(nil, basicClient())
	table := models.DefaultWeightTable().Clone()
	table.Weights[models.RuleMissingTherapist] = 4.0
	eval := NewEvaluator(table, 2.0)

	entries := []models.ScheduleEntry{
		{ID: "e1", ClientID: strPtr("client-1"), DayOfWeek: 1, StartMinute: 540, EndMinute: 600, SessionType: models.SessionABA},
	}
	assert.InDelta(t, 4.0+UnassignedSlotPenalty, eval.Score(entries, snap), 1e-9)
}

func TestDailyLoadVariance(t *testing.T) {
	entries := []models.ScheduleEntry{
		{StaffID: strPtr("a"), DayOfWeek: 1, StartMinute: 480, EndMinute: 540},
		{StaffID: strPtr("a"), DayOfWeek: 1, StartMinute: 540, EndMinute: 600},
		{StaffID: strPtr("a"), DayOfWeek: 1, StartMinute: 600, EndMinute: 660},
		{StaffID: strPtr("a"), DayOfWeek: 1, StartMinute: 660, EndMinute: 720},
		{StaffID: strPtr("b"), DayOfWeek: 1, StartMinute: 480, EndMinute: 540},
		{DayOfWeek: 1, StartMinute: 720, EndMinute: 780},
	}
	assert.InDelta(t, 2.25, dailyLoadVariance(entries), 1e-9)
	assert.Zero(t, dailyLoadVariance(nil))
}
