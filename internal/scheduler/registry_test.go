package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/aba-scheduler-api/internal/models"
)

func TestValidateConfigurationCleanRegistry(t *testing.T) {
	quals := []models.InsuranceQualification{
		{ID: "RBT_CERT", Name: "RBT certification", MinSessionMinutes: intPtr(30), MaxSessionMinutes: intPtr(120)},
	}
	snap := rosterSnapshot(quals, basicClient())
	// staff-bcba holds BCBA_CERT which is not on file.
	problems := snap.ValidateConfiguration()
	require.Len(t, problems, 1)
	assert.Equal(t, models.RuleConfigurationError, problems[0].RuleID)
	assert.Contains(t, problems[0].Message, "BCBA_CERT")
}

func TestValidateConfigurationOperatingHours(t *testing.T) {
	snap := NewSnapshot(nil, nil, nil, nil, OperatingHours{StartMinute: 600, EndMinute: 480})
	problems := snap.ValidateConfiguration()
	require.NotEmpty(t, problems)
	assert.Contains(t, problems[0].Message, "start must precede end")

	offGrid := NewSnapshot(nil, nil, nil, nil, OperatingHours{StartMinute: 481, EndMinute: 1080})
	problems = offGrid.ValidateConfiguration()
	require.NotEmpty(t, problems)
	assert.Contains(t, problems[0].Message, "15-minute grid")
}

func TestValidateConfigurationDanglingReferences(t *testing.T) {
	staff := []models.Staff{
		{ID: "s1", Role: models.RoleRBT, TeamID: strPtr("ghost-team"), Active: true},
		{ID: "s2", Role: models.StaffRole("WIZARD"), Active: true},
	}
	client := basicClient()
	client.TeamID = strPtr("ghost-team")
	client.RequiredQualificationIDs = []string{"GHOST_CERT"}
	client.AlliedHealthNeeds = []models.AlliedHealthNeed{
		{Type: models.AlliedHealthOT, Days: []int{9}, StartMinute: 600, EndMinute: 540, PreferredStaffID: strPtr("nobody")},
	}
	snap := NewSnapshot(staff, []models.Client{client}, nil, nil, defaultHours())

	problems := snap.ValidateConfiguration()
	messages := make([]string, len(problems))
	for i, p := range problems {
		assert.Equal(t, models.RuleConfigurationError, p.RuleID)
		messages[i] = p.Message
	}
	joined := ""
	for _, m := range messages {
		joined += m + "\n"
	}
	assert.Contains(t, joined, "ghost-team")
	assert.Contains(t, joined, "WIZARD")
	assert.Contains(t, joined, "GHOST_CERT")
	assert.Contains(t, joined, "invalid day 9")
	assert.Contains(t, joined, "start >= end")
	assert.Contains(t, joined, "nobody")
}

func TestValidateConfigurationQualificationRules(t *testing.T) {
	quals := []models.InsuranceQualification{
		{ID: "BAD_CAP", Name: "Bad cap", MaxStaffPerDay: intPtr(0)},
		{ID: "BAD_HOURS", Name: "Bad hours", MaxHoursPerWeek: intPtr(-1)},
		{ID: "BAD_RANGE", Name: "Bad range", MinSessionMinutes: intPtr(120), MaxSessionMinutes: intPtr(60)},
	}
	snap := NewSnapshot(nil, nil, nil, quals, defaultHours())
	problems := snap.ValidateConfiguration()
	require.Len(t, problems, 3)
}
