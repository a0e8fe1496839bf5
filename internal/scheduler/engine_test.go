package scheduler

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/aba-scheduler-api/internal/models"
)

func engineSnapshot() *Snapshot {
	team := models.Team{ID: "team-1", Name: "North"}
	staff := []models.Staff{
		{ID: "staff-a", FullName: "Ada", Role: models.RoleRBT, TeamID: strPtr("team-1"), Active: true},
		{ID: "staff-b", FullName: "Bo", Role: models.RoleRBT, TeamID: strPtr("team-1"), Active: true},
	}
	client := basicClient()
	return NewSnapshot(staff, []models.Client{client}, []models.Team{team}, nil, OperatingHours{StartMinute: 480, EndMinute: 600})
}

func testEngineConfig() Config {
	return Config{
		PopulationSize:  20,
		MaxGenerations:  40,
		StagnationLimit: 10,
		Workers:         2,
		SlotMinutes:     60,
	}
}

func TestEngineFindsFeasibleSchedule(t *testing.T) {
	engine := NewEngine(testEngineConfig(), NewEvaluator(models.DefaultWeightTable(), 2.0), nil)
	result := engine.Run(context.Background(), engineSnapshot(), []int{1}, rand.New(rand.NewSource(7)))

	require.True(t, result.Success)
	assert.Contains(t, result.StatusMessage, "feasible schedule found")
	assert.Zero(t, models.CountHard(result.FinalValidationErrors))
	require.Len(t, result.Schedule, 2)
	for _, entry := range result.Schedule {
		require.NotNil(t, entry.StaffID)
		assert.Equal(t, "client-1", *entry.ClientID)
	}
	assert.GreaterOrEqual(t, result.Generations, 1)
}

func TestEngineIsDeterministicForSeed(t *testing.T) {
	snap := engineSnapshot()
	engine := NewEngine(testEngineConfig(), NewEvaluator(models.DefaultWeightTable(), 2.0), nil)

	first := engine.Run(context.Background(), snap, []int{1, 2}, rand.New(rand.NewSource(42)))
	second := engine.Run(context.Background(), snap, []int{1, 2}, rand.New(rand.NewSource(42)))
	assert.Equal(t, first, second)
}

func TestEngineReportsInfeasibilityAsData(t *testing.T) {
	// No staff at all: every slot stays unassigned and the run ends on
	// stagnation, reporting the violations instead of failing.
	client := basicClient()
	snap := NewSnapshot(nil, []models.Client{client}, nil, nil, OperatingHours{StartMinute: 480, EndMinute: 600})

	engine := NewEngine(testEngineConfig(), NewEvaluator(models.DefaultWeightTable(), 2.0), nil)
	result := engine.Run(context.Background(), snap, []int{1}, rand.New(rand.NewSource(7)))

	require.False(t, result.Success)
	assert.Contains(t, result.StatusMessage, "no feasible schedule")
	require.Len(t, result.Schedule, 2)
	for _, entry := range result.Schedule {
		assert.Nil(t, entry.StaffID)
	}
	ids := ruleIDs(result.FinalValidationErrors)
	assert.Contains(t, ids, models.RuleMissingTherapist)
	assert.Greater(t, result.BestFitness, 0.0)
}

func TestEngineHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(testEngineConfig(), NewEvaluator(models.DefaultWeightTable(), 2.0), nil)
	result := engine.Run(ctx, engineSnapshot(), []int{1}, rand.New(rand.NewSource(7)))

	assert.Zero(t, result.Generations)
	assert.Contains(t, result.StatusMessage, "cancelled")
	assert.Len(t, result.Schedule, 2)
}

func TestEngineNoCoverageRequired(t *testing.T) {
	engine := NewEngine(testEngineConfig(), NewEvaluator(models.DefaultWeightTable(), 2.0), nil)
	result := engine.Run(context.Background(), engineSnapshot(), nil, rand.New(rand.NewSource(7)))

	assert.True(t, result.Success)
	assert.Empty(t, result.Schedule)
	assert.Contains(t, result.StatusMessage, "no coverage required")
}

func TestEngineEntryIDsAreDeterministic(t *testing.T) {
	engine := NewEngine(testEngineConfig(), NewEvaluator(models.DefaultWeightTable(), 2.0), nil)
	result := engine.Run(context.Background(), engineSnapshot(), []int{1}, rand.New(rand.NewSource(7)))

	require.Len(t, result.Schedule, 2)
	assert.Equal(t, "client-1-1-0480", result.Schedule[0].ID)
	assert.Equal(t, "client-1-1-0540", result.Schedule[1].ID)
}
