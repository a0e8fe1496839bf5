package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/aba-scheduler-api/internal/dto"
	"github.com/brightpath/aba-scheduler-api/internal/models"
	"github.com/brightpath/aba-scheduler-api/internal/scheduler"
	"github.com/brightpath/aba-scheduler-api/pkg/config"
	appErrors "github.com/brightpath/aba-scheduler-api/pkg/errors"
)

type snapshotProviderStub struct {
	snap     *scheduler.Snapshot
	problems []models.ValidationError
	err      error
}

func (s *snapshotProviderStub) Snapshot(_ context.Context, _ *string) (*scheduler.Snapshot, []models.ValidationError, error) {
	return s.snap, s.problems, s.err
}

type scheduleRepoStub struct {
	db *sqlx.DB

	createdSchedule *models.GeneratedSchedule
	insertedEntries []models.ScheduleEntry
	found           *models.GeneratedSchedule
	findErr         error
	entries         []models.ScheduleEntry
	listResult      []models.GeneratedSchedule
	listTotal       int
	listErr         error
}

func (s *scheduleRepoStub) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return s.db.BeginTxx(ctx, opts)
}

func (s *scheduleRepoStub) Create(_ context.Context, _ sqlx.ExtContext, schedule *models.GeneratedSchedule) error {
	schedule.ID = "sched-1"
	s.createdSchedule = schedule
	return nil
}

func (s *scheduleRepoStub) InsertEntries(_ context.Context, _ sqlx.ExtContext, scheduleID string, entries []models.ScheduleEntry) error {
	s.insertedEntries = append([]models.ScheduleEntry(nil), entries...)
	return nil
}

func (s *scheduleRepoStub) FindByID(_ context.Context, _ string) (*models.GeneratedSchedule, error) {
	return s.found, s.findErr
}

func (s *scheduleRepoStub) ListEntries(_ context.Context, _ string) ([]models.ScheduleEntry, error) {
	return s.entries, nil
}

func (s *scheduleRepoStub) List(_ context.Context, _ models.GeneratedScheduleFilter) ([]models.GeneratedSchedule, int, error) {
	return s.listResult, s.listTotal, s.listErr
}

type generationFixture struct {
	svc      *GenerationService
	registry *snapshotProviderStub
	repo     *scheduleRepoStub
	mock     sqlmock.Sqlmock
}

func strRef(s string) *string { return &s }

func int64Ref(v int64) *int64 { return &v }

func generationSnapshot() *scheduler.Snapshot {
	team := models.Team{ID: "team-1", Name: "North"}
	staff := []models.Staff{
		{ID: "staff-a", FullName: "Ada", Role: models.RoleRBT, TeamID: strRef("team-1"), Active: true},
		{ID: "staff-b", FullName: "Bo", Role: models.RoleRBT, TeamID: strRef("team-1"), Active: true},
	}
	clients := []models.Client{
		{ID: "client-1", FullName: "Casey Hill", TeamID: strRef("team-1"), Active: true},
	}
	hours := scheduler.OperatingHours{StartMinute: 480, EndMinute: 600}
	return scheduler.NewSnapshot(staff, clients, []models.Team{team}, nil, hours)
}

func newGenerationFixture(t *testing.T) *generationFixture {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := &scheduleRepoStub{db: sqlx.NewDb(db, "sqlmock")}
	registry := &snapshotProviderStub{snap: generationSnapshot()}
	cfg := config.SchedulerConfig{
		PopulationSize:   20,
		MaxGenerations:   30,
		StagnationLimit:  5,
		Workers:          2,
		SlotMinutes:      60,
		BalanceThreshold: 2.0,
	}
	svc := NewGenerationService(registry, repo, scheduler.NewWeightStore(nil), cfg, nil, nil, nil)
	return &generationFixture{svc: svc, registry: registry, repo: repo, mock: mock}
}

func TestGeneratePersistsFeasibleSchedule(t *testing.T) {
	fx := newGenerationFixture(t)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	resp, err := fx.svc.Generate(context.Background(), dto.GenerateScheduleRequest{
		TeamID: strRef("team-1"),
		Days:   []int{1},
		Seed:   int64Ref(7),
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "sched-1", resp.ScheduleID)
	assert.Contains(t, resp.StatusMessage, "feasible schedule found")
	require.Len(t, resp.Schedule, 2)
	for _, entry := range resp.Schedule {
		assert.NotNil(t, entry.StaffID)
	}

	require.NotNil(t, fx.repo.createdSchedule)
	assert.Equal(t, models.GeneratedScheduleStatusDraft, fx.repo.createdSchedule.Status)
	assert.True(t, fx.repo.createdSchedule.Success)
	assert.Contains(t, string(fx.repo.createdSchedule.Meta), `"seed":7`)
	assert.Len(t, fx.repo.insertedEntries, 2)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	fx := newGenerationFixture(t)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	req := dto.GenerateScheduleRequest{Days: []int{1, 2}, Seed: int64Ref(42)}
	first, err := fx.svc.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := fx.svc.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Schedule, second.Schedule)
	assert.Equal(t, first.BestFitness, second.BestFitness)
	assert.Equal(t, first.Generations, second.Generations)
}

func TestGenerateConfigurationProblemsAreData(t *testing.T) {
	fx := newGenerationFixture(t)
	problems := []models.ValidationError{
		{RuleID: models.RuleConfigurationError, Message: "staff s1 references nonexistent team ghost"},
	}
	fx.registry.snap = nil
	fx.registry.problems = problems
	fx.registry.err = appErrors.Clone(appErrors.ErrConfiguration, "")

	resp, err := fx.svc.Generate(context.Background(), dto.GenerateScheduleRequest{})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, problems, resp.FinalValidationErrors)
	assert.Empty(t, resp.Schedule)
	// Nothing reaches the database for a rejected configuration.
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestGenerateRejectsMalformedRequest(t *testing.T) {
	fx := newGenerationFixture(t)
	_, err := fx.svc.Generate(context.Background(), dto.GenerateScheduleRequest{Days: []int{9}})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestGetScheduleNotFound(t *testing.T) {
	fx := newGenerationFixture(t)
	fx.repo.findErr = sql.ErrNoRows

	_, err := fx.svc.GetSchedule(context.Background(), "missing")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestGetScheduleReturnsEntries(t *testing.T) {
	fx := newGenerationFixture(t)
	fx.repo.found = &models.GeneratedSchedule{ID: "sched-1", Status: models.GeneratedScheduleStatusDraft}
	fx.repo.entries = []models.ScheduleEntry{{ID: "e1", DayOfWeek: 1, StartMinute: 480, EndMinute: 540}}

	resp, err := fx.svc.GetSchedule(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Equal(t, "sched-1", resp.Schedule.ID)
	assert.Len(t, resp.Entries, 1)
}

func TestListSchedulesNormalisesPaging(t *testing.T) {
	fx := newGenerationFixture(t)
	fx.repo.listResult = []models.GeneratedSchedule{{ID: "sched-1"}}
	fx.repo.listTotal = 1

	resp, err := fx.svc.ListSchedules(context.Background(), models.GeneratedScheduleFilter{Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.PageSize)
	assert.Equal(t, 1, resp.Total)
}

func TestValidateEntryReportsLocalViolations(t *testing.T) {
	fx := newGenerationFixture(t)

	resp, err := fx.svc.ValidateEntry(context.Background(), dto.ValidateEntryRequest{
		Entry: models.ScheduleEntry{
			ID:          "edit",
			ClientID:    strRef("client-1"),
			StaffID:     strRef("staff-a"),
			DayOfWeek:   1,
			StartMinute: 600,
			EndMinute:   540,
			SessionType: models.SessionABA,
		},
	})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	require.NotEmpty(t, resp.Violations)
	assert.Equal(t, models.RuleInvalidTimeOrder, resp.Violations[0].RuleID)
}

func TestValidateEntryCleanEdit(t *testing.T) {
	fx := newGenerationFixture(t)

	resp, err := fx.svc.ValidateEntry(context.Background(), dto.ValidateEntryRequest{
		Entry: models.ScheduleEntry{
			ID:          "edit",
			ClientID:    strRef("client-1"),
			StaffID:     strRef("staff-a"),
			DayOfWeek:   1,
			StartMinute: 480,
			EndMinute:   540,
			SessionType: models.SessionABA,
		},
		Schedule: []models.ScheduleEntry{
			{ID: "other", ClientID: strRef("client-1"), StaffID: strRef("staff-b"), DayOfWeek: 1, StartMinute: 540, EndMinute: 600, SessionType: models.SessionABA},
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.NotNil(t, resp.Violations)
	assert.Empty(t, resp.Violations)
}
