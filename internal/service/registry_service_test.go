package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/aba-scheduler-api/internal/models"
	"github.com/brightpath/aba-scheduler-api/internal/scheduler"
	appErrors "github.com/brightpath/aba-scheduler-api/pkg/errors"
)

type staffRepoStub struct {
	active  []models.Staff
	list    []models.Staff
	total   int
	found   *models.Staff
	findErr error
}

func (s *staffRepoStub) List(_ context.Context, _ models.StaffFilter) ([]models.Staff, int, error) {
	return s.list, s.total, nil
}

func (s *staffRepoStub) ListActive(_ context.Context) ([]models.Staff, error) {
	return s.active, nil
}

func (s *staffRepoStub) FindByID(_ context.Context, _ string) (*models.Staff, error) {
	return s.found, s.findErr
}

type clientRepoStub struct {
	active  []models.Client
	list    []models.Client
	total   int
	found   *models.Client
	findErr error
}

func (s *clientRepoStub) List(_ context.Context, _ models.ClientFilter) ([]models.Client, int, error) {
	return s.list, s.total, nil
}

func (s *clientRepoStub) ListActive(_ context.Context) ([]models.Client, error) {
	return s.active, nil
}

func (s *clientRepoStub) FindByID(_ context.Context, _ string) (*models.Client, error) {
	return s.found, s.findErr
}

type teamRepoStub struct {
	teams []models.Team
}

func (s *teamRepoStub) ListAll(_ context.Context) ([]models.Team, error) {
	return s.teams, nil
}

func (s *teamRepoStub) FindByID(_ context.Context, id string) (*models.Team, error) {
	for i := range s.teams {
		if s.teams[i].ID == id {
			return &s.teams[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

type qualificationRepoStub struct {
	qualifications []models.InsuranceQualification
}

func (s *qualificationRepoStub) ListAll(_ context.Context) ([]models.InsuranceQualification, error) {
	return s.qualifications, nil
}

func newRegistryFixture(staff *staffRepoStub, clients *clientRepoStub, teams *teamRepoStub) *RegistryService {
	hours := scheduler.OperatingHours{StartMinute: 480, EndMinute: 1080}
	return NewRegistryService(staff, clients, teams, &qualificationRepoStub{}, hours, nil)
}

func TestRegistrySnapshotScopesToTeam(t *testing.T) {
	staff := &staffRepoStub{active: []models.Staff{
		{ID: "s1", Role: models.RoleRBT, TeamID: strRef("team-1"), Active: true},
		{ID: "s2", Role: models.RoleRBT, TeamID: strRef("team-2"), Active: true},
	}}
	clients := &clientRepoStub{active: []models.Client{
		{ID: "c1", TeamID: strRef("team-1"), Active: true},
		{ID: "c2", TeamID: strRef("team-2"), Active: true},
	}}
	teams := &teamRepoStub{teams: []models.Team{{ID: "team-1"}, {ID: "team-2"}}}
	svc := newRegistryFixture(staff, clients, teams)

	snap, problems, err := svc.Snapshot(context.Background(), strRef("team-1"))
	require.NoError(t, err)
	assert.Empty(t, problems)
	require.Len(t, snap.Staff, 1)
	assert.Equal(t, "s1", snap.Staff[0].ID)
	require.Len(t, snap.Clients, 1)
	assert.Equal(t, "c1", snap.Clients[0].ID)
}

func TestRegistrySnapshotUnscoped(t *testing.T) {
	staff := &staffRepoStub{active: []models.Staff{
		{ID: "s1", Role: models.RoleRBT, Active: true},
	}}
	clients := &clientRepoStub{active: []models.Client{{ID: "c1", Active: true}}}
	svc := newRegistryFixture(staff, clients, &teamRepoStub{})

	snap, problems, err := svc.Snapshot(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, problems)
	assert.Len(t, snap.Staff, 1)
	assert.Len(t, snap.Clients, 1)
}

func TestRegistrySnapshotReportsConfigurationProblems(t *testing.T) {
	staff := &staffRepoStub{active: []models.Staff{
		{ID: "s1", Role: models.RoleRBT, TeamID: strRef("ghost-team"), Active: true},
	}}
	svc := newRegistryFixture(staff, &clientRepoStub{}, &teamRepoStub{})

	snap, problems, err := svc.Snapshot(context.Background(), nil)
	assert.Nil(t, snap)
	require.NotEmpty(t, problems)
	assert.Equal(t, models.RuleConfigurationError, problems[0].RuleID)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConfiguration.Code, appErr.Code)
}

func TestRegistryGetStaffNotFound(t *testing.T) {
	svc := newRegistryFixture(&staffRepoStub{findErr: sql.ErrNoRows}, &clientRepoStub{}, &teamRepoStub{})

	_, err := svc.GetStaff(context.Background(), "missing")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestRegistryGetClientNotFound(t *testing.T) {
	svc := newRegistryFixture(&staffRepoStub{}, &clientRepoStub{findErr: sql.ErrNoRows}, &teamRepoStub{})

	_, err := svc.GetClient(context.Background(), "missing")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestRegistryListStaffPassthrough(t *testing.T) {
	staff := &staffRepoStub{list: []models.Staff{{ID: "s1"}}, total: 7}
	svc := newRegistryFixture(staff, &clientRepoStub{}, &teamRepoStub{})

	list, total, err := svc.ListStaff(context.Background(), models.StaffFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 7, total)
}
