package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/aba-scheduler-api/internal/models"
	appErrors "github.com/brightpath/aba-scheduler-api/pkg/errors"
)

type exportScheduleRepoStub struct {
	schedule *models.GeneratedSchedule
	findErr  error
	entries  []models.ScheduleEntry
}

func (s *exportScheduleRepoStub) FindByID(_ context.Context, _ string) (*models.GeneratedSchedule, error) {
	return s.schedule, s.findErr
}

func (s *exportScheduleRepoStub) ListEntries(_ context.Context, _ string) ([]models.ScheduleEntry, error) {
	return s.entries, nil
}

type exportStaffRepoStub struct{ staff []models.Staff }

func (s *exportStaffRepoStub) ListActive(_ context.Context) ([]models.Staff, error) {
	return s.staff, nil
}

type exportClientRepoStub struct{ clients []models.Client }

func (s *exportClientRepoStub) ListActive(_ context.Context) ([]models.Client, error) {
	return s.clients, nil
}

func newExportFixture(schedules *exportScheduleRepoStub) *ExportService {
	staff := &exportStaffRepoStub{staff: []models.Staff{{ID: "staff-1", FullName: "Rae Burton"}}}
	clients := &exportClientRepoStub{clients: []models.Client{{ID: "client-1", FullName: "Casey Hill"}}}
	return NewExportService(schedules, staff, clients, nil)
}

func TestExportScheduleAsCSV(t *testing.T) {
	repo := &exportScheduleRepoStub{
		schedule: &models.GeneratedSchedule{ID: "sched-1"},
		entries: []models.ScheduleEntry{
			{ID: "e1", ClientID: strRef("client-1"), StaffID: strRef("staff-1"), DayOfWeek: 1, StartMinute: 540, EndMinute: 600, SessionType: models.SessionABA},
			{ID: "e2", ClientID: strRef("client-1"), DayOfWeek: 2, StartMinute: 540, EndMinute: 600, SessionType: models.SessionABA},
			{ID: "e3", ClientID: strRef("former-client"), StaffID: strRef("staff-1"), DayOfWeek: 3, StartMinute: 540, EndMinute: 600, SessionType: models.SessionABA},
		},
	}
	svc := newExportFixture(repo)

	result, err := svc.Export(context.Background(), "sched-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "schedule-sched-1.csv", result.Filename)

	body := string(result.Content)
	assert.Contains(t, body, "Day,Start,End,Session Type,Client,Staff")
	assert.Contains(t, body, "MONDAY,09:00,10:00,ABA,Casey Hill,Rae Burton")
	// Unassigned slots render a dash, rostered-off records fall back to the id.
	assert.Contains(t, body, "TUESDAY,09:00,10:00,ABA,Casey Hill,-")
	assert.Contains(t, body, "former-client")
}

func TestExportScheduleAsPDF(t *testing.T) {
	repo := &exportScheduleRepoStub{
		schedule: &models.GeneratedSchedule{ID: "sched-1"},
		entries: []models.ScheduleEntry{
			{ID: "e1", ClientID: strRef("client-1"), StaffID: strRef("staff-1"), DayOfWeek: 1, StartMinute: 540, EndMinute: 600, SessionType: models.SessionABA},
		},
	}
	svc := newExportFixture(repo)

	result, err := svc.Export(context.Background(), "sched-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "schedule-sched-1.pdf", result.Filename)
	assert.True(t, len(result.Content) > 0)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := newExportFixture(&exportScheduleRepoStub{})

	_, err := svc.Export(context.Background(), "sched-1", "xlsx")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestExportScheduleNotFound(t *testing.T) {
	svc := newExportFixture(&exportScheduleRepoStub{findErr: sql.ErrNoRows})

	_, err := svc.Export(context.Background(), "missing", "csv")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
