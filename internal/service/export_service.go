package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/brightpath/aba-scheduler-api/internal/models"
	appErrors "github.com/brightpath/aba-scheduler-api/pkg/errors"
	"github.com/brightpath/aba-scheduler-api/pkg/export"
)

type exportScheduleRepository interface {
	FindByID(ctx context.Context, id string) (*models.GeneratedSchedule, error)
	ListEntries(ctx context.Context, scheduleID string) ([]models.ScheduleEntry, error)
}

type exportStaffRepository interface {
	ListActive(ctx context.Context) ([]models.Staff, error)
}

type exportClientRepository interface {
	ListActive(ctx context.Context) ([]models.Client, error)
}

// ExportService renders stored schedules as CSV or PDF downloads.
type ExportService struct {
	schedules exportScheduleRepository
	staff     exportStaffRepository
	clients   exportClientRepository
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(schedules exportScheduleRepository, staff exportStaffRepository, clients exportClientRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		schedules: schedules,
		staff:     staff,
		clients:   clients,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// ExportResult carries rendered bytes plus download metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

var scheduleExportHeaders = []string{"Day", "Start", "End", "Session Type", "Client", "Staff"}

// Export renders one stored schedule in the requested format ("csv" or
// "pdf").
func (s *ExportService) Export(ctx context.Context, scheduleID, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch schedule")
	}
	entries, err := s.schedules.ListEntries(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch schedule entries")
	}

	staffNames, clientNames, err := s.nameIndexes(ctx)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: scheduleExportHeaders}
	for _, entry := range entries {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Day":          models.WeekdayName(entry.DayOfWeek),
			"Start":        models.FormatMinute(entry.StartMinute),
			"End":          models.FormatMinute(entry.EndMinute),
			"Session Type": string(entry.SessionType),
			"Client":       displayName(entry.ClientID, clientNames),
			"Staff":        displayName(entry.StaffID, staffNames),
		})
	}

	switch format {
	case "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("schedule-%s.csv", schedule.ID),
		}, nil
	default:
		content, err := s.pdf.Render(dataset, fmt.Sprintf("Weekly Schedule %s", schedule.ID))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("schedule-%s.pdf", schedule.ID),
		}, nil
	}
}

func (s *ExportService) nameIndexes(ctx context.Context) (map[string]string, map[string]string, error) {
	staff, err := s.staff.ListActive(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff")
	}
	clients, err := s.clients.ListActive(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load clients")
	}
	staffNames := make(map[string]string, len(staff))
	for _, member := range staff {
		staffNames[member.ID] = member.FullName
	}
	clientNames := make(map[string]string, len(clients))
	for _, client := range clients {
		clientNames[client.ID] = client.FullName
	}
	return staffNames, clientNames, nil
}

// displayName resolves an optional id to a roster name, falling back to the
// raw id for rostered-off records and to a dash for unassigned slots.
func displayName(id *string, names map[string]string) string {
	if id == nil {
		return "-"
	}
	if name, ok := names[*id]; ok {
		return name
	}
	return *id
}
