package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/brightpath/aba-scheduler-api/internal/models"
	"github.com/brightpath/aba-scheduler-api/internal/scheduler"
	appErrors "github.com/brightpath/aba-scheduler-api/pkg/errors"
)

type registryStaffRepository interface {
	List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, int, error)
	ListActive(ctx context.Context) ([]models.Staff, error)
	FindByID(ctx context.Context, id string) (*models.Staff, error)
}

type registryClientRepository interface {
	List(ctx context.Context, filter models.ClientFilter) ([]models.Client, int, error)
	ListActive(ctx context.Context) ([]models.Client, error)
	FindByID(ctx context.Context, id string) (*models.Client, error)
}

type registryTeamRepository interface {
	ListAll(ctx context.Context) ([]models.Team, error)
	FindByID(ctx context.Context, id string) (*models.Team, error)
}

type registryQualificationRepository interface {
	ListAll(ctx context.Context) ([]models.InsuranceQualification, error)
}

// RegistryService assembles the roster data the validator and engine consume
// and exposes the read endpoints for staff, clients, teams and
// qualifications.
type RegistryService struct {
	staff          registryStaffRepository
	clients        registryClientRepository
	teams          registryTeamRepository
	qualifications registryQualificationRepository
	hours          scheduler.OperatingHours
	logger         *zap.Logger
}

// NewRegistryService constructs a RegistryService.
func NewRegistryService(
	staff registryStaffRepository,
	clients registryClientRepository,
	teams registryTeamRepository,
	qualifications registryQualificationRepository,
	hours scheduler.OperatingHours,
	logger *zap.Logger,
) *RegistryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistryService{
		staff:          staff,
		clients:        clients,
		teams:          teams,
		qualifications: qualifications,
		hours:          hours,
		logger:         logger,
	}
}

// Snapshot loads the active roster into an immutable snapshot, optionally
// scoped to one team. Configuration problems are returned as validator output
// alongside a typed error so callers can surface them as data.
func (s *RegistryService) Snapshot(ctx context.Context, teamID *string) (*scheduler.Snapshot, []models.ValidationError, error) {
	staff, err := s.staff.ListActive(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff roster")
	}
	clients, err := s.clients.ListActive(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client roster")
	}
	teams, err := s.teams.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teams")
	}
	qualifications, err := s.qualifications.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load qualifications")
	}

	if teamID != nil && *teamID != "" {
		staff = filterStaffByTeam(staff, *teamID)
		clients = filterClientsByTeam(clients, *teamID)
	}

	snap := scheduler.NewSnapshot(staff, clients, teams, qualifications, s.hours)
	if problems := snap.ValidateConfiguration(); len(problems) > 0 {
		s.logger.Warn("registry configuration invalid", zap.Int("problems", len(problems)))
		return nil, problems, appErrors.Clone(appErrors.ErrConfiguration, "")
	}
	return snap, nil, nil
}

func filterStaffByTeam(staff []models.Staff, teamID string) []models.Staff {
	out := staff[:0:0]
	for _, s := range staff {
		if s.TeamID != nil && *s.TeamID == teamID {
			out = append(out, s)
		}
	}
	return out
}

func filterClientsByTeam(clients []models.Client, teamID string) []models.Client {
	out := clients[:0:0]
	for _, c := range clients {
		if c.TeamID != nil && *c.TeamID == teamID {
			out = append(out, c)
		}
	}
	return out
}

// ListStaff returns staff matching the filter plus total count.
func (s *RegistryService) ListStaff(ctx context.Context, filter models.StaffFilter) ([]models.Staff, int, error) {
	staff, total, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list staff")
	}
	return staff, total, nil
}

// GetStaff fetches one staff member.
func (s *RegistryService) GetStaff(ctx context.Context, id string) (*models.Staff, error) {
	staff, err := s.staff.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch staff member")
	}
	return staff, nil
}

// ListClients returns clients matching the filter plus total count.
func (s *RegistryService) ListClients(ctx context.Context, filter models.ClientFilter) ([]models.Client, int, error) {
	clients, total, err := s.clients.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clients")
	}
	return clients, total, nil
}

// GetClient fetches one client.
func (s *RegistryService) GetClient(ctx context.Context, id string) (*models.Client, error) {
	client, err := s.clients.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch client")
	}
	return client, nil
}

// ListTeams returns every team.
func (s *RegistryService) ListTeams(ctx context.Context) ([]models.Team, error) {
	teams, err := s.teams.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teams")
	}
	return teams, nil
}

// ListQualifications returns every insurance qualification.
func (s *RegistryService) ListQualifications(ctx context.Context) ([]models.InsuranceQualification, error) {
	qualifications, err := s.qualifications.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list qualifications")
	}
	return qualifications, nil
}
