package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/brightpath/aba-scheduler-api/internal/dto"
	"github.com/brightpath/aba-scheduler-api/internal/models"
	"github.com/brightpath/aba-scheduler-api/internal/scheduler"
	"github.com/brightpath/aba-scheduler-api/pkg/config"
	appErrors "github.com/brightpath/aba-scheduler-api/pkg/errors"
)

type generationScheduleRepository interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.GeneratedSchedule) error
	InsertEntries(ctx context.Context, exec sqlx.ExtContext, scheduleID string, entries []models.ScheduleEntry) error
	FindByID(ctx context.Context, id string) (*models.GeneratedSchedule, error)
	ListEntries(ctx context.Context, scheduleID string) ([]models.ScheduleEntry, error)
	List(ctx context.Context, filter models.GeneratedScheduleFilter) ([]models.GeneratedSchedule, int, error)
}

type snapshotProvider interface {
	Snapshot(ctx context.Context, teamID *string) (*scheduler.Snapshot, []models.ValidationError, error)
}

type generationMetrics interface {
	ObserveGenerationRun(success bool, generations int, best float64, duration time.Duration)
}

// GenerationService orchestrates the genetic search over the live roster and
// persists the outcome as a draft schedule.
type GenerationService struct {
	registry  snapshotProvider
	schedules generationScheduleRepository
	weights   *scheduler.WeightStore
	cfg       config.SchedulerConfig
	metrics   generationMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGenerationService constructs a GenerationService.
func NewGenerationService(
	registry snapshotProvider,
	schedules generationScheduleRepository,
	weights *scheduler.WeightStore,
	cfg config.SchedulerConfig,
	metrics generationMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
) *GenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if weights == nil {
		weights = scheduler.NewWeightStore(nil)
	}
	return &GenerationService{
		registry:  registry,
		schedules: schedules,
		weights:   weights,
		cfg:       cfg,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// runMeta is stored alongside the schedule so a run can be reproduced.
type runMeta struct {
	Seed          int64  `json:"seed"`
	Days          []int  `json:"days"`
	WeightVersion int    `json:"weight_version"`
	StatusMessage string `json:"status_message"`
}

// Generate runs the engine once. Infeasible outcomes are results, not
// errors: the best candidate found is returned with success=false and the
// remaining violations attached.
func (s *GenerationService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}

	snap, problems, err := s.registry.Snapshot(ctx, req.TeamID)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrConfiguration.Code {
			return &dto.GenerateScheduleResponse{
				Schedule:              []models.ScheduleEntry{},
				FinalValidationErrors: problems,
				Success:               false,
				StatusMessage:         "registry configuration invalid; fix the reported problems and retry",
			}, nil
		}
		return nil, err
	}

	days := req.Days
	if len(days) == 0 {
		days = []int{1, 2, 3, 4, 5}
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	rng := rand.New(rand.NewSource(seed))

	table := s.weights.Snapshot()
	engineCfg := scheduler.Config{
		PopulationSize:  s.cfg.PopulationSize,
		MaxGenerations:  s.cfg.MaxGenerations,
		StagnationLimit: s.cfg.StagnationLimit,
		TournamentSize:  s.cfg.TournamentSize,
		EliteCount:      s.cfg.EliteCount,
		MutationRate:    s.cfg.MutationRate,
		Workers:         s.cfg.Workers,
		SlotMinutes:     s.cfg.SlotMinutes,
	}
	if req.PopulationSize > 0 {
		engineCfg.PopulationSize = req.PopulationSize
	}
	if req.MaxGenerations > 0 {
		engineCfg.MaxGenerations = req.MaxGenerations
	}

	engine := scheduler.NewEngine(engineCfg, scheduler.NewEvaluator(table, s.cfg.BalanceThreshold), s.logger)

	started := time.Now()
	result := engine.Run(ctx, snap, days, rng)
	elapsed := time.Since(started)

	if s.metrics != nil {
		s.metrics.ObserveGenerationRun(result.Success, result.Generations, result.BestFitness, elapsed)
	}
	s.logger.Info("schedule generation finished",
		zap.Bool("success", result.Success),
		zap.Int("generations", result.Generations),
		zap.Float64("best_fitness", result.BestFitness),
		zap.Duration("elapsed", elapsed),
		zap.Int64("seed", seed),
	)

	meta, _ := json.Marshal(runMeta{
		Seed:          seed,
		Days:          days,
		WeightVersion: table.Version,
		StatusMessage: result.StatusMessage,
	})
	stored := &models.GeneratedSchedule{
		TeamID:      req.TeamID,
		Status:      models.GeneratedScheduleStatusDraft,
		BestFitness: result.BestFitness,
		Generations: result.Generations,
		Success:     result.Success,
		Meta:        meta,
	}
	if err := s.persist(ctx, stored, result.Schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist generated schedule")
	}

	return &dto.GenerateScheduleResponse{
		ScheduleID:            stored.ID,
		Schedule:              result.Schedule,
		FinalValidationErrors: result.FinalValidationErrors,
		Generations:           result.Generations,
		BestFitness:           result.BestFitness,
		Success:               result.Success,
		StatusMessage:         result.StatusMessage,
	}, nil
}

func (s *GenerationService) persist(ctx context.Context, schedule *models.GeneratedSchedule, entries []models.ScheduleEntry) error {
	tx, err := s.schedules.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.schedules.Create(ctx, tx, schedule); err != nil {
		return err
	}
	if err := s.schedules.InsertEntries(ctx, tx, schedule.ID, entries); err != nil {
		return err
	}
	return tx.Commit()
}

// GetSchedule returns a stored schedule with its entries.
func (s *GenerationService) GetSchedule(ctx context.Context, id string) (*dto.ScheduleDetailResponse, error) {
	schedule, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch schedule")
	}
	entries, err := s.schedules.ListEntries(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch schedule entries")
	}
	return &dto.ScheduleDetailResponse{Schedule: *schedule, Entries: entries}, nil
}

// ListSchedules pages through stored schedule headers.
func (s *GenerationService) ListSchedules(ctx context.Context, filter models.GeneratedScheduleFilter) (*dto.ScheduleListResponse, error) {
	schedules, total, err := s.schedules.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return &dto.ScheduleListResponse{Schedules: schedules, Total: total, Page: page, PageSize: size}, nil
}

// ValidateEntry checks one candidate entry against the rest of a schedule in
// local mode. Weekly aggregates are out of scope for a single-entry edit.
func (s *GenerationService) ValidateEntry(ctx context.Context, req dto.ValidateEntryRequest) (*dto.ValidateEntryResponse, error) {
	snap, problems, err := s.registry.Snapshot(ctx, nil)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrConfiguration.Code {
			return &dto.ValidateEntryResponse{Valid: false, Violations: problems}, nil
		}
		return nil, err
	}

	violations := scheduler.ValidateEntry(req.Entry, req.Schedule, snap)
	if violations == nil {
		violations = []models.ValidationError{}
	}
	return &dto.ValidateEntryResponse{Valid: len(violations) == 0, Violations: violations}, nil
}
