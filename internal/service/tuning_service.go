package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/brightpath/aba-scheduler-api/internal/dto"
	"github.com/brightpath/aba-scheduler-api/internal/models"
	"github.com/brightpath/aba-scheduler-api/internal/scheduler"
	"github.com/brightpath/aba-scheduler-api/pkg/config"
	appErrors "github.com/brightpath/aba-scheduler-api/pkg/errors"
	"github.com/brightpath/aba-scheduler-api/pkg/jobs"
)

const diagnosticsCacheKey = "tuning:diagnostics"

type tuningFeedbackRepository interface {
	Create(ctx context.Context, feedback *models.ScheduleFeedback) error
	ListRecent(ctx context.Context, limit int) ([]models.ScheduleFeedback, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

type tuningWeightRepository interface {
	LoadAll(ctx context.Context) (map[string]float64, error)
	UpsertAll(ctx context.Context, weights map[string]float64) error
}

type tuningMetrics interface {
	ObserveRecalibration(weightVersion int)
}

// TuningService records schedule feedback and recalibrates the rule weight
// table from it. Low ratings push the weights of the observed rules up so the
// engine avoids those violations harder; high ratings relax them.
type TuningService struct {
	feedback  tuningFeedbackRepository
	weightsDB tuningWeightRepository
	store     *scheduler.WeightStore
	cache     *redis.Client
	cfg       config.TuningConfig
	metrics   tuningMetrics
	validator *validator.Validate
	logger    *zap.Logger

	queue *jobs.Queue

	mu      sync.Mutex
	lastRun time.Time
}

// NewTuningService constructs a TuningService. The redis client may be nil;
// diagnostics are then computed on every call.
func NewTuningService(
	feedback tuningFeedbackRepository,
	weightsDB tuningWeightRepository,
	store *scheduler.WeightStore,
	cache *redis.Client,
	cfg config.TuningConfig,
	metrics tuningMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
) *TuningService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if store == nil {
		store = scheduler.NewWeightStore(nil)
	}
	s := &TuningService{
		feedback:  feedback,
		weightsDB: weightsDB,
		store:     store,
		cache:     cache,
		cfg:       cfg,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
	s.queue = jobs.NewQueue("weight-tuning", s.handleJob, jobs.QueueConfig{Workers: 1, BufferSize: 4, Logger: logger})
	return s
}

// RestoreWeights loads persisted weights into the in-memory store. Missing
// rows fall back to the defaults.
func (s *TuningService) RestoreWeights(ctx context.Context) error {
	stored, err := s.weightsDB.LoadAll(ctx)
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		return nil
	}
	table := s.store.Snapshot().Clone()
	for ruleID, weight := range stored {
		table.Weights[ruleID] = weight
	}
	s.store.Swap(table)
	return nil
}

// SubmitFeedback stores one rating. A failed write is reported as data, not
// as a transport error; only a malformed payload is rejected.
func (s *TuningService) SubmitFeedback(ctx context.Context, req dto.SubmitFeedbackRequest) (*dto.SubmitFeedbackResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	detail, err := json.Marshal(req.ViolationsDetail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid violation detail")
	}
	count := req.ViolationsCount
	if count == 0 {
		count = len(req.ViolationsDetail)
	}

	record := &models.ScheduleFeedback{
		ID:               uuid.NewString(),
		ScheduleID:       req.ScheduleID,
		TeamID:           req.TeamID,
		Rating:           req.Rating,
		ViolationsCount:  count,
		ViolationsDetail: detail,
		FeedbackText:     req.FeedbackText,
	}
	if err := s.feedback.Create(ctx, record); err != nil {
		s.logger.Error("failed to store schedule feedback", zap.Error(err))
		return &dto.SubmitFeedbackResponse{Success: false}, nil
	}

	s.invalidateDiagnostics(ctx)
	return &dto.SubmitFeedbackResponse{Success: true}, nil
}

// Diagnostics summarises the stored observations, cached briefly because the
// aggregation walks recent feedback.
func (s *TuningService) Diagnostics(ctx context.Context) (*dto.DiagnosticsResponse, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, diagnosticsCacheKey).Bytes()
		if err == nil {
			var cached dto.DiagnosticsResponse
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		}
	}

	recent, err := s.feedback.ListRecent(ctx, 100)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feedback")
	}

	diag := summarise(recent)
	resp := &dto.DiagnosticsResponse{
		AverageRating:         diag.AverageRating,
		Observations:          diag.Observations,
		Strengths:             diag.Strengths,
		RecommendedFocusAreas: diag.RecommendedFocusAreas,
		WeightTableVersion:    s.store.Snapshot().Version,
	}

	if s.cache != nil {
		if raw, err := json.Marshal(resp); err == nil {
			if err := s.cache.Set(ctx, diagnosticsCacheKey, raw, s.cfg.DiagnosticsCacheTTL).Err(); err != nil {
				s.logger.Warn("failed to cache diagnostics", zap.Error(err))
			}
		}
	}
	return resp, nil
}

// summarise aggregates rule occurrences split by rating band. Rules seen only
// under satisfied raters are strengths; rules dominating unhappy ratings are
// the recommended focus areas.
func summarise(recent []models.ScheduleFeedback) models.TuningDiagnostics {
	diag := models.TuningDiagnostics{
		Strengths:             []string{},
		RecommendedFocusAreas: []string{},
	}
	if len(recent) == 0 {
		return diag
	}

	ratingSum := 0
	lowCounts := make(map[string]int)
	highCounts := make(map[string]int)
	for _, f := range recent {
		ratingSum += f.Rating
		for _, ruleID := range f.RuleIDs() {
			if f.Rating <= 2 {
				lowCounts[ruleID]++
			} else if f.Rating >= 4 {
				highCounts[ruleID]++
			}
		}
	}

	diag.Observations = len(recent)
	diag.AverageRating = float64(ratingSum) / float64(len(recent))

	type ruleCount struct {
		ruleID string
		count  int
	}
	var focus []ruleCount
	for ruleID, count := range lowCounts {
		focus = append(focus, ruleCount{ruleID, count})
	}
	sort.Slice(focus, func(i, j int) bool {
		if focus[i].count != focus[j].count {
			return focus[i].count > focus[j].count
		}
		return focus[i].ruleID < focus[j].ruleID
	})
	for i, rc := range focus {
		if i == 5 {
			break
		}
		diag.RecommendedFocusAreas = append(diag.RecommendedFocusAreas, rc.ruleID)
	}

	var strengths []string
	for ruleID := range highCounts {
		if lowCounts[ruleID] == 0 {
			strengths = append(strengths, ruleID)
		}
	}
	sort.Strings(strengths)
	if len(strengths) > 5 {
		strengths = strengths[:5]
	}
	diag.Strengths = strengths

	return diag
}

// Recalibrate recomputes the weight table from recent feedback, persists it
// and swaps it into the live store. A no-op when nothing new arrived since
// the previous pass.
func (s *TuningService) Recalibrate(ctx context.Context) error {
	s.mu.Lock()
	since := s.lastRun
	s.mu.Unlock()

	if !since.IsZero() {
		fresh, err := s.feedback.CountSince(ctx, since)
		if err != nil {
			return err
		}
		if fresh == 0 {
			return nil
		}
	}

	recent, err := s.feedback.ListRecent(ctx, 200)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		return nil
	}

	current := s.store.Snapshot()
	next := current.Clone()

	// Per-rule pressure: each occurrence contributes (3 - rating), so a
	// 1-star report pushes the rule's weight up twice as hard as a 2-star
	// one, and 4/5-star reports pull it back down.
	pressure := make(map[string]float64)
	for _, f := range recent {
		for _, ruleID := range f.RuleIDs() {
			pressure[ruleID] += float64(3 - f.Rating)
		}
	}

	for ruleID, delta := range pressure {
		old := next.Get(ruleID)
		adjusted := old * (1 + s.cfg.LearningRate*delta/float64(len(recent)))
		next.Weights[ruleID] = clampWeight(adjusted, s.cfg.MinWeight, s.cfg.MaxWeight)
	}

	if err := s.weightsDB.UpsertAll(ctx, next.Weights); err != nil {
		return err
	}
	s.store.Swap(next)
	version := s.store.Snapshot().Version
	if s.metrics != nil {
		s.metrics.ObserveRecalibration(version)
	}
	s.invalidateDiagnostics(ctx)

	s.mu.Lock()
	s.lastRun = time.Now().UTC()
	s.mu.Unlock()

	s.logger.Info("rule weights recalibrated",
		zap.Int("weight_version", version),
		zap.Int("observations", len(recent)),
		zap.Int("rules_adjusted", len(pressure)),
	)
	return nil
}

func clampWeight(w, min, max float64) float64 {
	if w < min {
		return min
	}
	if w > max {
		return max
	}
	return w
}

func (s *TuningService) invalidateDiagnostics(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, diagnosticsCacheKey).Err(); err != nil {
		s.logger.Warn("failed to invalidate diagnostics cache", zap.Error(err))
	}
}

func (s *TuningService) handleJob(ctx context.Context, job jobs.Job) error {
	return s.Recalibrate(ctx)
}

// StartPeriodic launches the background recalibration loop.
func (s *TuningService) StartPeriodic(ctx context.Context) {
	s.queue.Start(ctx)
	go func() {
		ticker := time.NewTicker(s.cfg.RecalibrateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "recalibrate"}); err != nil {
					s.logger.Warn("failed to enqueue recalibration", zap.Error(err))
				}
			}
		}
	}()
}

// Stop drains the background workers.
func (s *TuningService) Stop() {
	s.queue.Stop()
}
