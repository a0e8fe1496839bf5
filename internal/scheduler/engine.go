package scheduler

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/brightpath/aba-scheduler-api/internal/models"
)

// Config governs the genetic search. Zero values fall back to defaults.
type Config struct {
	PopulationSize  int
	MaxGenerations  int
	StagnationLimit int
	TournamentSize  int
	EliteCount      int
	MutationRate    float64
	Workers         int
	SlotMinutes     int
}

func (c Config) withDefaults() Config {
	if c.PopulationSize <= 0 {
		c.PopulationSize = 100
	}
	if c.MaxGenerations <= 0 {
		c.MaxGenerations = 150
	}
	if c.StagnationLimit <= 0 {
		c.StagnationLimit = 25
	}
	if c.TournamentSize <= 1 {
		c.TournamentSize = 3
	}
	if c.EliteCount <= 0 {
		c.EliteCount = 2
	}
	if c.EliteCount >= c.PopulationSize {
		c.EliteCount = c.PopulationSize / 2
	}
	if c.MutationRate <= 0 || c.MutationRate > 1 {
		c.MutationRate = 0.05
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.SlotMinutes <= 0 || c.SlotMinutes%GridMinutes != 0 {
		c.SlotMinutes = 60
	}
	return c
}

// Result is the outcome of one engine run. The engine always returns its
// best-effort candidate; an infeasible week is reported through Success and
// FinalValidationErrors, never as an error.
type Result struct {
	Schedule              []models.ScheduleEntry  `json:"schedule"`
	FinalValidationErrors []models.ValidationError `json:"final_validation_errors"`
	Generations           int                     `json:"generations"`
	BestFitness           float64                 `json:"best_fitness"`
	Success               bool                    `json:"success"`
	StatusMessage         string                  `json:"status_message"`
}

// Engine drives the population-based search over candidate schedules.
type Engine struct {
	cfg    Config
	eval   *Evaluator
	logger *zap.Logger
}

// NewEngine builds an engine around a fitness evaluator.
func NewEngine(cfg Config, eval *Evaluator, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg.withDefaults(), eval: eval, logger: logger}
}

// genome assigns each coverage slot an index into that slot's eligibility
// list, or unassignedGene.
const unassignedGene = -1

type genome []int

func (g genome) clone() genome {
	out := make(genome, len(g))
	copy(out, g)
	return out
}

// Run executes the generational loop until the best candidate is feasible,
// the generation budget is spent, or fitness stagnates. Cancellation is
// honoured at generation boundaries only, so every completed generation is
// internally consistent. Given the same snapshot and a seeded rng the run is
// deterministic.
func (e *Engine) Run(ctx context.Context, snap *Snapshot, days []int, rng *rand.Rand) *Result {
	slots := DeriveCoverageSlots(snap, days, e.cfg.SlotMinutes)
	if len(slots) == 0 {
		return &Result{
			Schedule:      []models.ScheduleEntry{},
			Success:       true,
			StatusMessage: "no coverage required for the requested days",
		}
	}

	eligible := make([][]string, len(slots))
	for i, slot := range slots {
		eligible[i] = EligibleStaff(slot, snap)
	}
	dayGroups := groupSlotsByDay(slots)

	population := make([]genome, e.cfg.PopulationSize)
	for i := range population {
		population[i] = e.seedGenome(eligible, rng)
	}

	best := population[0].clone()
	bestFitness := math.Inf(1)
	stagnant := 0
	generations := 0
	cancelled := false

	for generations < e.cfg.MaxGenerations {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		generations++

		scores := e.evaluatePopulation(population, slots, eligible, snap)
		order := rankByFitness(scores)
		top := order[0]

		if scores[top] < bestFitness-1e-9 {
			bestFitness = scores[top]
			best = population[top].clone()
			stagnant = 0
		} else {
			stagnant++
		}

		hardPenalty := e.hardViolations(best, slots, eligible, snap)
		if hardPenalty == 0 && e.unassignedCount(best) == 0 {
			break
		}
		if stagnant >= e.cfg.StagnationLimit {
			break
		}

		population = e.nextGeneration(population, scores, order, eligible, dayGroups, rng)
	}

	entries := buildEntries(best, slots, eligible)
	fitness, violations := e.eval.ScoreDetail(entries, snap)
	hard := models.CountHard(violations)
	success := hard == 0

	status := ""
	switch {
	case cancelled:
		status = fmt.Sprintf("run cancelled after %d generations; best candidate has %d hard violations", generations, hard)
	case success:
		status = fmt.Sprintf("feasible schedule found after %d generations", generations)
	default:
		status = fmt.Sprintf("no feasible schedule within %d generations; best candidate has %d hard violations", generations, hard)
	}

	e.logger.Info("engine run finished",
		zap.Int("generations", generations),
		zap.Float64("best_fitness", fitness),
		zap.Int("hard_violations", hard),
		zap.Bool("success", success),
	)

	return &Result{
		Schedule:              entries,
		FinalValidationErrors: violations,
		Generations:           generations,
		BestFitness:           fitness,
		Success:               success,
		StatusMessage:         status,
	}
}

func (e *Engine) seedGenome(eligible [][]string, rng *rand.Rand) genome {
	g := make(genome, len(eligible))
	for i, candidates := range eligible {
		if len(candidates) == 0 {
			g[i] = unassignedGene
			continue
		}
		g[i] = rng.Intn(len(candidates))
	}
	return g
}

// evaluatePopulation scores every candidate on a bounded worker pool. The
// evaluator is pure, so candidates score concurrently; results are gathered
// before selection proceeds.
func (e *Engine) evaluatePopulation(population []genome, slots []CoverageSlot, eligible [][]string, snap *Snapshot) []float64 {
	scores := make([]float64, len(population))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := e.cfg.Workers
	if workers > len(population) {
		workers = len(population)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				scores[idx] = e.eval.Score(buildEntries(population[idx], slots, eligible), snap)
			}
		}()
	}
	for idx := range population {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()
	return scores
}

// rankByFitness returns population indexes ordered best-first, index as the
// tie break for determinism.
func rankByFitness(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		if scores[order[i]] != scores[order[j]] {
			return scores[order[i]] < scores[order[j]]
		}
		return order[i] < order[j]
	})
	return order
}

func (e *Engine) nextGeneration(population []genome, scores []float64, order []int, eligible [][]string, dayGroups [][]int, rng *rand.Rand) []genome {
	next := make([]genome, 0, len(population))
	for i := 0; i < e.cfg.EliteCount && i < len(order); i++ {
		next = append(next, population[order[i]].clone())
	}

	for len(next) < len(population) {
		parentA := population[e.tournament(scores, rng)]
		parentB := population[e.tournament(scores, rng)]
		childA, childB := crossoverByDay(parentA, parentB, dayGroups, rng)
		e.mutate(childA, eligible, rng)
		e.mutate(childB, eligible, rng)
		next = append(next, childA)
		if len(next) < len(population) {
			next = append(next, childB)
		}
	}
	return next
}

// tournament picks k random candidates and keeps the best, preserving more
// diversity than pure rank selection.
func (e *Engine) tournament(scores []float64, rng *rand.Rand) int {
	best := rng.Intn(len(scores))
	for i := 1; i < e.cfg.TournamentSize; i++ {
		challenger := rng.Intn(len(scores))
		if scores[challenger] < scores[best] {
			best = challenger
		}
	}
	return best
}

// crossoverByDay swaps whole days between parents so no single schedule
// entry is ever split.
func crossoverByDay(a, b genome, dayGroups [][]int, rng *rand.Rand) (genome, genome) {
	childA := a.clone()
	childB := b.clone()
	for _, group := range dayGroups {
		if rng.Intn(2) == 0 {
			continue
		}
		for _, idx := range group {
			childA[idx], childB[idx] = childB[idx], childA[idx]
		}
	}
	return childA, childB
}

// mutate reassigns slots with small probability, respecting the same hard
// eligibility filter used at initialization; a fraction of mutations toggle
// the slot to unassigned.
func (e *Engine) mutate(g genome, eligible [][]string, rng *rand.Rand) {
	for i := range g {
		if rng.Float64() >= e.cfg.MutationRate {
			continue
		}
		if len(eligible[i]) == 0 || rng.Float64() < 0.1 {
			g[i] = unassignedGene
			continue
		}
		g[i] = rng.Intn(len(eligible[i]))
	}
}

func (e *Engine) hardViolations(g genome, slots []CoverageSlot, eligible [][]string, snap *Snapshot) int {
	return models.CountHard(Validate(buildEntries(g, slots, eligible), snap))
}

func (e *Engine) unassignedCount(g genome) int {
	count := 0
	for _, gene := range g {
		if gene == unassignedGene {
			count++
		}
	}
	return count
}

func groupSlotsByDay(slots []CoverageSlot) [][]int {
	byDay := make(map[int][]int)
	for i, slot := range slots {
		byDay[slot.DayOfWeek] = append(byDay[slot.DayOfWeek], i)
	}
	days := make([]int, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Ints(days)

	groups := make([][]int, 0, len(days))
	for _, day := range days {
		groups = append(groups, byDay[day])
	}
	return groups
}

// buildEntries materialises a genome into schedule entries. Every slot is
// represented, assigned or not, so the violation list for a candidate is a
// complete audit trail. Entry ids are deterministic per slot.
func buildEntries(g genome, slots []CoverageSlot, eligible [][]string) []models.ScheduleEntry {
	entries := make([]models.ScheduleEntry, len(slots))
	for i, slot := range slots {
		clientID := slot.ClientID
		entry := models.ScheduleEntry{
			ID:          fmt.Sprintf("%s-%d-%04d", slot.ClientID, slot.DayOfWeek, slot.StartMinute),
			ClientID:    &clientID,
			DayOfWeek:   slot.DayOfWeek,
			StartMinute: slot.StartMinute,
			EndMinute:   slot.EndMinute,
			SessionType: slot.SessionType,
		}
		if g[i] != unassignedGene && g[i] < len(eligible[i]) {
			staffID := eligible[i][g[i]]
			entry.StaffID = &staffID
		}
		entries[i] = entry
	}
	return entries
}
