package scheduler

import (
	"math"

	"github.com/brightpath/aba-scheduler-api/internal/models"
)

// UnassignedSlotPenalty is the fixed cost of leaving one required coverage
// slot without a staff assignment. It dwarfs any single rule weight so
// coverage completeness dominates the search.
const UnassignedSlotPenalty = 50.0

// Evaluator converts a candidate schedule into a scalar penalty. Lower is
// better; zero means fully feasible with every soft preference satisfied.
// An Evaluator holds no mutable state and may score distinct candidates
// concurrently.
type Evaluator struct {
	weights          *models.WeightTable
	balanceThreshold float64
}

// NewEvaluator builds an evaluator around an immutable weight table
// snapshot. balanceThreshold is the per-staff daily session count variance
// tolerated before the workload balance penalty applies.
func NewEvaluator(weights *models.WeightTable, balanceThreshold float64) *Evaluator {
	if weights == nil {
		weights = models.DefaultWeightTable()
	}
	if balanceThreshold <= 0 {
		balanceThreshold = 2.0
	}
	return &Evaluator{weights: weights, balanceThreshold: balanceThreshold}
}

// Score returns the penalty for a candidate schedule.
func (e *Evaluator) Score(entries []models.ScheduleEntry, snap *Snapshot) float64 {
	penalty, _ := e.ScoreDetail(entries, snap)
	return penalty
}

// ScoreDetail returns the penalty together with the validator output it was
// derived from, so callers scoring a final candidate do not validate twice.
func (e *Evaluator) ScoreDetail(entries []models.ScheduleEntry, snap *Snapshot) (float64, []models.ValidationError) {
	violations := Validate(entries, snap)

	penalty := 0.0
	for _, v := range violations {
		penalty += e.weights.Get(v.RuleID)
	}

	unassigned := 0
	for i := range entries {
		if entries[i].StaffID == nil && entries[i].SessionType.RequiresStaff() {
			unassigned++
		}
	}
	// Unassigned slots already carry a MISSING_THERAPIST violation; the
	// fixed surcharge keeps coverage ahead of every other concern.
	penalty += float64(unassigned) * UnassignedSlotPenalty

	penalty -= float64(e.preferredMatches(entries, snap)) * e.weights.Get(models.SignalPreferredProvider)

	if variance := dailyLoadVariance(entries); variance > e.balanceThreshold {
		penalty += (variance - e.balanceThreshold) * e.weights.Get(models.SignalWorkloadBalance)
	}

	return math.Max(0, penalty), violations
}

// preferredMatches counts allied-health entries assigned to the provider the
// client's need asks for.
func (e *Evaluator) preferredMatches(entries []models.ScheduleEntry, snap *Snapshot) int {
	matches := 0
	for i := range entries {
		entry := &entries[i]
		if entry.StaffID == nil || entry.ClientID == nil {
			continue
		}
		if entry.SessionType != models.SessionAlliedHealthOT && entry.SessionType != models.SessionAlliedHealthSLP {
			continue
		}
		client := snap.ClientByID(*entry.ClientID)
		if client == nil {
			continue
		}
		for _, need := range client.AlliedHealthNeeds {
			if need.SessionType() != entry.SessionType || need.PreferredStaffID == nil {
				continue
			}
			if need.OnDay(entry.DayOfWeek) && *need.PreferredStaffID == *entry.StaffID {
				matches++
				break
			}
		}
	}
	return matches
}

// dailyLoadVariance computes the population variance of per-staff, per-day
// session counts across all staff that appear in the schedule.
func dailyLoadVariance(entries []models.ScheduleEntry) float64 {
	type staffDay struct {
		staffID string
		day     int
	}
	counts := make(map[staffDay]int)
	for i := range entries {
		if entries[i].StaffID == nil {
			continue
		}
		counts[staffDay{staffID: *entries[i].StaffID, day: entries[i].DayOfWeek}]++
	}
	if len(counts) == 0 {
		return 0
	}

	sum := 0
	for _, c := range counts {
		sum += c
	}
	mean := float64(sum) / float64(len(counts))

	variance := 0.0
	for _, c := range counts {
		diff := float64(c) - mean
		variance += diff * diff
	}
	return variance / float64(len(counts))
}
