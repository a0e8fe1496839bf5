package models

// DefaultRuleWeight applies to any rule id absent from the weight table.
const DefaultRuleWeight = 1.0

// WeightTable maps rule ids and soft-signal keys to non-negative penalty or
// reward weights. Tables are immutable once built; the tuning service swaps
// in whole replacement tables so a running evaluation never observes a
// partial update.
type WeightTable struct {
	Version int                `json:"version"`
	Weights map[string]float64 `json:"weights"`
}

// NewWeightTable builds a table from an existing weight map.
func NewWeightTable(version int, weights map[string]float64) *WeightTable {
	if weights == nil {
		weights = make(map[string]float64)
	}
	return &WeightTable{Version: version, Weights: weights}
}

// DefaultWeightTable returns the initial table: every known rule at the
// default weight, with modest soft-signal rewards.
func DefaultWeightTable() *WeightTable {
	weights := make(map[string]float64)
	for _, ruleID := range KnownRuleIDs() {
		weights[ruleID] = DefaultRuleWeight
	}
	weights[SignalPreferredProvider] = 0.5
	weights[SignalWorkloadBalance] = 0.25
	return &WeightTable{Version: 1, Weights: weights}
}

// Get returns the weight for a key, falling back to the default weight.
func (t *WeightTable) Get(key string) float64 {
	if t == nil {
		return DefaultRuleWeight
	}
	if w, ok := t.Weights[key]; ok {
		return w
	}
	return DefaultRuleWeight
}

// Clone copies the table so callers can derive a new version without
// touching the shared snapshot.
func (t *WeightTable) Clone() *WeightTable {
	weights := make(map[string]float64, len(t.Weights))
	for k, v := range t.Weights {
		weights[k] = v
	}
	return &WeightTable{Version: t.Version, Weights: weights}
}
