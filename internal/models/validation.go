package models

// Stable rule identifiers produced by the constraint validator. These keys
// are persisted inside feedback observations and the weight table, so they
// must never be renamed.
const (
	RuleMissingTherapist          = "MISSING_THERAPIST"
	RuleMissingClient             = "MISSING_CLIENT"
	RuleMissingTimes              = "MISSING_TIMES"
	RuleInvalidTimeOrder          = "INVALID_TIME_ORDER"
	RuleStaffDoubleBooked         = "STAFF_DOUBLE_BOOKED"
	RuleClientDoubleBooked        = "CLIENT_DOUBLE_BOOKED"
	RuleRoleMismatch              = "ROLE_MISMATCH"
	RuleQualificationMissing      = "QUALIFICATION_MISSING"
	RuleMinDurationViolated       = "MIN_DURATION_VIOLATED"
	RuleMaxDurationViolated       = "MAX_DURATION_VIOLATED"
	RuleMaxStaffPerDayExceeded    = "MAX_STAFF_PER_DAY_EXCEEDED"
	RuleWeeklyHoursExceeded       = "WEEKLY_HOURS_EXCEEDED"
	RuleOutsideOperatingHours     = "OUTSIDE_OPERATING_HOURS"
	RuleAlliedHealthWindow        = "ALLIED_HEALTH_WINDOW_VIOLATED"
	RuleConfigurationError        = "CONFIGURATION_ERROR"
)

// Soft-signal keys used by the fitness evaluator alongside rule ids.
const (
	SignalPreferredProvider = "PREFERRED_PROVIDER"
	SignalWorkloadBalance   = "WORKLOAD_BALANCE"
)

// hardRules are the violations that make a schedule infeasible. Weekly-hour
// caps are deliberately soft: they are penalized and reported but never
// disqualify a candidate.
var hardRules = map[string]struct{}{
	RuleMissingTherapist:       {},
	RuleMissingClient:          {},
	RuleMissingTimes:           {},
	RuleInvalidTimeOrder:       {},
	RuleStaffDoubleBooked:      {},
	RuleClientDoubleBooked:     {},
	RuleRoleMismatch:           {},
	RuleQualificationMissing:   {},
	RuleMinDurationViolated:    {},
	RuleMaxDurationViolated:    {},
	RuleMaxStaffPerDayExceeded: {},
	RuleOutsideOperatingHours:  {},
	RuleAlliedHealthWindow:     {},
	RuleConfigurationError:     {},
}

// IsHardRule reports whether the rule id belongs to the hard constraint set.
func IsHardRule(ruleID string) bool {
	_, ok := hardRules[ruleID]
	return ok
}

// KnownRuleIDs lists every rule id in the taxonomy in a stable order.
func KnownRuleIDs() []string {
	return []string{
		RuleMissingTherapist,
		RuleMissingClient,
		RuleMissingTimes,
		RuleInvalidTimeOrder,
		RuleStaffDoubleBooked,
		RuleClientDoubleBooked,
		RuleRoleMismatch,
		RuleQualificationMissing,
		RuleMinDurationViolated,
		RuleMaxDurationViolated,
		RuleMaxStaffPerDayExceeded,
		RuleWeeklyHoursExceeded,
		RuleOutsideOperatingHours,
		RuleAlliedHealthWindow,
		RuleConfigurationError,
	}
}

// ValidationError describes one constraint violation. It is returned as
// data, never raised as a control-flow error.
type ValidationError struct {
	RuleID  string         `json:"rule_id"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// CountHard returns how many violations in the list are hard.
func CountHard(violations []ValidationError) int {
	count := 0
	for _, v := range violations {
		if IsHardRule(v.RuleID) {
			count++
		}
	}
	return count
}
