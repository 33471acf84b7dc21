package allocator

import "github.com/jakechorley/shift-planner/pkg/core/model"

// ValidationError represents an invariant violation found in the final schedule
type ValidationError struct {
	CriterionName string
	Day           int
	Window        model.WindowName
	WorkerID      string
	Description   string
}

// Criterion defines the interface for additive scoring incentives.
// Each criterion is an independent rule; the scorer sums the results of all criteria
// on top of the base score to rank the eligible candidates of a requirement.
type Criterion interface {
	// Name returns a human-readable identifier for this criterion
	Name() string

	// Score returns the signed contribution of this criterion for assigning the worker
	// to the requirement given the current run state.
	// Positive values make the worker more attractive, negative values less.
	// Return 0 if this criterion doesn't apply.
	// Implementations must only read the state.
	Score(state *RunState, worker *model.WorkerProfile, req *model.ShiftRequirement) int
}

// DefaultCriteria returns the standard scoring rules configured with the given weights
func DefaultCriteria(w Weights) []Criterion {
	w = w.withDefaults()
	return []Criterion{
		NewPriorityWorkerCriterion(w.PriorityWorker, w.PreferredRole),
		NewPairingCriterion(w.PairingBonus, w.PairingPenalty),
		NewScarcityCriterion(w),
		NewPrimaryMatchCriterion(w.PrimaryMatch),
		NewVersatilityCriterion(w.Versatility, w.VersatilityMinRoles),
		NewUrgencyCriterion(w.UrgencyPerGap),
		NewWorkloadCriterion(w.WorkloadStep, w.WorkloadPenaltyStep, w.PriorityWorkloadPenaltyStep),
		NewSaturationCriterion(w.Saturation),
		NewCompetingGapCriterion(w.CompetingGap),
	}
}
