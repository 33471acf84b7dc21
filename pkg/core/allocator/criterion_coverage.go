package allocator

import "github.com/jakechorley/shift-planner/pkg/core/model"

// UrgencyCriterion favours slots with many unfilled places.
// Score is the per-gap weight multiplied by the total outstanding need of the (day, window).
type UrgencyCriterion struct {
	perGap int
}

// NewUrgencyCriterion creates a new UrgencyCriterion with the given per-gap weight
func NewUrgencyCriterion(perGap int) *UrgencyCriterion {
	return &UrgencyCriterion{perGap: perGap}
}

func (c *UrgencyCriterion) Name() string {
	return "Urgency"
}

func (c *UrgencyCriterion) Score(state *RunState, worker *model.WorkerProfile, req *model.ShiftRequirement) int {
	return c.perGap * state.SlotGap(req.Slot())
}

// SaturationCriterion heavily penalises adding staff to a role already at or above its requirement
type SaturationCriterion struct {
	penalty int
}

// NewSaturationCriterion creates a new SaturationCriterion. penalty is a positive magnitude.
func NewSaturationCriterion(penalty int) *SaturationCriterion {
	return &SaturationCriterion{penalty: penalty}
}

func (c *SaturationCriterion) Name() string {
	return "Saturation"
}

func (c *SaturationCriterion) Score(state *RunState, worker *model.WorkerProfile, req *model.ShiftRequirement) int {
	if state.AssignedCount(req.Key()) >= req.Required {
		return -c.penalty
	}
	return 0
}

// CompetingGapCriterion penalises using a worker for a role when another role they are
// qualified for in the same (day, window) has a larger outstanding gap
type CompetingGapCriterion struct {
	penalty int
}

// NewCompetingGapCriterion creates a new CompetingGapCriterion. penalty is a positive magnitude.
func NewCompetingGapCriterion(penalty int) *CompetingGapCriterion {
	return &CompetingGapCriterion{penalty: penalty}
}

func (c *CompetingGapCriterion) Name() string {
	return "CompetingGap"
}

func (c *CompetingGapCriterion) Score(state *RunState, worker *model.WorkerProfile, req *model.ShiftRequirement) int {
	gap := state.Outstanding(req)

	for _, other := range state.RequirementsInSlot(req.Slot()) {
		if other.Role == req.Role || !worker.HasRole(other.Role) {
			continue
		}
		if state.Outstanding(other) > gap {
			return -c.penalty
		}
	}
	return 0
}
