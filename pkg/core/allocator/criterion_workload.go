package allocator

import (
	"math"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// WorkloadCriterion spreads assignments evenly across workers.
//
// The fair share is the average number of assignments per worker needed to cover every
// requirement of the week. Workers below it earn a bonus proportional to the shortfall,
// workers above it are penalised proportionally to the excess. Priority workers are
// penalised with a gentler step so they keep their precedence.
type WorkloadCriterion struct {
	step                int
	penaltyStep         int
	priorityPenaltyStep int
}

// NewWorkloadCriterion creates a new WorkloadCriterion with the given steps
func NewWorkloadCriterion(step, penaltyStep, priorityPenaltyStep int) *WorkloadCriterion {
	return &WorkloadCriterion{
		step:                step,
		penaltyStep:         penaltyStep,
		priorityPenaltyStep: priorityPenaltyStep,
	}
}

func (c *WorkloadCriterion) Name() string {
	return "Workload"
}

func (c *WorkloadCriterion) Score(state *RunState, worker *model.WorkerProfile, req *model.ShiftRequirement) int {
	count := float64(state.Workload(worker.ID))
	fair := state.FairShare

	if count < fair {
		return int(math.Round((fair - count) * float64(c.step)))
	}

	step := c.penaltyStep
	if worker.IsPriority {
		step = c.priorityPenaltyStep
	}
	return -int(math.Round((count - fair) * float64(step)))
}
