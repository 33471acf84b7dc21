package allocator

import "github.com/jakechorley/shift-planner/pkg/core/model"

// PriorityWorkerCriterion gives priority workers scheduling precedence.
//
// Score:
//   - A large fixed bonus for any priority worker
//   - An extra bonus when the requirement role is the worker's configured preferred role
//   - 0 for ordinary workers
type PriorityWorkerCriterion struct {
	bonus          int
	preferredBonus int
}

// NewPriorityWorkerCriterion creates a new PriorityWorkerCriterion with the given weights
func NewPriorityWorkerCriterion(bonus, preferredBonus int) *PriorityWorkerCriterion {
	return &PriorityWorkerCriterion{
		bonus:          bonus,
		preferredBonus: preferredBonus,
	}
}

func (c *PriorityWorkerCriterion) Name() string {
	return "PriorityWorker"
}

func (c *PriorityWorkerCriterion) Score(state *RunState, worker *model.WorkerProfile, req *model.ShiftRequirement) int {
	if !worker.IsPriority {
		return 0
	}

	score := c.bonus
	if override, ok := state.Overrides[worker.ID]; ok && override.PreferredRole != "" && override.PreferredRole == req.Role {
		score += c.preferredBonus
	}
	return score
}

// PairingCriterion steers the two paired priority workers towards their canonical roles.
//
// Score (only when the worker's partner is already assigned in the same slot):
//   - bonus if the worker would take their own canonical role while the partner holds theirs
//   - penalty if the worker would take the partner's canonical role while the partner holds the worker's
//   - 0 otherwise
type PairingCriterion struct {
	bonus   int
	penalty int
}

// NewPairingCriterion creates a new PairingCriterion. penalty is a positive magnitude.
func NewPairingCriterion(bonus, penalty int) *PairingCriterion {
	return &PairingCriterion{
		bonus:   bonus,
		penalty: penalty,
	}
}

func (c *PairingCriterion) Name() string {
	return "Pairing"
}

func (c *PairingCriterion) Score(state *RunState, worker *model.WorkerProfile, req *model.ShiftRequirement) int {
	self, partner, ok := state.Pairing.partnerOf(worker.ID)
	if !ok {
		return 0
	}

	partnerAssignment := state.AssignmentFor(partner.WorkerID, req.Slot())
	if partnerAssignment == nil {
		return 0
	}

	switch {
	case req.Role == self.Role && partnerAssignment.Role == partner.Role:
		return c.bonus
	case req.Role == partner.Role && partnerAssignment.Role == self.Role:
		return -c.penalty
	}
	return 0
}
