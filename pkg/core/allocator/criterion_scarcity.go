package allocator

import "github.com/jakechorley/shift-planner/pkg/core/model"

// ScarcityCriterion favours candidates for roles that are hard to staff.
//
// Score:
//   - above the high threshold: the high tier bonus
//   - above the low threshold: the medium tier bonus
//   - otherwise 0
//
// Within a tier the bonus is always larger for a primary-role match than a secondary one.
type ScarcityCriterion struct {
	highThreshold   float64
	lowThreshold    float64
	highPrimary     int
	highSecondary   int
	mediumPrimary   int
	mediumSecondary int
}

// NewScarcityCriterion creates a new ScarcityCriterion from the scarcity fields of the weight table
func NewScarcityCriterion(w Weights) *ScarcityCriterion {
	return &ScarcityCriterion{
		highThreshold:   w.HighScarcityThreshold,
		lowThreshold:    w.LowScarcityThreshold,
		highPrimary:     w.HighScarcityPrimary,
		highSecondary:   w.HighScarcitySecondary,
		mediumPrimary:   w.MediumScarcityPrimary,
		mediumSecondary: w.MediumScarcitySecondary,
	}
}

func (c *ScarcityCriterion) Name() string {
	return "Scarcity"
}

func (c *ScarcityCriterion) Score(state *RunState, worker *model.WorkerProfile, req *model.ShiftRequirement) int {
	scarcity := state.Scarcity[req.Role]
	primary := worker.PrimaryRole == req.Role

	switch {
	case scarcity > c.highThreshold:
		if primary {
			return c.highPrimary
		}
		return c.highSecondary
	case scarcity > c.lowThreshold:
		if primary {
			return c.mediumPrimary
		}
		return c.mediumSecondary
	}
	return 0
}

// PrimaryMatchCriterion prefers workers doing their primary role
type PrimaryMatchCriterion struct {
	bonus int
}

// NewPrimaryMatchCriterion creates a new PrimaryMatchCriterion with the given bonus
func NewPrimaryMatchCriterion(bonus int) *PrimaryMatchCriterion {
	return &PrimaryMatchCriterion{bonus: bonus}
}

func (c *PrimaryMatchCriterion) Name() string {
	return "PrimaryMatch"
}

func (c *PrimaryMatchCriterion) Score(state *RunState, worker *model.WorkerProfile, req *model.ShiftRequirement) int {
	if worker.PrimaryRole == req.Role {
		return c.bonus
	}
	return 0
}

// VersatilityCriterion rewards multi-skilled workers when they cover a secondary role
type VersatilityCriterion struct {
	bonus    int
	minRoles int
}

// NewVersatilityCriterion creates a new VersatilityCriterion.
// Workers need at least minRoles qualified roles to earn the bonus.
func NewVersatilityCriterion(bonus, minRoles int) *VersatilityCriterion {
	return &VersatilityCriterion{
		bonus:    bonus,
		minRoles: minRoles,
	}
}

func (c *VersatilityCriterion) Name() string {
	return "Versatility"
}

func (c *VersatilityCriterion) Score(state *RunState, worker *model.WorkerProfile, req *model.ShiftRequirement) int {
	if worker.PrimaryRole == req.Role {
		return 0
	}
	if worker.RoleCount() < c.minRoles {
		return 0
	}
	return c.bonus
}
