package allocator

import "github.com/jakechorley/shift-planner/pkg/core/model"

const (
	// ScarcitySentinel is the scarcity of a role nobody can perform
	ScarcitySentinel = 999.0

	primarySupply   = 1.0
	secondarySupply = 0.7
)

// AnalyzeScarcity computes demand / supply per role.
//
// Demand is the sum of required staff over all requirements for the role. Supply counts
// each worker whose primary role it is as 1.0 and each worker qualified for it as a
// secondary role as 0.7. Roles with demand but no supply get ScarcitySentinel.
func AnalyzeScarcity(workers []*model.WorkerProfile, requirements []*model.ShiftRequirement) map[model.Role]float64 {
	demand := make(map[model.Role]float64)
	for _, req := range requirements {
		demand[req.Role] += float64(req.Required)
	}

	supply := make(map[model.Role]float64)
	for _, w := range workers {
		for role := range demand {
			switch {
			case w.PrimaryRole == role:
				supply[role] += primarySupply
			case w.HasRole(role):
				supply[role] += secondarySupply
			}
		}
	}

	scarcity := make(map[model.Role]float64, len(demand))
	for role, d := range demand {
		s := supply[role]
		if s == 0 {
			scarcity[role] = ScarcitySentinel
			continue
		}
		scarcity[role] = d / s
	}

	return scarcity
}
