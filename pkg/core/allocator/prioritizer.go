package allocator

import (
	"sort"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// shiftImportance boosts weekend shifts and the last window of the day (e.g. dinner)
func shiftImportance(req *model.ShiftRequirement, windows []model.Window) int {
	importance := 0
	if req.Day >= 5 {
		importance++
	}
	if len(windows) > 1 && windows[len(windows)-1].Name == req.Window {
		importance++
	}
	return importance
}

// PrioritizeRequirements returns the requirements ordered by importance.
//
// Ordering (all descending unless noted):
//   - configured role priority
//   - shift importance (weekend and last window of the day are boosted)
//   - required staff
//   - day (ascending)
//   - window start time (ascending), then role name (ascending) as final deterministic tie-break
//
// The input slice is not modified. Each returned requirement is a copy with Priority set
// to rolePriority*10 + importance.
func PrioritizeRequirements(requirements []model.ShiftRequirement, rolePriority map[model.Role]int, windows []model.Window) []*model.ShiftRequirement {
	windowOrder := make(map[model.WindowName]int, len(windows))
	for i, w := range windows {
		windowOrder[w.Name] = i
	}

	prioritized := make([]*model.ShiftRequirement, len(requirements))
	importance := make(map[*model.ShiftRequirement]int, len(requirements))
	for i := range requirements {
		req := requirements[i]
		imp := shiftImportance(&req, windows)
		req.Priority = rolePriority[req.Role]*10 + imp
		prioritized[i] = &req
		importance[&req] = imp
	}

	sort.SliceStable(prioritized, func(i, j int) bool {
		a, b := prioritized[i], prioritized[j]
		if pa, pb := rolePriority[a.Role], rolePriority[b.Role]; pa != pb {
			return pa > pb
		}
		if ia, ib := importance[a], importance[b]; ia != ib {
			return ia > ib
		}
		if a.Required != b.Required {
			return a.Required > b.Required
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if wa, wb := windowOrder[a.Window], windowOrder[b.Window]; wa != wb {
			return wa < wb
		}
		return a.Role < b.Role
	})

	return prioritized
}
