package allocator

import (
	"sort"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// RefinementSummary reports what the refinement pass changed
type RefinementSummary struct {
	// Swaps is the number of assignments relabelled from an over-staffed to an under-staffed role
	Swaps int

	// Fills is the number of assignments added for residual gaps
	Fills int
}

// Refine is a local search over each (day, window) run after the assignment phases.
//
// Swap: an assigned worker in an over-staffed role who is also qualified and capacity-eligible
// for an under-staffed role of the same slot has their assignment relabelled in place. The
// over-staffed role is never taken below its requirement.
//
// Fill: residual under-staffed roles are filled with qualified, available, unassigned workers,
// least loaded first. The rest rule is not enforced here.
//
// Refine never removes an assignment and changes nothing once no further opportunity exists.
func Refine(state *RunState, criteria []Criterion) RefinementSummary {
	var summary RefinementSummary

	for _, slot := range state.Slots() {
		summary.Swaps += swapSlot(state, slot)
		summary.Fills += fillSlot(state, slot, criteria)
	}

	return summary
}

// roleSurplus returns assigned minus required staff for a role in a slot
func roleSurplus(state *RunState, slot model.SlotKey, role model.Role) int {
	key := model.RoleSlotKey{Day: slot.Day, Window: slot.Window, Role: role}
	required := 0
	if req := state.Requirement(key); req != nil {
		required = req.Required
	}
	return state.AssignedCount(key) - required
}

// swapSlot relabels assignments from over-staffed to under-staffed roles of one slot
func swapSlot(state *RunState, slot model.SlotKey) int {
	swaps := 0

	for _, under := range state.RequirementsInSlot(slot) {
		for state.Outstanding(under) > 0 {
			a, transport := findSwapCandidate(state, slot, under.Role)
			if a == nil {
				break
			}
			a.Transport = transport
			state.relabel(a, under.Role)
			swaps++
		}
	}

	return swaps
}

// findSwapCandidate returns an assignment of an over-staffed role whose worker can take
// the target role, with the transport mode they would use for it
func findSwapCandidate(state *RunState, slot model.SlotKey, target model.Role) (*model.Assignment, model.TransportMode) {
	for _, a := range state.SlotAssignments(slot) {
		if a.Role == target || roleSurplus(state, slot, a.Role) <= 0 {
			continue
		}
		worker := state.Worker(a.WorkerID)
		if worker == nil || !worker.HasRole(target) {
			continue
		}
		if transport, ok := swapTransport(state, worker, a, target); ok {
			return a, transport
		}
	}
	return nil, ""
}

// swapTransport checks transport capacity for moving an assignment to a new role
func swapTransport(state *RunState, worker *model.WorkerProfile, a *model.Assignment, target model.Role) (model.TransportMode, bool) {
	capacity := state.Capacity
	if capacity.LimitedMode == "" || !capacity.IsLimitedRole(target) || a.Transport != capacity.LimitedMode {
		return a.Transport, true
	}

	// The assignment already counts towards the cap
	if capacity.IsLimitedRole(a.Role) {
		return a.Transport, true
	}

	if state.HasCapacity(a.Slot()) {
		return a.Transport, true
	}
	return worker.AlternateTransport(capacity.LimitedMode)
}

// fillSlot adds new assignments for the residual gaps of one slot
func fillSlot(state *RunState, slot model.SlotKey, criteria []Criterion) int {
	fills := 0

	for _, req := range state.RequirementsInSlot(slot) {
		if state.Outstanding(req) == 0 {
			continue
		}

		candidates := make([]*model.WorkerProfile, 0)
		for _, worker := range state.Workers {
			if _, ok := state.canWork(worker, req.Role, slot); ok {
				candidates = append(candidates, worker)
			}
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			wi, wj := state.Workload(candidates[i].ID), state.Workload(candidates[j].ID)
			if wi != wj {
				return wi < wj
			}
			return candidates[i].ID < candidates[j].ID
		})

		for _, worker := range candidates {
			if state.Outstanding(req) == 0 {
				break
			}
			if assignWorker(state, worker, req, ScoreCandidate(state, worker, req, criteria)) {
				fills++
			}
		}
	}

	return fills
}
