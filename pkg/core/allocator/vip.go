package allocator

import (
	"sort"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// CoordinatePriorityPair enforces the preferred role pairing of the two configured priority
// workers in every (day, window) where both are assigned.
//
// Already-optimal slots are left alone. When the roles are the exact inverse of the pairing
// and both workers are qualified for each other's role, the roles are swapped in place
// unless the swap would push scarce transport usage over the cap. Any other configuration
// is left untouched.
//
// Returns the slots where a swap happened, in week order.
func CoordinatePriorityPair(state *RunState) []model.SlotKey {
	swapped := []model.SlotKey{}
	pairing := state.Pairing
	if pairing == nil {
		return swapped
	}

	first := state.Worker(pairing.First.WorkerID)
	second := state.Worker(pairing.Second.WorkerID)
	if first == nil || second == nil {
		return swapped
	}

	for _, slot := range state.occupiedSlots() {
		a1 := state.AssignmentFor(first.ID, slot)
		a2 := state.AssignmentFor(second.ID, slot)
		if a1 == nil || a2 == nil {
			continue
		}

		// Already optimal
		if a1.Role == pairing.First.Role && a2.Role == pairing.Second.Role {
			continue
		}
		// Only the exact inverse is corrected
		if a1.Role != pairing.Second.Role || a2.Role != pairing.First.Role {
			continue
		}
		if !first.HasRole(pairing.First.Role) || !second.HasRole(pairing.Second.Role) {
			continue
		}
		if !pairSwapFitsCapacity(state, slot, a1, a2) {
			continue
		}

		state.relabel(a1, pairing.First.Role)
		state.relabel(a2, pairing.Second.Role)
		swapped = append(swapped, slot)
	}

	return swapped
}

// pairSwapFitsCapacity checks that exchanging the roles of two assignments does not
// take scarce transport usage of the slot over the cap when it was within it
func pairSwapFitsCapacity(state *RunState, slot model.SlotKey, a1, a2 *model.Assignment) bool {
	capacity := state.Capacity
	if capacity.LimitedMode == "" {
		return true
	}

	counts := func(role model.Role, transport model.TransportMode) int {
		if transport == capacity.LimitedMode && capacity.IsLimitedRole(role) {
			return 1
		}
		return 0
	}

	before := counts(a1.Role, a1.Transport) + counts(a2.Role, a2.Transport)
	after := counts(a2.Role, a1.Transport) + counts(a1.Role, a2.Transport)
	if after <= before {
		return true
	}
	return state.CapacityUsage(slot)-before+after <= capacity.MaxPerSlot
}

// occupiedSlots returns every (day, window) holding at least one assignment, in week order
func (rs *RunState) occupiedSlots() []model.SlotKey {
	slots := make([]model.SlotKey, 0, len(rs.slotAssignments))
	for slot, bySlot := range rs.slotAssignments {
		if len(bySlot) > 0 {
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Day != slots[j].Day {
			return slots[i].Day < slots[j].Day
		}
		return rs.windowIndex(slots[i].Window) < rs.windowIndex(slots[j].Window)
	})
	return slots
}
