package allocator

import "github.com/jakechorley/shift-planner/pkg/core/model"

// CapacityUsage counts the assignments of a (day, window) that hold a capacity-limited role
// and travel with the limited transport mode
func (rs *RunState) CapacityUsage(slot model.SlotKey) int {
	if rs.Capacity.LimitedMode == "" {
		return 0
	}
	count := 0
	for _, a := range rs.slotAssignments[slot] {
		if a.Transport == rs.Capacity.LimitedMode && rs.Capacity.IsLimitedRole(a.Role) {
			count++
		}
	}
	return count
}

// HasCapacity reports whether one more limited-mode assignment fits in the (day, window).
// Callers must separately check whether a rejected worker has an alternate transport mode.
func (rs *RunState) HasCapacity(slot model.SlotKey) bool {
	if rs.Capacity.LimitedMode == "" {
		return true
	}
	return rs.CapacityUsage(slot) < rs.Capacity.MaxPerSlot
}

// workerTransport returns the transport mode a worker uses by default
func workerTransport(worker *model.WorkerProfile) model.TransportMode {
	if worker.PrimaryTransport != "" {
		return worker.PrimaryTransport
	}
	if len(worker.TransportModes) > 0 {
		return worker.TransportModes[0]
	}
	return ""
}

// ResolveTransport decides which transport mode a worker would use for a role in a (day, window).
//
// Returns the worker's default mode unless the role is capacity-limited and the default mode
// is the limited one. In that case the limited mode is returned while capacity remains,
// otherwise an alternate mode is used if the worker has one. Returns false when the worker
// can only use the limited mode and the cap is reached.
func (rs *RunState) ResolveTransport(worker *model.WorkerProfile, role model.Role, slot model.SlotKey) (model.TransportMode, bool) {
	mode := workerTransport(worker)

	if rs.Capacity.LimitedMode == "" || !rs.Capacity.IsLimitedRole(role) || mode != rs.Capacity.LimitedMode {
		return mode, true
	}

	if rs.HasCapacity(slot) {
		return mode, true
	}

	return worker.AlternateTransport(rs.Capacity.LimitedMode)
}
