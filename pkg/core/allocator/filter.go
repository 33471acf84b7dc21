package allocator

import "github.com/jakechorley/shift-planner/pkg/core/model"

// Mode selects the eligibility rule set of an assignment phase
type Mode int

const (
	// ModeVIP admits priority workers only, in any qualified role, with the rest rule relaxed
	ModeVIP Mode = iota
	// ModePrimary admits workers whose primary role matches, with the rest rule enforced
	ModePrimary
	// ModeSecondary admits workers qualified for the role as a non-primary role, with the rest rule enforced
	ModeSecondary
	// ModeFlexible admits any qualified worker, with the rest rule relaxed
	ModeFlexible
)

func (m Mode) String() string {
	switch m {
	case ModeVIP:
		return "vip"
	case ModePrimary:
		return "primary"
	case ModeSecondary:
		return "secondary"
	case ModeFlexible:
		return "flexible"
	default:
		return "unknown"
	}
}

// enforcesRest returns true if the mode applies the same-day rest rule
func (m Mode) enforcesRest() bool {
	return m == ModePrimary || m == ModeSecondary
}

// matchesRole returns true if the worker satisfies the mode's role-match rule
func (m Mode) matchesRole(worker *model.WorkerProfile, role model.Role) bool {
	switch m {
	case ModeVIP:
		return worker.IsPriority
	case ModePrimary:
		return worker.PrimaryRole == role
	case ModeSecondary:
		return worker.PrimaryRole != role
	case ModeFlexible:
		return true
	default:
		return false
	}
}

// violatesRest returns true if working the slot would break the rest rule:
// no first window of the day after the previous day's last window,
// and no last window if working the next day's first window
func (rs *RunState) violatesRest(workerID string, slot model.SlotKey) bool {
	if len(rs.Windows) < 2 {
		return false
	}
	first := rs.Windows[0].Name
	last := rs.Windows[len(rs.Windows)-1].Name

	if slot.Window == first && slot.Day > 0 {
		if rs.IsAssigned(workerID, model.SlotKey{Day: slot.Day - 1, Window: last}) {
			return true
		}
	}
	if slot.Window == last && slot.Day < model.DaysPerWeek-1 {
		if rs.IsAssigned(workerID, model.SlotKey{Day: slot.Day + 1, Window: first}) {
			return true
		}
	}
	return false
}

// canWork checks the hard constraints shared by every phase and the refinement fill:
// qualification, availability, absence, no double booking and transport capacity
func (rs *RunState) canWork(worker *model.WorkerProfile, role model.Role, slot model.SlotKey) (model.TransportMode, bool) {
	if !worker.HasRole(role) {
		return "", false
	}
	if !worker.IsAvailable(slot) {
		return "", false
	}
	if worker.IsAbsent(rs.DateOf(slot.Day)) {
		return "", false
	}
	if rs.IsAssigned(worker.ID, slot) {
		return "", false
	}
	return rs.ResolveTransport(worker, role, slot)
}

// IsEligible reports whether a worker may be assigned to the requirement under the mode,
// and the transport mode they would use
func (rs *RunState) IsEligible(worker *model.WorkerProfile, req *model.ShiftRequirement, mode Mode) (model.TransportMode, bool) {
	if !mode.matchesRole(worker, req.Role) {
		return "", false
	}
	slot := req.Slot()
	if mode.enforcesRest() && rs.violatesRest(worker.ID, slot) {
		return "", false
	}
	return rs.canWork(worker, req.Role, slot)
}
