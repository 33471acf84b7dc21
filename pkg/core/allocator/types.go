package allocator

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// SlotConstraint restricts the start times a role may use in some windows.
// Only distribution slots at or after Cutover are eligible for the role.
type SlotConstraint struct {
	Role    model.Role
	Windows []model.WindowName
	Cutover model.TimeOfDay
}

// appliesTo returns true if the constraint covers the role in the window
func (c SlotConstraint) appliesTo(role model.Role, window model.WindowName) bool {
	if c.Role != role {
		return false
	}
	for _, w := range c.Windows {
		if w == window {
			return true
		}
	}
	return false
}

// WorkerOverride holds per-worker scheduling overrides, keyed by worker ID
type WorkerOverride struct {
	WorkerID string

	// StartTime, when set, is returned unconditionally by the start-time allocator
	StartTime *model.TimeOfDay

	// PreferredRole earns a scoring bonus for priority workers
	PreferredRole model.Role
}

// PairMember is one side of the priority pairing
type PairMember struct {
	WorkerID string
	Role     model.Role
}

// PriorityPairing is the preferred role pairing between two priority workers
// sharing a (day, window): First works First.Role while Second works Second.Role
type PriorityPairing struct {
	First  PairMember
	Second PairMember
}

// partnerOf returns the other side of the pairing for a worker, and the roles
// the worker and partner take in the canonical pairing
func (p *PriorityPairing) partnerOf(workerID string) (self PairMember, partner PairMember, ok bool) {
	if p == nil {
		return PairMember{}, PairMember{}, false
	}
	switch workerID {
	case p.First.WorkerID:
		return p.First, p.Second, true
	case p.Second.WorkerID:
		return p.Second, p.First, true
	}
	return PairMember{}, PairMember{}, false
}

// startTimeKey identifies a start-time usage counter
type startTimeKey struct {
	Day    int
	Window model.WindowName
	Role   model.Role
	Start  model.TimeOfDay
}

// RunState is the mutable state of a single scheduling run.
// It is owned by one run and never shared, so independent runs (e.g. different weeks)
// can execute concurrently.
type RunState struct {
	// WeekStart is the calendar date of day 0 (Monday)
	WeekStart time.Time

	// Windows ordered by start time
	Windows []model.Window

	// Workers ordered by ID (read-only snapshot)
	Workers []*model.WorkerProfile

	// Requirements in prioritized order
	Requirements []*model.ShiftRequirement

	// Assignments in creation order, including pre-existing ones
	Assignments []*model.Assignment

	// Scarcity per role, computed once per run
	Scarcity map[model.Role]float64

	// Capacity is the scarce transport configuration
	Capacity model.TransportCapacityConfig

	// Distribution targets grouped by (day, window, role), sorted by start time, active only
	Distribution map[model.RoleSlotKey][]model.StartTimeDistributionTarget

	// SlotConstraints restrict start times for some roles
	SlotConstraints []SlotConstraint

	// Overrides keyed by worker ID
	Overrides map[string]WorkerOverride

	// Pairing is the optional priority worker pairing
	Pairing *PriorityPairing

	// Weights used for phase thresholds
	Weights Weights

	// FairShare is the average number of assignments per worker needed to cover all requirements
	FairShare float64

	workersByID        map[string]*model.WorkerProfile
	requirementByKey   map[model.RoleSlotKey]*model.ShiftRequirement
	requirementsBySlot map[model.SlotKey][]*model.ShiftRequirement
	slotAssignments    map[model.SlotKey]map[string]*model.Assignment
	roleCounts         map[model.RoleSlotKey]int
	workload           map[string]int
	startTimeUsage     map[startTimeKey]int
	warned             map[model.RoleSlotKey]bool
	logger             *zap.Logger
}

// Worker returns the worker with the given ID, or nil
func (rs *RunState) Worker(id string) *model.WorkerProfile {
	return rs.workersByID[id]
}

// Requirement returns the requirement for a (day, window, role), or nil
func (rs *RunState) Requirement(key model.RoleSlotKey) *model.ShiftRequirement {
	return rs.requirementByKey[key]
}

// RequirementsInSlot returns the requirements of a (day, window) in prioritized order
func (rs *RunState) RequirementsInSlot(slot model.SlotKey) []*model.ShiftRequirement {
	return rs.requirementsBySlot[slot]
}

// DateOf returns the calendar date of a day index
func (rs *RunState) DateOf(day int) time.Time {
	return rs.WeekStart.AddDate(0, 0, day)
}

// Window returns the window definition for a name
func (rs *RunState) Window(name model.WindowName) (model.Window, bool) {
	for _, w := range rs.Windows {
		if w.Name == name {
			return w, true
		}
	}
	return model.Window{}, false
}

// isFirstWindow returns true if the window is the earliest of the day (e.g. lunch)
func (rs *RunState) isFirstWindow(name model.WindowName) bool {
	return len(rs.Windows) > 1 && rs.Windows[0].Name == name
}

// isLastWindow returns true if the window is the latest of the day (e.g. dinner)
func (rs *RunState) isLastWindow(name model.WindowName) bool {
	return len(rs.Windows) > 1 && rs.Windows[len(rs.Windows)-1].Name == name
}

// windowIndex returns the position of a window in start-time order, or len(Windows) if unknown
func (rs *RunState) windowIndex(name model.WindowName) int {
	for i, w := range rs.Windows {
		if w.Name == name {
			return i
		}
	}
	return len(rs.Windows)
}

// AssignedCount returns the number of assignments for a (day, window, role)
func (rs *RunState) AssignedCount(key model.RoleSlotKey) int {
	return rs.roleCounts[key]
}

// Outstanding returns how many more workers the requirement needs to reach its required staff
func (rs *RunState) Outstanding(req *model.ShiftRequirement) int {
	return max(req.Required-rs.roleCounts[req.Key()], 0)
}

// RoomLeft returns how many more workers the requirement can accept before hitting its maximum
func (rs *RunState) RoomLeft(req *model.ShiftRequirement) int {
	return max(req.Max-rs.roleCounts[req.Key()], 0)
}

// SlotGap returns the total outstanding need across all roles of a (day, window)
func (rs *RunState) SlotGap(slot model.SlotKey) int {
	total := 0
	for _, req := range rs.requirementsBySlot[slot] {
		total += rs.Outstanding(req)
	}
	return total
}

// AssignmentFor returns the worker's assignment in a (day, window), or nil
func (rs *RunState) AssignmentFor(workerID string, slot model.SlotKey) *model.Assignment {
	return rs.slotAssignments[slot][workerID]
}

// IsAssigned returns true if the worker already works the (day, window)
func (rs *RunState) IsAssigned(workerID string, slot model.SlotKey) bool {
	return rs.AssignmentFor(workerID, slot) != nil
}

// SlotAssignments returns the assignments of a (day, window) ordered by worker ID
func (rs *RunState) SlotAssignments(slot model.SlotKey) []*model.Assignment {
	bySlot := rs.slotAssignments[slot]
	assignments := make([]*model.Assignment, 0, len(bySlot))
	for _, a := range bySlot {
		assignments = append(assignments, a)
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].WorkerID < assignments[j].WorkerID
	})
	return assignments
}

// Workload returns the running assignment count of a worker
func (rs *RunState) Workload(workerID string) int {
	return rs.workload[workerID]
}

// Slots returns every (day, window) that has at least one requirement, in week order
func (rs *RunState) Slots() []model.SlotKey {
	slots := make([]model.SlotKey, 0, len(rs.requirementsBySlot))
	for slot := range rs.requirementsBySlot {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Day != slots[j].Day {
			return slots[i].Day < slots[j].Day
		}
		return rs.windowIndex(slots[i].Window) < rs.windowIndex(slots[j].Window)
	})
	return slots
}

// addAssignment records an assignment and updates all bookkeeping immediately
func (rs *RunState) addAssignment(a *model.Assignment) {
	slot := a.Slot()
	if rs.slotAssignments[slot] == nil {
		rs.slotAssignments[slot] = make(map[string]*model.Assignment)
	}
	rs.slotAssignments[slot][a.WorkerID] = a
	rs.Assignments = append(rs.Assignments, a)
	rs.roleCounts[a.Key()]++
	rs.workload[a.WorkerID]++
	rs.startTimeUsage[startTimeKey{Day: a.Day, Window: a.Window, Role: a.Role, Start: a.StartTime}]++
}

// relabel changes the role of an assignment in place, flagging pre-committed ones
func (rs *RunState) relabel(a *model.Assignment, role model.Role) {
	oldUsage := startTimeKey{Day: a.Day, Window: a.Window, Role: a.Role, Start: a.StartTime}
	if rs.startTimeUsage[oldUsage] > 0 {
		rs.startTimeUsage[oldUsage]--
	}
	rs.roleCounts[a.Key()]--

	a.Role = role
	if a.Existing {
		a.Relabelled = true
	}

	rs.roleCounts[a.Key()]++
	rs.startTimeUsage[startTimeKey{Day: a.Day, Window: a.Window, Role: a.Role, Start: a.StartTime}]++
}
