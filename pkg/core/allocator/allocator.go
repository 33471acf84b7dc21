package allocator

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// phase is one ordered pass of the orchestrator
type phase struct {
	name string
	mode Mode

	// include restricts the requirements the phase acts on (nil means all)
	include func(state *RunState, req *model.ShiftRequirement) bool
}

// phases returns the five assignment passes in order
func phases() []phase {
	return []phase{
		{name: "vip", mode: ModeVIP},
		{name: "primary", mode: ModePrimary},
		{
			name: "critical-secondary",
			mode: ModeSecondary,
			include: func(state *RunState, req *model.ShiftRequirement) bool {
				return state.Scarcity[req.Role] > state.Weights.HighScarcityThreshold
			},
		},
		{name: "secondary", mode: ModeSecondary},
		{name: "flexible", mode: ModeFlexible},
	}
}

// PhaseSummary reports what a single phase did
type PhaseSummary struct {
	Name     string
	Mode     Mode
	Assigned int
}

// AllocationOutcome represents the result of a scheduling run
type AllocationOutcome struct {
	// State is the final run state after all passes
	State *RunState

	// Result is the final schedule with gaps and quality metrics
	Result model.ScheduleResult

	// Phases summarises the assignment phases in order
	Phases []PhaseSummary

	// Refinement summarises the swap and fill pass
	Refinement RefinementSummary

	// PairSwaps lists the slots where the priority pair's roles were swapped
	PairSwaps []model.SlotKey

	// Success indicates every requirement is covered and the schedule is valid
	Success bool

	// ValidationErrors contains any invariant violations found in the final schedule
	ValidationErrors []ValidationError
}

// Allocate runs a complete scheduling run: the five assignment phases,
// refinement, priority pair coordination and final statistics
func Allocate(config AllocationConfig) (*AllocationOutcome, error) {

	// Initialise allocator
	allocator, err := InitAllocation(config)
	if err != nil {
		return nil, err
	}

	summaries := make([]PhaseSummary, 0, 5)
	for _, p := range phases() {
		summaries = append(summaries, allocator.runPhase(p))
	}

	refinement := Refine(allocator.state, allocator.criteria)
	allocator.logger.Debug("Refinement complete",
		zap.Int("swaps", refinement.Swaps),
		zap.Int("fills", refinement.Fills))

	pairSwaps := CoordinatePriorityPair(allocator.state)
	if len(pairSwaps) > 0 {
		allocator.logger.Debug("Priority pair coordinated", zap.Int("swaps", len(pairSwaps)))
	}

	outcome := allocator.buildOutcome()
	outcome.Phases = summaries
	outcome.Refinement = refinement
	outcome.PairSwaps = pairSwaps

	return outcome, nil
}

// Evaluate computes statistics and validation for the existing assignments of the config
// without assigning anyone
func Evaluate(config AllocationConfig) (*AllocationOutcome, error) {
	allocator, err := InitAllocation(config)
	if err != nil {
		return nil, err
	}
	return allocator.buildOutcome(), nil
}

// runPhase walks the prioritized requirements and greedily assigns the best candidates
// until each requirement's outstanding need is met or candidates run out
func (a *Allocator) runPhase(p phase) PhaseSummary {
	state := a.state
	summary := PhaseSummary{Name: p.name, Mode: p.mode}

	for _, req := range state.Requirements {
		if state.Outstanding(req) == 0 {
			continue
		}
		if p.include != nil && !p.include(state, req) {
			continue
		}

		candidates := RankCandidates(state, req, p.mode, a.criteria)
		for _, candidate := range candidates {
			if state.Outstanding(req) == 0 || state.RoomLeft(req) == 0 {
				break
			}
			if assignWorker(state, candidate.Worker, req, candidate.Score) {
				summary.Assigned++
			}
		}
	}

	a.logger.Debug("Phase complete",
		zap.String("phase", p.name),
		zap.Int("assigned", summary.Assigned),
		zap.Int("assignments", len(state.Assignments)))

	return summary
}

// assignWorker creates an assignment for the worker if transport capacity and a start time
// are still available, updating all bookkeeping immediately.
// Returns false when the candidate has to be skipped.
func assignWorker(state *RunState, worker *model.WorkerProfile, req *model.ShiftRequirement, score int) bool {
	slot := req.Slot()

	// Capacity may have been consumed by an earlier candidate of the same requirement
	transport, ok := state.ResolveTransport(worker, req.Role, slot)
	if !ok {
		return false
	}

	start := state.ResolveStartTime(worker, req)
	if !start.OK {
		return false
	}

	state.addAssignment(&model.Assignment{
		ID:        uuid.NewString(),
		WorkerID:  worker.ID,
		Day:       req.Day,
		Window:    req.Window,
		Role:      req.Role,
		StartTime: start.Start,
		EndTime:   state.windowEnd(req.Window),
		Transport: transport,
		Score:     score,
	})
	return true
}

// buildOutcome creates the final allocation outcome report
func (a *Allocator) buildOutcome() *AllocationOutcome {
	outcome := &AllocationOutcome{
		State:            a.state,
		Phases:           []PhaseSummary{},
		PairSwaps:        []model.SlotKey{},
		ValidationErrors: []ValidationError{},
	}

	// Safety check
	if a.state == nil {
		outcome.Success = false
		return outcome
	}

	outcome.Result = ComputeStatistics(a.state)
	outcome.ValidationErrors = ValidateSchedule(a.state)

	// Success if every requirement is covered and no invariant is violated
	outcome.Success = len(outcome.Result.Gaps) == 0 && len(outcome.ValidationErrors) == 0

	return outcome
}
