package allocator

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

var (
	// ErrNoRequirements is returned when a run has no staffing requirements at all
	ErrNoRequirements = errors.New("no shift requirements loaded")

	// ErrNoWorkers is returned when a run has no workers to schedule
	ErrNoWorkers = errors.New("no workers loaded")

	// ErrUnknownWindow is returned when a requirement, target or assignment names a window that is not configured
	ErrUnknownWindow = errors.New("unknown window")
)

// DefaultWindows are used when no windows are configured
func DefaultWindows() []model.Window {
	return []model.Window{
		{Name: model.WindowLunch, Start: model.MustParseTimeOfDay("11:00"), End: model.MustParseTimeOfDay("15:00")},
		{Name: model.WindowDinner, Start: model.MustParseTimeOfDay("18:00"), End: model.MustParseTimeOfDay("23:00")},
	}
}

// AllocationConfig contains the read-only snapshot and settings of a single run
type AllocationConfig struct {
	// WeekStart is the calendar date of day 0 (Monday), used to resolve absences
	WeekStart time.Time

	// Windows of the day; DefaultWindows() when empty
	Windows []model.Window

	// Workers are the active workers, with absences already resolved
	Workers []model.WorkerProfile

	// Requirements are the staffing targets of the week
	Requirements []model.ShiftRequirement

	// Distribution is the optional start-time distribution; missing entries fall back to window defaults
	Distribution []model.StartTimeDistributionTarget

	// Capacity caps scarce transport usage per (day, window); MaxPerSlot defaults to model.DefaultMaxPerSlot
	Capacity model.TransportCapacityConfig

	// ExistingAssignments are pre-committed and take part in conflict and capacity checks.
	// Phases never modify them; refinement and priority pair coordination may relabel their role.
	ExistingAssignments []model.Assignment

	// RolePriority is the configured importance of each role (higher first)
	RolePriority map[model.Role]int

	// SlotConstraints restrict start times of some roles in some windows
	SlotConstraints []SlotConstraint

	// Overrides are per-worker start times and preferred roles
	Overrides []WorkerOverride

	// Pairing is the optional preferred role pairing of two priority workers
	Pairing *PriorityPairing

	// Weights is the scoring weight table; DefaultWeights() when nil.
	// Zero-valued fields are filled from the defaults.
	Weights *Weights

	// Criteria to score candidates with; DefaultCriteria(Weights) when nil
	Criteria []Criterion

	// Logger receives debug phase summaries and warnings; a no-op logger when nil
	Logger *zap.Logger
}

// Allocator runs the assignment phases over a RunState with a set of criteria
type Allocator struct {
	criteria []Criterion
	state    *RunState
	logger   *zap.Logger
}

// InitAllocation validates the snapshot and builds the initial run state.
//
// Returns:
//   - ErrNoRequirements if there are no requirements
//   - ErrNoWorkers if there are no workers
//   - ErrUnknownWindow (wrapped) if any input names a window that is not configured
//   - an error for out-of-range days and duplicated requirements or workers
func InitAllocation(config AllocationConfig) (*Allocator, error) {
	if len(config.Requirements) == 0 {
		return nil, ErrNoRequirements
	}
	if len(config.Workers) == 0 {
		return nil, ErrNoWorkers
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	weights := DefaultWeights()
	if config.Weights != nil {
		weights = config.Weights.withDefaults()
	}

	criteria := config.Criteria
	if criteria == nil {
		criteria = DefaultCriteria(weights)
	}

	windows := config.Windows
	if len(windows) == 0 {
		windows = DefaultWindows()
	}
	windows = append([]model.Window(nil), windows...)
	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].Start < windows[j].Start
	})
	knownWindow := make(map[model.WindowName]bool, len(windows))
	for _, w := range windows {
		knownWindow[w.Name] = true
	}

	checkSlot := func(kind string, day int, window model.WindowName) error {
		if day < 0 || day >= model.DaysPerWeek {
			return fmt.Errorf("%s has day %d outside 0-%d", kind, day, model.DaysPerWeek-1)
		}
		if !knownWindow[window] {
			return fmt.Errorf("%s on %s: %w %q", kind, model.DayName(day), ErrUnknownWindow, window)
		}
		return nil
	}

	// Workers ordered by ID for deterministic tie-breaks
	workers := make([]*model.WorkerProfile, len(config.Workers))
	workersByID := make(map[string]*model.WorkerProfile, len(config.Workers))
	for i := range config.Workers {
		worker := config.Workers[i]
		if _, exists := workersByID[worker.ID]; exists {
			return nil, fmt.Errorf("duplicate worker %q", worker.ID)
		}
		workers[i] = &worker
		workersByID[worker.ID] = &worker
	}
	sort.Slice(workers, func(i, j int) bool {
		return workers[i].ID < workers[j].ID
	})

	seenRequirements := make(map[model.RoleSlotKey]bool, len(config.Requirements))
	requirements := make([]model.ShiftRequirement, 0, len(config.Requirements))
	for _, req := range config.Requirements {
		if err := checkSlot("requirement", req.Day, req.Window); err != nil {
			return nil, err
		}
		if seenRequirements[req.Key()] {
			return nil, fmt.Errorf("duplicate requirement for %s %s %s", model.DayName(req.Day), req.Window, req.Role)
		}
		seenRequirements[req.Key()] = true

		if req.Required < 0 {
			req.Required = 0
		}
		if req.Max < req.Required {
			req.Max = req.Required
		}
		requirements = append(requirements, req)
	}

	prioritized := PrioritizeRequirements(requirements, config.RolePriority, windows)

	requirementByKey := make(map[model.RoleSlotKey]*model.ShiftRequirement, len(prioritized))
	requirementsBySlot := make(map[model.SlotKey][]*model.ShiftRequirement)
	totalRequired := 0
	for _, req := range prioritized {
		requirementByKey[req.Key()] = req
		requirementsBySlot[req.Slot()] = append(requirementsBySlot[req.Slot()], req)
		totalRequired += req.Required
	}

	distribution := make(map[model.RoleSlotKey][]model.StartTimeDistributionTarget)
	for _, target := range config.Distribution {
		if !target.Active {
			continue
		}
		if err := checkSlot("start time target", target.Day, target.Window); err != nil {
			return nil, err
		}
		key := model.RoleSlotKey{Day: target.Day, Window: target.Window, Role: target.Role}
		distribution[key] = append(distribution[key], target)
	}
	for key := range distribution {
		targets := distribution[key]
		sort.SliceStable(targets, func(i, j int) bool {
			return targets[i].StartTime < targets[j].StartTime
		})
	}

	capacity := config.Capacity
	if capacity.MaxPerSlot <= 0 {
		capacity.MaxPerSlot = model.DefaultMaxPerSlot
	}

	overrides := make(map[string]WorkerOverride, len(config.Overrides))
	for _, o := range config.Overrides {
		overrides[o.WorkerID] = o
	}

	state := &RunState{
		WeekStart:          config.WeekStart,
		Windows:            windows,
		Workers:            workers,
		Requirements:       prioritized,
		Assignments:        []*model.Assignment{},
		Scarcity:           AnalyzeScarcity(workers, prioritized),
		Capacity:           capacity,
		Distribution:       distribution,
		SlotConstraints:    config.SlotConstraints,
		Overrides:          overrides,
		Pairing:            config.Pairing,
		Weights:            weights,
		FairShare:          float64(totalRequired) / float64(len(workers)),
		workersByID:        workersByID,
		requirementByKey:   requirementByKey,
		requirementsBySlot: requirementsBySlot,
		slotAssignments:    make(map[model.SlotKey]map[string]*model.Assignment),
		roleCounts:         make(map[model.RoleSlotKey]int),
		workload:           make(map[string]int),
		startTimeUsage:     make(map[startTimeKey]int),
		warned:             make(map[model.RoleSlotKey]bool),
		logger:             logger,
	}

	for i := range config.ExistingAssignments {
		existing := config.ExistingAssignments[i]
		if err := checkSlot("existing assignment", existing.Day, existing.Window); err != nil {
			return nil, err
		}
		if state.IsAssigned(existing.WorkerID, existing.Slot()) {
			logger.Warn("Ignoring duplicate existing assignment",
				zap.String("worker", existing.WorkerID),
				zap.String("slot", existing.Slot().String()))
			continue
		}
		existing.Existing = true
		state.addAssignment(&existing)
	}

	logger.Debug("Initialised allocation",
		zap.Int("workers", len(workers)),
		zap.Int("requirements", len(prioritized)),
		zap.Int("total_required", totalRequired),
		zap.Int("existing_assignments", len(state.Assignments)),
		zap.Float64("fair_share", state.FairShare))

	return &Allocator{
		criteria: criteria,
		state:    state,
		logger:   logger,
	}, nil
}

// State returns the run state owned by the allocator
func (a *Allocator) State() *RunState {
	return a.state
}
