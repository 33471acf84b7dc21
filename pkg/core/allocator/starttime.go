package allocator

import (
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// StartTimeSource describes which rule produced a start time
type StartTimeSource int

const (
	// StartTimeNoSlot means no slot is available; the candidate should be skipped
	StartTimeNoSlot StartTimeSource = iota
	StartTimeOverride
	StartTimeConstrained
	StartTimeBelowTarget
	StartTimeEarliest
	StartTimeWindowDefault
)

func (s StartTimeSource) String() string {
	switch s {
	case StartTimeOverride:
		return "override"
	case StartTimeConstrained:
		return "constrained"
	case StartTimeBelowTarget:
		return "below_target"
	case StartTimeEarliest:
		return "earliest"
	case StartTimeWindowDefault:
		return "window_default"
	default:
		return "no_slot"
	}
}

// StartTimeResult is the outcome of start-time allocation.
// OK is false only for the "no slot available" outcome.
type StartTimeResult struct {
	Start  model.TimeOfDay
	OK     bool
	Source StartTimeSource
}

// DefaultStartTimes are used when a window has no configured distribution at all
var DefaultStartTimes = map[model.WindowName]model.TimeOfDay{
	model.WindowLunch:  model.MustParseTimeOfDay("11:00"),
	model.WindowDinner: model.MustParseTimeOfDay("18:00"),
}

// ResolveStartTime picks a concrete start time for a worker filling a requirement.
//
// Resolution order:
//  1. An override start time configured for the worker is returned unconditionally
//  2. Roles under a slot constraint in a constrained window may only use configured slots at or
//     after the cutover; the first one below its target is returned, otherwise "no slot available"
//  3. The first configured slot (in time order) below its target count
//  4. The earliest configured slot when every target is met
//  5. The window default when no distribution is configured (logged as a warning)
func (rs *RunState) ResolveStartTime(worker *model.WorkerProfile, req *model.ShiftRequirement) StartTimeResult {
	if override, ok := rs.Overrides[worker.ID]; ok && override.StartTime != nil {
		return StartTimeResult{Start: *override.StartTime, OK: true, Source: StartTimeOverride}
	}

	targets := rs.Distribution[req.Key()]

	for _, constraint := range rs.SlotConstraints {
		if !constraint.appliesTo(req.Role, req.Window) {
			continue
		}
		for _, target := range targets {
			if target.StartTime < constraint.Cutover {
				continue
			}
			if rs.startTimeUsage[rs.usageKey(req, target.StartTime)] < target.TargetCount {
				return StartTimeResult{Start: target.StartTime, OK: true, Source: StartTimeConstrained}
			}
		}
		return StartTimeResult{OK: false, Source: StartTimeNoSlot}
	}

	for _, target := range targets {
		if rs.startTimeUsage[rs.usageKey(req, target.StartTime)] < target.TargetCount {
			return StartTimeResult{Start: target.StartTime, OK: true, Source: StartTimeBelowTarget}
		}
	}

	if len(targets) > 0 {
		return StartTimeResult{Start: targets[0].StartTime, OK: true, Source: StartTimeEarliest}
	}

	if !rs.warned[req.Key()] {
		rs.warned[req.Key()] = true
		rs.logger.Warn("No start time distribution configured, using window default",
			zap.Int("day", req.Day),
			zap.String("window", string(req.Window)),
			zap.String("role", string(req.Role)))
	}
	return StartTimeResult{Start: rs.windowDefaultStart(req.Window), OK: true, Source: StartTimeWindowDefault}
}

func (rs *RunState) usageKey(req *model.ShiftRequirement, start model.TimeOfDay) startTimeKey {
	return startTimeKey{Day: req.Day, Window: req.Window, Role: req.Role, Start: start}
}

// windowDefaultStart returns the hardcoded default of a known window when it lies within the
// configured window bounds, otherwise the window's outer start
func (rs *RunState) windowDefaultStart(name model.WindowName) model.TimeOfDay {
	w, configured := rs.Window(name)
	start, known := DefaultStartTimes[name]
	switch {
	case !configured && known:
		return start
	case !configured:
		return 0
	case known && start >= w.Start && start < w.End:
		return start
	default:
		return w.Start
	}
}

// windowEnd returns the outer end bound of a window
func (rs *RunState) windowEnd(name model.WindowName) model.TimeOfDay {
	if w, ok := rs.Window(name); ok {
		return w.End
	}
	return 0
}
