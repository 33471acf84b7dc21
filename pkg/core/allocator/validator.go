package allocator

import (
	"fmt"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// ValidateSchedule re-checks the schedule invariants on the final state.
// Returns a slice of validation errors for any violations; an empty slice means the schedule is valid.
//
// Qualification and availability are checked for assignments made by this run only. Staffing
// maximums and transport capacity are reported only for slots this run added to, so a
// pre-committed schedule that already breaks them does not block the run.
func ValidateSchedule(state *RunState) []ValidationError {
	errors := []ValidationError{}

	errors = append(errors, validateDoubleBooking(state)...)
	errors = append(errors, validateWorkers(state)...)
	errors = append(errors, validateMaxStaff(state)...)
	errors = append(errors, validateCapacity(state)...)

	return errors
}

func validateDoubleBooking(state *RunState) []ValidationError {
	var errors []ValidationError

	seen := make(map[string]map[model.SlotKey]bool)
	for _, a := range state.Assignments {
		if seen[a.WorkerID] == nil {
			seen[a.WorkerID] = make(map[model.SlotKey]bool)
		}
		if seen[a.WorkerID][a.Slot()] {
			errors = append(errors, ValidationError{
				CriterionName: "DoubleBooking",
				Day:           a.Day,
				Window:        a.Window,
				WorkerID:      a.WorkerID,
				Description:   fmt.Sprintf("Worker %s has more than one assignment on %s", a.WorkerID, a.Slot()),
			})
		}
		seen[a.WorkerID][a.Slot()] = true
	}

	return errors
}

func validateWorkers(state *RunState) []ValidationError {
	var errors []ValidationError

	for _, a := range state.Assignments {
		if a.Existing {
			continue
		}
		worker := state.Worker(a.WorkerID)
		if worker == nil {
			errors = append(errors, ValidationError{
				CriterionName: "UnknownWorker",
				Day:           a.Day,
				Window:        a.Window,
				WorkerID:      a.WorkerID,
				Description:   fmt.Sprintf("Worker %s is not in the snapshot", a.WorkerID),
			})
			continue
		}
		if !worker.HasRole(a.Role) {
			errors = append(errors, ValidationError{
				CriterionName: "Qualification",
				Day:           a.Day,
				Window:        a.Window,
				WorkerID:      a.WorkerID,
				Description:   fmt.Sprintf("Worker %s is not qualified for %s", a.WorkerID, a.Role),
			})
		}
		if !worker.IsAvailable(a.Slot()) {
			errors = append(errors, ValidationError{
				CriterionName: "Availability",
				Day:           a.Day,
				Window:        a.Window,
				WorkerID:      a.WorkerID,
				Description:   fmt.Sprintf("Worker %s is not available on %s", a.WorkerID, a.Slot()),
			})
		}
		if date := state.DateOf(a.Day); worker.IsAbsent(date) {
			errors = append(errors, ValidationError{
				CriterionName: "Absence",
				Day:           a.Day,
				Window:        a.Window,
				WorkerID:      a.WorkerID,
				Description:   fmt.Sprintf("Worker %s is absent on %s", a.WorkerID, date.Format("2006-01-02")),
			})
		}
	}

	return errors
}

// touchedSlots returns the slots holding at least one assignment made by this run
func touchedSlots(state *RunState) map[model.SlotKey]bool {
	touched := make(map[model.SlotKey]bool)
	for _, a := range state.Assignments {
		if !a.Existing {
			touched[a.Slot()] = true
		}
	}
	return touched
}

func validateMaxStaff(state *RunState) []ValidationError {
	var errors []ValidationError

	touched := touchedSlots(state)
	for _, req := range state.Requirements {
		if !touched[req.Slot()] {
			continue
		}
		if count := state.AssignedCount(req.Key()); count > req.Max {
			errors = append(errors, ValidationError{
				CriterionName: "MaxStaff",
				Day:           req.Day,
				Window:        req.Window,
				Description:   fmt.Sprintf("%s has %d assigned but max is %d", req.Role, count, req.Max),
			})
		}
	}

	return errors
}

func validateCapacity(state *RunState) []ValidationError {
	var errors []ValidationError
	if state.Capacity.LimitedMode == "" {
		return errors
	}

	touched := touchedSlots(state)
	for _, slot := range state.occupiedSlots() {
		if !touched[slot] {
			continue
		}
		if usage := state.CapacityUsage(slot); usage > state.Capacity.MaxPerSlot {
			errors = append(errors, ValidationError{
				CriterionName: "TransportCapacity",
				Day:           slot.Day,
				Window:        slot.Window,
				Description: fmt.Sprintf("%d workers use %s but the cap is %d",
					usage, state.Capacity.LimitedMode, state.Capacity.MaxPerSlot),
			})
		}
	}

	return errors
}
