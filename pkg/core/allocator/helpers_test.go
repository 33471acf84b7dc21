package allocator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

const (
	roleChef   model.Role = "Chef"
	roleWaiter model.Role = "Waiter"
	roleRider  model.Role = "Rider"

	modeScooter model.TransportMode = "scooter"
	modeCar     model.TransportMode = "car"
	modeBike    model.TransportMode = "bike"
)

// testWeekStart is a Monday
var testWeekStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// availableEverywhere returns an availability matrix covering every day and default window
func availableEverywhere() map[model.SlotKey]bool {
	availability := make(map[model.SlotKey]bool)
	for day := 0; day < model.DaysPerWeek; day++ {
		availability[model.SlotKey{Day: day, Window: model.WindowLunch}] = true
		availability[model.SlotKey{Day: day, Window: model.WindowDinner}] = true
	}
	return availability
}

// availableOn returns an availability matrix covering only the given slots
func availableOn(slots ...model.SlotKey) map[model.SlotKey]bool {
	availability := make(map[model.SlotKey]bool)
	for _, slot := range slots {
		availability[slot] = true
	}
	return availability
}

// newWorker returns a worker available everywhere who travels by bike
func newWorker(id string, primary model.Role, secondary ...model.Role) model.WorkerProfile {
	return model.WorkerProfile{
		ID:               id,
		Name:             id,
		PrimaryRole:      primary,
		QualifiedRoles:   append([]model.Role{primary}, secondary...),
		PrimaryTransport: modeBike,
		TransportModes:   []model.TransportMode{modeBike},
		Availability:     availableEverywhere(),
	}
}

func slotKey(day int, window model.WindowName) model.SlotKey {
	return model.SlotKey{Day: day, Window: window}
}

func requirement(day int, window model.WindowName, role model.Role, required int) model.ShiftRequirement {
	return model.ShiftRequirement{Day: day, Window: window, Role: role, Required: required, Max: required}
}

// newTestState builds an initialised run state, failing the test on error
func newTestState(t *testing.T, config AllocationConfig) *RunState {
	t.Helper()
	if config.WeekStart.IsZero() {
		config.WeekStart = testWeekStart
	}
	allocator, err := InitAllocation(config)
	require.NoError(t, err)
	return allocator.State()
}

// place adds an assignment to the state the way the phases do, without eligibility checks
func place(state *RunState, workerID string, day int, window model.WindowName, role model.Role, transport model.TransportMode) *model.Assignment {
	a := &model.Assignment{
		ID:        workerID + "-" + model.DayName(day) + "-" + string(window),
		WorkerID:  workerID,
		Day:       day,
		Window:    window,
		Role:      role,
		StartTime: state.windowDefaultStart(window),
		EndTime:   state.windowEnd(window),
		Transport: transport,
	}
	state.addAssignment(a)
	return a
}

// assignmentTuple is the identity of an assignment ignoring its generated ID
type assignmentTuple struct {
	WorkerID string
	Day      int
	Window   model.WindowName
	Role     model.Role
}

func tuples(assignments []*model.Assignment) map[assignmentTuple]int {
	result := make(map[assignmentTuple]int, len(assignments))
	for _, a := range assignments {
		result[assignmentTuple{WorkerID: a.WorkerID, Day: a.Day, Window: a.Window, Role: a.Role}]++
	}
	return result
}
