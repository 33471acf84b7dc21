package allocator

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

func TestAllocate_SingleQualifiedWorker(t *testing.T) {
	worker := newWorker("w1", roleChef)
	worker.Availability = availableOn(slotKey(0, model.WindowLunch))

	outcome, err := Allocate(AllocationConfig{
		WeekStart:    testWeekStart,
		Workers:      []model.WorkerProfile{worker},
		Requirements: []model.ShiftRequirement{requirement(0, model.WindowLunch, roleChef, 1)},
	})
	require.NoError(t, err)

	require.Len(t, outcome.Result.Assignments, 1)
	a := outcome.Result.Assignments[0]
	assert.Equal(t, "w1", a.WorkerID)
	assert.Equal(t, 0, a.Day)
	assert.Equal(t, model.WindowLunch, a.Window)
	assert.Equal(t, roleChef, a.Role)
	assert.Equal(t, model.MustParseTimeOfDay("11:00"), a.StartTime)
	assert.Equal(t, model.MustParseTimeOfDay("15:00"), a.EndTime)
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.Existing)

	assert.Empty(t, outcome.Result.Gaps)
	assert.Equal(t, 1.0, outcome.Result.Metrics.CoverageScore)
	assert.Empty(t, outcome.ValidationErrors)
	assert.True(t, outcome.Success)
}

func TestAllocate_TransportCapacityLeavesGap(t *testing.T) {
	outcome, err := Allocate(AllocationConfig{
		WeekStart:    testWeekStart,
		Workers:      []model.WorkerProfile{scooterRider("r1"), scooterRider("r2"), scooterRider("r3")},
		Requirements: []model.ShiftRequirement{requirement(1, model.WindowDinner, roleRider, 3)},
		Capacity: model.TransportCapacityConfig{
			LimitedMode:  modeScooter,
			LimitedRoles: []model.Role{roleRider},
			MaxPerSlot:   1,
		},
	})
	require.NoError(t, err)

	scooters := 0
	for _, a := range outcome.Result.Assignments {
		if a.Transport == modeScooter {
			scooters++
		}
	}
	assert.Equal(t, 1, scooters)
	assert.Len(t, outcome.Result.Assignments, 1)

	require.Len(t, outcome.Result.Gaps, 1)
	gap := outcome.Result.Gaps[0]
	assert.Equal(t, 1, gap.Day)
	assert.Equal(t, model.WindowDinner, gap.Window)
	assert.Equal(t, roleRider, gap.Role)
	assert.Equal(t, 3, gap.Required)
	assert.Equal(t, 1, gap.Assigned)
	assert.Equal(t, 2, gap.Missing)
	assert.Empty(t, outcome.ValidationErrors)
	assert.False(t, outcome.Success)
}

func TestAllocate_TransportCapacityUsesAlternateMode(t *testing.T) {
	outcome, err := Allocate(AllocationConfig{
		WeekStart:    testWeekStart,
		Workers:      []model.WorkerProfile{scooterRider("r1"), scooterRider("r2", modeCar), scooterRider("r3")},
		Requirements: []model.ShiftRequirement{requirement(1, model.WindowDinner, roleRider, 3)},
		Capacity: model.TransportCapacityConfig{
			LimitedMode:  modeScooter,
			LimitedRoles: []model.Role{roleRider},
			MaxPerSlot:   1,
		},
	})
	require.NoError(t, err)

	byWorker := make(map[string]model.TransportMode)
	for _, a := range outcome.Result.Assignments {
		byWorker[a.WorkerID] = a.Transport
	}
	assert.Len(t, byWorker, 2)
	assert.Equal(t, modeCar, byWorker["r2"])
	require.Len(t, outcome.Result.Gaps, 1)
	assert.Equal(t, 1, outcome.Result.Gaps[0].Missing)
}

func TestAllocate_PriorityPairInvertedByPhasesIsSwapped(t *testing.T) {
	alice := newWorker("alice", roleWaiter, roleChef)
	bob := newWorker("bob", roleChef, roleWaiter)
	alice.IsPriority, bob.IsPriority = true, true

	outcome, err := Allocate(AllocationConfig{
		WeekStart: testWeekStart,
		Workers:   []model.WorkerProfile{alice, bob},
		Requirements: []model.ShiftRequirement{
			requirement(0, model.WindowLunch, roleChef, 1),
			requirement(0, model.WindowLunch, roleWaiter, 1),
		},
		// Waiters are filled first and scoring is flat, so the VIP phase gives alice
		// the waiter place and bob the chef place: the inverse of the preferred pairing
		RolePriority: map[model.Role]int{roleWaiter: 2, roleChef: 1},
		Criteria:     []Criterion{},
		Pairing: &PriorityPairing{
			First:  PairMember{WorkerID: "alice", Role: roleChef},
			Second: PairMember{WorkerID: "bob", Role: roleWaiter},
		},
	})
	require.NoError(t, err)

	roles := make(map[string]model.Role)
	for _, a := range outcome.Result.Assignments {
		roles[a.WorkerID] = a.Role
	}
	assert.Equal(t, roleChef, roles["alice"])
	assert.Equal(t, roleWaiter, roles["bob"])
	assert.Equal(t, []model.SlotKey{slotKey(0, model.WindowLunch)}, outcome.PairSwaps)
	assert.Equal(t, 2, outcome.Phases[0].Assigned, "both placed by the vip phase")
	assert.True(t, outcome.Success)
}

func TestAllocate_UnderCoverageReportedAsGap(t *testing.T) {
	available := newWorker("available", roleChef)
	unavailable := newWorker("unavailable", roleChef)
	unavailable.Availability = availableOn(slotKey(3, model.WindowDinner))

	outcome, err := Allocate(AllocationConfig{
		WeekStart:    testWeekStart,
		Workers:      []model.WorkerProfile{available, unavailable},
		Requirements: []model.ShiftRequirement{requirement(2, model.WindowLunch, roleChef, 2)},
	})
	require.NoError(t, err)

	require.Len(t, outcome.Result.Gaps, 1)
	gap := outcome.Result.Gaps[0]
	assert.Equal(t, 2, gap.Required)
	assert.Equal(t, 1, gap.Assigned)
	assert.Equal(t, 1, gap.Missing)
	assert.Less(t, outcome.Result.Metrics.CoverageScore, 1.0)
	assert.InDelta(t, 0.5, outcome.Result.Metrics.CoverageScore, 1e-9)
	assert.False(t, outcome.Success)
}

func TestAllocate_NoRequirements(t *testing.T) {
	_, err := Allocate(AllocationConfig{Workers: []model.WorkerProfile{newWorker("w1", roleChef)}})

	assert.ErrorIs(t, err, ErrNoRequirements)
}

func TestAllocate_NoWorkers(t *testing.T) {
	_, err := Allocate(AllocationConfig{
		Requirements: []model.ShiftRequirement{requirement(0, model.WindowLunch, roleChef, 1)},
	})

	assert.ErrorIs(t, err, ErrNoWorkers)
}

func TestAllocate_UnknownWindow(t *testing.T) {
	_, err := Allocate(AllocationConfig{
		Workers:      []model.WorkerProfile{newWorker("w1", roleChef)},
		Requirements: []model.ShiftRequirement{requirement(0, "Breakfast", roleChef, 1)},
	})

	assert.ErrorIs(t, err, ErrUnknownWindow)
}

func TestInitAllocation_RejectsInvalidInput(t *testing.T) {
	workers := []model.WorkerProfile{newWorker("w1", roleChef)}

	_, err := InitAllocation(AllocationConfig{
		Workers:      workers,
		Requirements: []model.ShiftRequirement{requirement(7, model.WindowLunch, roleChef, 1)},
	})
	assert.Error(t, err, "day out of range")

	_, err = InitAllocation(AllocationConfig{
		Workers: workers,
		Requirements: []model.ShiftRequirement{
			requirement(0, model.WindowLunch, roleChef, 1),
			requirement(0, model.WindowLunch, roleChef, 2),
		},
	})
	assert.Error(t, err, "duplicate requirement")

	_, err = InitAllocation(AllocationConfig{
		Workers:      append(workers, newWorker("w1", roleWaiter)),
		Requirements: []model.ShiftRequirement{requirement(0, model.WindowLunch, roleChef, 1)},
	})
	assert.Error(t, err, "duplicate worker")
}

func TestInitAllocation_NormalisesMaxBelowRequired(t *testing.T) {
	state := newTestState(t, AllocationConfig{
		Workers:      []model.WorkerProfile{newWorker("w1", roleChef)},
		Requirements: []model.ShiftRequirement{{Day: 0, Window: model.WindowLunch, Role: roleChef, Required: 2}},
	})

	assert.Equal(t, 2, req(state, 0, model.WindowLunch, roleChef).Max)
}

func TestAllocate_ExistingAssignmentsCountAndAreKept(t *testing.T) {
	outcome, err := Allocate(AllocationConfig{
		WeekStart: testWeekStart,
		Workers:   []model.WorkerProfile{newWorker("a", roleChef), newWorker("b", roleChef)},
		Requirements: []model.ShiftRequirement{
			requirement(0, model.WindowLunch, roleChef, 1),
			requirement(1, model.WindowLunch, roleChef, 1),
		},
		ExistingAssignments: []model.Assignment{
			{ID: "existing-1", WorkerID: "a", Day: 0, Window: model.WindowLunch, Role: roleChef,
				StartTime: model.MustParseTimeOfDay("11:30"), Transport: modeBike},
		},
	})
	require.NoError(t, err)

	require.Len(t, outcome.Result.Assignments, 2)
	existing := outcome.Result.Assignments[0]
	assert.Equal(t, "existing-1", existing.ID)
	assert.True(t, existing.Existing)
	assert.Equal(t, model.MustParseTimeOfDay("11:30"), existing.StartTime)

	added := outcome.Result.Assignments[1]
	assert.Equal(t, 1, added.Day)
	assert.False(t, added.Existing)
	assert.Empty(t, outcome.Result.Gaps)
}

func TestAllocate_ExistingAssignmentsUseTransportCapacity(t *testing.T) {
	outcome, err := Allocate(AllocationConfig{
		WeekStart:    testWeekStart,
		Workers:      []model.WorkerProfile{scooterRider("r1"), scooterRider("r2")},
		Requirements: []model.ShiftRequirement{requirement(4, model.WindowDinner, roleRider, 2)},
		Capacity: model.TransportCapacityConfig{
			LimitedMode:  modeScooter,
			LimitedRoles: []model.Role{roleRider},
			MaxPerSlot:   1,
		},
		ExistingAssignments: []model.Assignment{
			{ID: "existing", WorkerID: "r1", Day: 4, Window: model.WindowDinner, Role: roleRider, Transport: modeScooter},
		},
	})
	require.NoError(t, err)

	assert.Len(t, outcome.Result.Assignments, 1)
	require.Len(t, outcome.Result.Gaps, 1)
	assert.Equal(t, 1, outcome.Result.Gaps[0].Missing)
}

func TestAllocate_PrimaryRoleBeatsSecondary(t *testing.T) {
	outcome, err := Allocate(AllocationConfig{
		WeekStart:    testWeekStart,
		Workers:      []model.WorkerProfile{newWorker("a-waiter", roleWaiter, roleChef), newWorker("z-chef", roleChef)},
		Requirements: []model.ShiftRequirement{requirement(0, model.WindowLunch, roleChef, 1)},
	})
	require.NoError(t, err)

	require.Len(t, outcome.Result.Assignments, 1)
	assert.Equal(t, "z-chef", outcome.Result.Assignments[0].WorkerID)
	assert.Equal(t, 1, outcome.Phases[1].Assigned)
	assert.Equal(t, "primary", outcome.Phases[1].Name)
}

func TestAllocate_PreferredRoleBreaksPriorityTie(t *testing.T) {
	first := newWorker("a-vip", roleChef)
	second := newWorker("b-vip", roleChef)
	first.IsPriority, second.IsPriority = true, true

	outcome, err := Allocate(AllocationConfig{
		WeekStart:    testWeekStart,
		Workers:      []model.WorkerProfile{first, second, newWorker("chef", roleChef)},
		Requirements: []model.ShiftRequirement{requirement(0, model.WindowLunch, roleChef, 1)},
		Overrides:    []WorkerOverride{{WorkerID: "b-vip", PreferredRole: roleChef}},
	})
	require.NoError(t, err)

	require.Len(t, outcome.Result.Assignments, 1)
	assert.Equal(t, "b-vip", outcome.Result.Assignments[0].WorkerID)
	assert.Equal(t, 1, outcome.Phases[0].Assigned)
}

func TestAllocate_SpreadsWorkload(t *testing.T) {
	var requirements []model.ShiftRequirement
	for day := 0; day < 4; day++ {
		requirements = append(requirements, requirement(day, model.WindowLunch, roleChef, 1))
	}

	outcome, err := Allocate(AllocationConfig{
		WeekStart:    testWeekStart,
		Workers:      []model.WorkerProfile{newWorker("a", roleChef), newWorker("b", roleChef)},
		Requirements: requirements,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Result.WorkerCounts["a"])
	assert.Equal(t, 2, outcome.Result.WorkerCounts["b"])
	assert.Equal(t, 1.0, outcome.Result.Metrics.FairnessScore)
}

// randomConfig builds a reproducible week with mixed qualifications, partial availability,
// absences, scarce transport and start-time targets
func randomConfig(seed int64) AllocationConfig {
	rng := rand.New(rand.NewSource(seed))
	roles := []model.Role{roleChef, roleWaiter, roleRider}

	var workers []model.WorkerProfile
	for i := 0; i < 18; i++ {
		primary := roles[rng.Intn(len(roles))]
		w := newWorker(string(rune('a'+i)), primary)
		for _, r := range roles {
			if r != primary && rng.Float64() < 0.35 {
				w.QualifiedRoles = append(w.QualifiedRoles, r)
			}
		}
		w.Availability = make(map[model.SlotKey]bool)
		for day := 0; day < model.DaysPerWeek; day++ {
			for _, window := range []model.WindowName{model.WindowLunch, model.WindowDinner} {
				if rng.Float64() < 0.6 {
					w.Availability[slotKey(day, window)] = true
				}
			}
		}
		if rng.Float64() < 0.5 {
			w.PrimaryTransport = modeScooter
			w.TransportModes = []model.TransportMode{modeScooter}
			if rng.Float64() < 0.3 {
				w.TransportModes = append(w.TransportModes, modeCar)
			}
		}
		if rng.Float64() < 0.2 {
			absent := testWeekStart.AddDate(0, 0, rng.Intn(model.DaysPerWeek))
			w.Absences = []model.DateRange{{Start: absent, End: absent.AddDate(0, 0, 1)}}
		}
		w.IsPriority = i < 2
		workers = append(workers, w)
	}

	var requirements []model.ShiftRequirement
	var distribution []model.StartTimeDistributionTarget
	for day := 0; day < model.DaysPerWeek; day++ {
		for _, role := range roles {
			requirements = append(requirements,
				requirement(day, model.WindowLunch, role, rng.Intn(3)),
				requirement(day, model.WindowDinner, role, 1+rng.Intn(3)),
			)
		}
		distribution = append(distribution,
			target(day, model.WindowDinner, roleRider, "18:00", 1),
			target(day, model.WindowDinner, roleRider, "19:00", 1),
		)
	}

	return AllocationConfig{
		WeekStart:    testWeekStart,
		Workers:      workers,
		Requirements: requirements,
		Distribution: distribution,
		Capacity: model.TransportCapacityConfig{
			LimitedMode:  modeScooter,
			LimitedRoles: []model.Role{roleRider},
			MaxPerSlot:   2,
		},
		RolePriority: map[model.Role]int{roleChef: 3, roleRider: 2, roleWaiter: 1},
		Pairing: &PriorityPairing{
			First:  PairMember{WorkerID: "a", Role: workers[0].PrimaryRole},
			Second: PairMember{WorkerID: "b", Role: workers[1].PrimaryRole},
		},
	}
}

func TestAllocate_ScheduleInvariants(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 2024} {
		config := randomConfig(seed)
		outcome, err := Allocate(config)
		require.NoError(t, err)

		workers := make(map[string]model.WorkerProfile)
		for _, w := range config.Workers {
			workers[w.ID] = w
		}

		booked := make(map[string]map[model.SlotKey]bool)
		scooters := make(map[model.SlotKey]int)
		for _, a := range outcome.Result.Assignments {
			worker := workers[a.WorkerID]

			if booked[a.WorkerID] == nil {
				booked[a.WorkerID] = make(map[model.SlotKey]bool)
			}
			assert.False(t, booked[a.WorkerID][a.Slot()], "seed %d: %s double booked on %s", seed, a.WorkerID, a.Slot())
			booked[a.WorkerID][a.Slot()] = true

			assert.True(t, worker.HasRole(a.Role), "seed %d: %s not qualified for %s", seed, a.WorkerID, a.Role)
			assert.True(t, worker.IsAvailable(a.Slot()), "seed %d: %s unavailable on %s", seed, a.WorkerID, a.Slot())
			assert.False(t, worker.IsAbsent(testWeekStart.AddDate(0, 0, a.Day)), "seed %d: %s absent on day %d", seed, a.WorkerID, a.Day)

			if a.Role == roleRider && a.Transport == modeScooter {
				scooters[a.Slot()]++
			}
		}
		for slot, count := range scooters {
			assert.LessOrEqual(t, count, 2, "seed %d: scooter cap exceeded on %s", seed, slot)
		}

		assert.Empty(t, outcome.ValidationErrors, "seed %d", seed)
		assert.Equal(t, len(outcome.Result.Assignments), outcome.Result.TotalAssigned)
		assert.GreaterOrEqual(t, outcome.Result.Metrics.CoverageScore, 0.0)
		assert.LessOrEqual(t, outcome.Result.Metrics.CoverageScore, 1.0)
	}
}

func TestAllocate_Idempotent(t *testing.T) {
	first, err := Allocate(randomConfig(99))
	require.NoError(t, err)
	second, err := Allocate(randomConfig(99))
	require.NoError(t, err)

	assert.Equal(t, tuples(first.Result.Assignments), tuples(second.Result.Assignments))
	assert.Equal(t, first.Result.Gaps, second.Result.Gaps)
	assert.Equal(t, first.Result.Metrics, second.Result.Metrics)
}

func TestAllocate_ConcurrentRunsAreIndependent(t *testing.T) {
	config := randomConfig(5)
	expected, err := Allocate(config)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*AllocationOutcome, 4)
	errs := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = Allocate(config)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, tuples(expected.Result.Assignments), tuples(results[i].Result.Assignments))
	}
}

func TestRefine_CoverageNeverDecreases(t *testing.T) {
	for _, seed := range []int64{3, 11, 77} {
		allocator, err := InitAllocation(randomConfig(seed))
		require.NoError(t, err)
		state := allocator.State()
		for _, p := range phases() {
			allocator.runPhase(p)
		}

		before := make(map[model.RoleSlotKey]int)
		for _, r := range state.Requirements {
			before[r.Key()] = min(state.AssignedCount(r.Key()), r.Required)
		}

		Refine(state, allocator.criteria)

		for _, r := range state.Requirements {
			after := min(state.AssignedCount(r.Key()), r.Required)
			assert.GreaterOrEqual(t, after, before[r.Key()], "seed %d: %v", seed, r.Key())
		}
	}
}

func TestAllocate_WeekStartResolvesAbsences(t *testing.T) {
	worker := newWorker("w1", roleChef)
	// Absent for the whole of the following week
	nextMonday := testWeekStart.AddDate(0, 0, 7)
	worker.Absences = []model.DateRange{{Start: nextMonday, End: nextMonday.Add(6 * 24 * time.Hour)}}

	config := AllocationConfig{
		WeekStart:    testWeekStart,
		Workers:      []model.WorkerProfile{worker},
		Requirements: []model.ShiftRequirement{requirement(0, model.WindowLunch, roleChef, 1)},
	}

	thisWeek, err := Allocate(config)
	require.NoError(t, err)
	assert.Len(t, thisWeek.Result.Assignments, 1)

	config.WeekStart = nextMonday
	nextWeek, err := Allocate(config)
	require.NoError(t, err)
	assert.Empty(t, nextWeek.Result.Assignments)
}

func TestEvaluate_ReportsExistingScheduleWithoutAssigning(t *testing.T) {
	worker := newWorker("w1", roleChef)
	idle := newWorker("w2", roleChef)

	outcome, err := Evaluate(AllocationConfig{
		WeekStart: testWeekStart,
		Workers:   []model.WorkerProfile{worker, idle},
		Requirements: []model.ShiftRequirement{
			requirement(0, model.WindowLunch, roleChef, 1),
			requirement(1, model.WindowLunch, roleChef, 1),
		},
		ExistingAssignments: []model.Assignment{
			{ID: "a1", WorkerID: "w1", Day: 0, Window: model.WindowLunch, Role: roleChef,
				StartTime: model.MustParseTimeOfDay("11:00"), Transport: modeBike},
		},
	})
	require.NoError(t, err)

	require.Len(t, outcome.Result.Assignments, 1)
	assert.True(t, outcome.Result.Assignments[0].Existing)
	require.Len(t, outcome.Result.Gaps, 1)
	assert.Equal(t, 1, outcome.Result.Gaps[0].Day)
	assert.Equal(t, 0.5, outcome.Result.Metrics.CoverageScore)
	assert.False(t, outcome.Success)
}

func TestAllocate_CriticalSecondaryFillsScarceRoleFirst(t *testing.T) {
	// Only secondary cover exists for both roles; riders are critically scarce (2 / 0.7)
	// while chefs are not (1 / 0.7), so the rider pass runs before the higher priority chef pass
	worker := newWorker("s", roleWaiter, roleChef, roleRider)
	worker.Availability = availableOn(slotKey(0, model.WindowLunch))

	outcome, err := Allocate(AllocationConfig{
		WeekStart: testWeekStart,
		Workers:   []model.WorkerProfile{worker},
		Requirements: []model.ShiftRequirement{
			requirement(0, model.WindowLunch, roleChef, 1),
			requirement(0, model.WindowLunch, roleRider, 2),
		},
		RolePriority: map[model.Role]int{roleChef: 10, roleRider: 1},
	})
	require.NoError(t, err)

	require.Len(t, outcome.Phases, 5)
	assert.Equal(t, "critical-secondary", outcome.Phases[2].Name)
	assert.Equal(t, 1, outcome.Phases[2].Assigned)
	assert.Equal(t, "secondary", outcome.Phases[3].Name)
	assert.Equal(t, 0, outcome.Phases[3].Assigned)

	require.Len(t, outcome.Result.Assignments, 1)
	assert.Equal(t, "s", outcome.Result.Assignments[0].WorkerID)
	assert.Equal(t, roleRider, outcome.Result.Assignments[0].Role)

	gaps := map[model.Role]int{}
	for _, gap := range outcome.Result.Gaps {
		gaps[gap.Role] = gap.Missing
	}
	assert.Equal(t, map[model.Role]int{roleChef: 1, roleRider: 1}, gaps)
}
