package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

func criteriaState(t *testing.T, config AllocationConfig) *RunState {
	if config.Requirements == nil {
		config.Requirements = []model.ShiftRequirement{
			requirement(0, model.WindowLunch, roleChef, 2),
			requirement(0, model.WindowLunch, roleWaiter, 3),
		}
	}
	return newTestState(t, config)
}

func TestDefaultCriteria_Names(t *testing.T) {
	var names []string
	for _, c := range DefaultCriteria(Weights{}) {
		names = append(names, c.Name())
	}

	assert.Equal(t, []string{
		"PriorityWorker", "Pairing", "Scarcity", "PrimaryMatch", "Versatility",
		"Urgency", "Workload", "Saturation", "CompetingGap",
	}, names)
}

func TestPriorityWorkerCriterion_Score(t *testing.T) {
	vip := newWorker("vip", roleChef, roleWaiter)
	vip.IsPriority = true
	state := criteriaState(t, AllocationConfig{
		Workers:   []model.WorkerProfile{vip, newWorker("regular", roleChef)},
		Overrides: []WorkerOverride{{WorkerID: "vip", PreferredRole: roleWaiter}},
	})
	criterion := NewPriorityWorkerCriterion(1000, 200)

	assert.Equal(t, "PriorityWorker", criterion.Name())
	assert.Equal(t, 1000, criterion.Score(state, state.Worker("vip"), req(state, 0, model.WindowLunch, roleChef)))
	assert.Equal(t, 1200, criterion.Score(state, state.Worker("vip"), req(state, 0, model.WindowLunch, roleWaiter)))
	assert.Equal(t, 0, criterion.Score(state, state.Worker("regular"), req(state, 0, model.WindowLunch, roleChef)))
}

func TestPairingCriterion_Score(t *testing.T) {
	alice := newWorker("alice", roleChef, roleWaiter)
	bob := newWorker("bob", roleWaiter, roleChef)
	alice.IsPriority, bob.IsPriority = true, true
	state := criteriaState(t, AllocationConfig{
		Workers: []model.WorkerProfile{alice, bob, newWorker("carol", roleChef)},
		Pairing: &PriorityPairing{
			First:  PairMember{WorkerID: "alice", Role: roleChef},
			Second: PairMember{WorkerID: "bob", Role: roleWaiter},
		},
	})
	criterion := NewPairingCriterion(150, 150)
	chefReq := req(state, 0, model.WindowLunch, roleChef)
	waiterReq := req(state, 0, model.WindowLunch, roleWaiter)

	// Partner not yet assigned
	assert.Equal(t, 0, criterion.Score(state, state.Worker("alice"), chefReq))

	place(state, "bob", 0, model.WindowLunch, roleWaiter, modeBike)

	assert.Equal(t, 150, criterion.Score(state, state.Worker("alice"), chefReq), "canonical pairing")
	assert.Equal(t, 0, criterion.Score(state, state.Worker("alice"), waiterReq), "both in the same role is neither")
	assert.Equal(t, 0, criterion.Score(state, state.Worker("carol"), chefReq), "not part of the pair")
}

func TestPairingCriterion_PenalisesInverse(t *testing.T) {
	alice := newWorker("alice", roleChef, roleWaiter)
	bob := newWorker("bob", roleWaiter, roleChef)
	state := criteriaState(t, AllocationConfig{
		Workers: []model.WorkerProfile{alice, bob},
		Pairing: &PriorityPairing{
			First:  PairMember{WorkerID: "alice", Role: roleChef},
			Second: PairMember{WorkerID: "bob", Role: roleWaiter},
		},
	})
	place(state, "alice", 0, model.WindowLunch, roleWaiter, modeBike)

	score := NewPairingCriterion(150, 150).Score(state, state.Worker("bob"), req(state, 0, model.WindowLunch, roleChef))

	assert.Equal(t, -150, score)
}

func TestScarcityCriterion_Tiers(t *testing.T) {
	// Supply is 1.7 for both roles.
	// Chef: 2 places, scarcity ≈ 1.18 (medium). Waiter: 3 places, scarcity ≈ 1.76 (high).
	state := criteriaState(t, AllocationConfig{
		Workers: []model.WorkerProfile{newWorker("chef", roleChef, roleWaiter), newWorker("waiter", roleWaiter, roleChef)},
	})
	criterion := NewScarcityCriterion(DefaultWeights())
	chefReq := req(state, 0, model.WindowLunch, roleChef)
	waiterReq := req(state, 0, model.WindowLunch, roleWaiter)

	assert.Equal(t, 40, criterion.Score(state, state.Worker("chef"), chefReq))
	assert.Equal(t, 25, criterion.Score(state, state.Worker("waiter"), chefReq))
	assert.Equal(t, 80, criterion.Score(state, state.Worker("waiter"), waiterReq))
	assert.Equal(t, 60, criterion.Score(state, state.Worker("chef"), waiterReq))
}

func TestScarcityCriterion_PlentifulRoleScoresZero(t *testing.T) {
	state := criteriaState(t, AllocationConfig{
		Workers:      []model.WorkerProfile{newWorker("a", roleChef), newWorker("b", roleChef), newWorker("c", roleChef)},
		Requirements: []model.ShiftRequirement{requirement(0, model.WindowLunch, roleChef, 1)},
	})

	score := NewScarcityCriterion(DefaultWeights()).Score(state, state.Worker("a"), req(state, 0, model.WindowLunch, roleChef))

	assert.Equal(t, 0, score)
}

func TestPrimaryMatchCriterion_Score(t *testing.T) {
	state := criteriaState(t, AllocationConfig{
		Workers: []model.WorkerProfile{newWorker("chef", roleChef, roleWaiter)},
	})
	criterion := NewPrimaryMatchCriterion(20)

	assert.Equal(t, 20, criterion.Score(state, state.Worker("chef"), req(state, 0, model.WindowLunch, roleChef)))
	assert.Equal(t, 0, criterion.Score(state, state.Worker("chef"), req(state, 0, model.WindowLunch, roleWaiter)))
}

func TestVersatilityCriterion_Score(t *testing.T) {
	state := criteriaState(t, AllocationConfig{
		Workers: []model.WorkerProfile{
			newWorker("allrounder", roleChef, roleWaiter, roleRider),
			newWorker("twoRoles", roleChef, roleWaiter),
		},
	})
	criterion := NewVersatilityCriterion(15, 3)
	waiterReq := req(state, 0, model.WindowLunch, roleWaiter)

	assert.Equal(t, 15, criterion.Score(state, state.Worker("allrounder"), waiterReq))
	assert.Equal(t, 0, criterion.Score(state, state.Worker("allrounder"), req(state, 0, model.WindowLunch, roleChef)), "primary role use")
	assert.Equal(t, 0, criterion.Score(state, state.Worker("twoRoles"), waiterReq), "too few roles")
}

func TestUrgencyCriterion_ProportionalToSlotGap(t *testing.T) {
	state := criteriaState(t, AllocationConfig{
		Workers: []model.WorkerProfile{newWorker("a", roleChef), newWorker("b", roleWaiter)},
	})
	criterion := NewUrgencyCriterion(5)
	chefReq := req(state, 0, model.WindowLunch, roleChef)

	assert.Equal(t, 25, criterion.Score(state, state.Worker("a"), chefReq))

	place(state, "b", 0, model.WindowLunch, roleWaiter, modeBike)
	assert.Equal(t, 20, criterion.Score(state, state.Worker("a"), chefReq))
}

func TestWorkloadCriterion_Score(t *testing.T) {
	vip := newWorker("vip", roleChef)
	vip.IsPriority = true
	// 5 required places over 5 workers: fair share 1
	state := criteriaState(t, AllocationConfig{
		Workers: []model.WorkerProfile{
			newWorker("a", roleChef), newWorker("b", roleChef), newWorker("c", roleWaiter), newWorker("d", roleWaiter), vip,
		},
	})
	criterion := NewWorkloadCriterion(4, 8, 3)
	chefReq := req(state, 0, model.WindowLunch, roleChef)

	assert.Equal(t, 4, criterion.Score(state, state.Worker("a"), chefReq), "below fair share")

	place(state, "a", 1, model.WindowLunch, roleChef, modeBike)
	assert.Equal(t, 0, criterion.Score(state, state.Worker("a"), chefReq), "at fair share")

	place(state, "a", 2, model.WindowLunch, roleChef, modeBike)
	place(state, "a", 3, model.WindowLunch, roleChef, modeBike)
	assert.Equal(t, -16, criterion.Score(state, state.Worker("a"), chefReq), "two above fair share")

	place(state, "vip", 1, model.WindowLunch, roleChef, modeBike)
	place(state, "vip", 2, model.WindowLunch, roleChef, modeBike)
	place(state, "vip", 3, model.WindowLunch, roleChef, modeBike)
	assert.Equal(t, -6, criterion.Score(state, state.Worker("vip"), chefReq), "gentler penalty for priority workers")
}

func TestSaturationCriterion_Score(t *testing.T) {
	state := criteriaState(t, AllocationConfig{
		Workers: []model.WorkerProfile{newWorker("a", roleChef), newWorker("b", roleChef), newWorker("c", roleChef)},
	})
	criterion := NewSaturationCriterion(500)
	chefReq := req(state, 0, model.WindowLunch, roleChef)

	assert.Equal(t, 0, criterion.Score(state, state.Worker("c"), chefReq))

	place(state, "a", 0, model.WindowLunch, roleChef, modeBike)
	place(state, "b", 0, model.WindowLunch, roleChef, modeBike)
	assert.Equal(t, -500, criterion.Score(state, state.Worker("c"), chefReq))
}

func TestCompetingGapCriterion_Score(t *testing.T) {
	state := criteriaState(t, AllocationConfig{
		Workers: []model.WorkerProfile{newWorker("both", roleChef, roleWaiter), newWorker("chefOnly", roleChef)},
	})
	criterion := NewCompetingGapCriterion(30)
	chefReq := req(state, 0, model.WindowLunch, roleChef)
	waiterReq := req(state, 0, model.WindowLunch, roleWaiter)

	// Waiters need 3, chefs need 2
	assert.Equal(t, -30, criterion.Score(state, state.Worker("both"), chefReq))
	assert.Equal(t, 0, criterion.Score(state, state.Worker("both"), waiterReq))
	assert.Equal(t, 0, criterion.Score(state, state.Worker("chefOnly"), chefReq))
}

func TestDefaultWeights_RelativeOrdering(t *testing.T) {
	w := DefaultWeights()

	assert.Greater(t, w.PriorityWorker, w.HighScarcityPrimary)
	assert.Greater(t, w.HighScarcityPrimary, w.HighScarcitySecondary)
	assert.Greater(t, w.HighScarcitySecondary, w.MediumScarcityPrimary)
	assert.Greater(t, w.MediumScarcityPrimary, w.MediumScarcitySecondary)
	assert.Greater(t, w.PrimaryMatch, w.WorkloadStep)
	assert.Greater(t, w.WorkloadPenaltyStep, w.PriorityWorkloadPenaltyStep)
}

func TestWeights_WithDefaults(t *testing.T) {
	assert.Equal(t, DefaultWeights(), Weights{}.withDefaults())

	w := DefaultWeights()
	w.CompetingGap = 0
	assert.Equal(t, w, w.withDefaults(), "a configured table is kept, zero entries included")
}

func TestWeights_UnmarshalYAMLStartsFromDefaults(t *testing.T) {
	var w Weights
	require.NoError(t, yaml.Unmarshal([]byte("base: 50\ncompetingGap: 0\n"), &w))

	assert.Equal(t, 50, w.Base)
	assert.Equal(t, 0, w.CompetingGap)
	assert.Equal(t, DefaultWeights().PriorityWorker, w.PriorityWorker)
	assert.Equal(t, DefaultWeights().HighScarcityThreshold, w.HighScarcityThreshold)
}

func TestDefaultCriteria_ZeroCompetingGapDisablesPenalty(t *testing.T) {
	w := DefaultWeights()
	w.CompetingGap = 0
	state := criteriaState(t, AllocationConfig{
		Workers: []model.WorkerProfile{newWorker("both", roleChef, roleWaiter)},
	})

	var competing Criterion
	for _, c := range DefaultCriteria(w) {
		if c.Name() == "CompetingGap" {
			competing = c
		}
	}
	require.NotNil(t, competing)
	assert.Zero(t, competing.Score(state, state.Worker("both"), req(state, 0, model.WindowLunch, roleChef)))
}
