package allocator

import (
	"sort"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// Candidate is an eligible worker for a requirement with their score
type Candidate struct {
	Worker    *model.WorkerProfile
	Score     int
	Transport model.TransportMode
}

// ScoreCandidate returns the base score plus the contribution of every criterion
func ScoreCandidate(state *RunState, worker *model.WorkerProfile, req *model.ShiftRequirement, criteria []Criterion) int {
	score := state.Weights.Base
	for _, criterion := range criteria {
		score += criterion.Score(state, worker, req)
	}
	return score
}

// RankCandidates returns the workers eligible for the requirement under the mode,
// sorted by descending score with worker ID as the deterministic tie-break.
// It never mutates the state.
func RankCandidates(state *RunState, req *model.ShiftRequirement, mode Mode, criteria []Criterion) []Candidate {
	var candidates []Candidate

	for _, worker := range state.Workers {
		transport, ok := state.IsEligible(worker, req, mode)
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{
			Worker:    worker,
			Score:     ScoreCandidate(state, worker, req, criteria),
			Transport: transport,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Worker.ID < candidates[j].Worker.ID
	})

	return candidates
}
