package allocator

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

const (
	coverageShare = 0.8
	fairnessShare = 0.2
)

// ComputeStatistics summarises the final schedule.
//
// Coverage is the share of required places filled, counting at most the required number
// per (day, window, role); it is 1 when nothing is required. Fairness is 1 minus the
// coefficient of variation of assignment counts over all workers, clamped to [0, 1].
// Overall is 0.8 * coverage + 0.2 * fairness.
//
// Always returns a populated result, even for an empty schedule.
func ComputeStatistics(state *RunState) model.ScheduleResult {
	result := model.ScheduleResult{
		Assignments:  make([]*model.Assignment, 0, len(state.Assignments)),
		Gaps:         []model.GapRecord{},
		RoleCounts:   make(map[model.Role]int),
		WorkerCounts: make(map[string]int),
	}

	for _, a := range state.Assignments {
		result.Assignments = append(result.Assignments, a)
		result.RoleCounts[a.Role]++
		result.WorkerCounts[a.WorkerID]++
	}
	result.TotalAssigned = len(result.Assignments)

	covered := 0
	for _, req := range state.Requirements {
		assigned := state.AssignedCount(req.Key())
		result.TotalRequired += req.Required
		covered += min(assigned, req.Required)

		if assigned < req.Required {
			result.Gaps = append(result.Gaps, model.GapRecord{
				Day:      req.Day,
				Window:   req.Window,
				Role:     req.Role,
				Required: req.Required,
				Assigned: assigned,
				Missing:  req.Required - assigned,
			})
		}
	}

	sort.SliceStable(result.Gaps, func(i, j int) bool {
		gi, gj := result.Gaps[i], result.Gaps[j]
		if gi.Day != gj.Day {
			return gi.Day < gj.Day
		}
		if wi, wj := state.windowIndex(gi.Window), state.windowIndex(gj.Window); wi != wj {
			return wi < wj
		}
		return gi.Role < gj.Role
	})

	coverage := 1.0
	if result.TotalRequired > 0 {
		coverage = float64(covered) / float64(result.TotalRequired)
	}

	fairness := FairnessScore(workloads(state))

	result.Metrics = model.QualityMetrics{
		CoverageScore: coverage,
		FairnessScore: fairness,
		OverallScore:  coverageShare*coverage + fairnessShare*fairness,
	}

	return result
}

// workloads returns the assignment count of every worker in the snapshot, in worker order
func workloads(state *RunState) []float64 {
	counts := make([]float64, len(state.Workers))
	for i, w := range state.Workers {
		counts[i] = float64(state.Workload(w.ID))
	}
	return counts
}

// FairnessScore returns 1 - stddev/mean of the workloads, clamped to [0, 1].
// Returns 1 when there are no workloads or nobody is assigned.
func FairnessScore(counts []float64) float64 {
	if len(counts) == 0 {
		return 1
	}
	mean, std := stat.PopMeanStdDev(counts, nil)
	if mean == 0 {
		return 1
	}
	return max(0, min(1, 1-std/mean))
}
