package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/db"
)

// ScheduleRunLister defines the database operations needed for listing runs
type ScheduleRunLister interface {
	GetScheduleRuns(ctx context.Context) ([]db.ScheduleRun, error)
}

// ListScheduleRuns returns the committed runs, most recent week first.
// Runs of the same week are ordered by creation time, latest first.
func ListScheduleRuns(ctx context.Context, store ScheduleRunLister, logger *zap.Logger) ([]db.ScheduleRun, error) {
	logger.Debug("Fetching schedule runs")
	runs, err := store.GetScheduleRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule runs: %w", err)
	}
	logger.Debug("Found schedule runs", zap.Int("count", len(runs)))

	sorted := make([]db.ScheduleRun, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].WeekStart != sorted[j].WeekStart {
			return sorted[i].WeekStart > sorted[j].WeekStart
		}
		return sorted[i].CreatedAt > sorted[j].CreatedAt
	})

	return sorted, nil
}
