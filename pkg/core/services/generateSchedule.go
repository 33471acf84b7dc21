package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/shift-planner/internal/config"
	"github.com/jakechorley/shift-planner/pkg/core/allocator"
	"github.com/jakechorley/shift-planner/pkg/db"
	"github.com/jakechorley/shift-planner/pkg/metrics"
)

// DefaultMaxParallelWeeks bounds concurrent week runs when the config does not
const DefaultMaxParallelWeeks = 4

// GenerateScheduleStore defines the database operations needed for generating a schedule
type GenerateScheduleStore interface {
	db.SnapshotStore
	db.AssignmentStore
	InsertScheduleRun(ctx context.Context, run *db.ScheduleRun, assignments, relabelled []db.Assignment) error
}

// RunRecorder receives the outcome of every scheduling run.
// *metrics.RunMetrics implements it.
type RunRecorder interface {
	RecordRun(week, outcome string, coverage float64, gaps int, elapsed time.Duration)
	RecordFailure(elapsed time.Duration)
}

// GenerateOptions control whether a run is persisted
type GenerateOptions struct {
	// DryRun computes the schedule without saving anything
	DryRun bool

	// ForceCommit saves the schedule even when validation errors were found
	ForceCommit bool
}

// GenerateScheduleResult contains the result of scheduling one week
type GenerateScheduleResult struct {
	WeekStart time.Time

	// RunID is set when the run was committed
	RunID     string
	Committed bool

	// Outcome is the full allocator outcome, including existing assignments
	Outcome *allocator.AllocationOutcome

	// NewAssignments is the number of assignments created by this run
	NewAssignments int

	// RelabelledAssignments is the number of existing assignments whose role or transport changed
	RelabelledAssignments int

	// WorkerNames maps worker IDs to display names
	WorkerNames map[string]string
}

// GenerateSchedule schedules a single week and persists the new assignments with a run record.
// If opts.DryRun is true, nothing is saved.
// If validation fails, nothing is saved unless opts.ForceCommit is true.
// Gaps alone never prevent saving.
func GenerateSchedule(
	ctx context.Context,
	store GenerateScheduleStore,
	cfg *config.Config,
	recorder RunRecorder,
	logger *zap.Logger,
	weekStart time.Time,
	opts GenerateOptions,
) (*GenerateScheduleResult, error) {
	started := time.Now()
	snapshot, err := loadSnapshot(ctx, store, logger)
	if err != nil {
		if recorder != nil {
			recorder.RecordFailure(time.Since(started))
		}
		return nil, err
	}
	return generateWeek(ctx, store, snapshot, cfg, recorder, logger, weekStart, opts)
}

// GenerateSchedules schedules consecutive weeks concurrently, starting at firstWeek.
// The input snapshot is read once and shared read-only; each week owns its run state.
// Results are returned in week order. The first failing week cancels the others.
func GenerateSchedules(
	ctx context.Context,
	store GenerateScheduleStore,
	cfg *config.Config,
	recorder RunRecorder,
	logger *zap.Logger,
	firstWeek time.Time,
	weeks int,
	opts GenerateOptions,
) ([]*GenerateScheduleResult, error) {
	if weeks <= 0 {
		return nil, fmt.Errorf("week count must be positive, got %d", weeks)
	}

	snapshot, err := loadSnapshot(ctx, store, logger)
	if err != nil {
		return nil, err
	}

	limit := cfg.MaxParallelWeeks
	if limit <= 0 {
		limit = DefaultMaxParallelWeeks
	}
	logger.Debug("Generating schedules",
		zap.String("first_week", firstWeek.Format(db.DateFormat)),
		zap.Int("weeks", weeks),
		zap.Int("parallelism", limit))

	results := make([]*GenerateScheduleResult, weeks)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, week := range weekStarts(firstWeek, weeks) {
		g.Go(func() error {
			weekLogger := logger.With(zap.String("week", week.Format(db.DateFormat)))
			result, err := generateWeek(gctx, store, snapshot, cfg, recorder, weekLogger, week, opts)
			if err != nil {
				return fmt.Errorf("week %s: %w", week.Format(db.DateFormat), err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// generateWeek runs the allocator for one week against an already loaded snapshot
func generateWeek(
	ctx context.Context,
	store GenerateScheduleStore,
	snapshot *db.Snapshot,
	cfg *config.Config,
	recorder RunRecorder,
	logger *zap.Logger,
	weekStart time.Time,
	opts GenerateOptions,
) (*GenerateScheduleResult, error) {
	started := time.Now()
	week := weekStart.Format(db.DateFormat)

	result, err := runWeek(ctx, store, snapshot, cfg, logger, weekStart, opts)
	if err != nil {
		if recorder != nil {
			recorder.RecordFailure(time.Since(started))
		}
		return nil, err
	}

	if recorder != nil {
		outcome := metrics.OutcomeRejected
		switch {
		case result.Committed:
			outcome = metrics.OutcomeCommitted
		case opts.DryRun:
			outcome = metrics.OutcomeDryRun
		}
		res := result.Outcome.Result
		recorder.RecordRun(week, outcome, res.Metrics.CoverageScore, len(res.Gaps), time.Since(started))
	}

	return result, nil
}

func runWeek(
	ctx context.Context,
	store GenerateScheduleStore,
	snapshot *db.Snapshot,
	cfg *config.Config,
	logger *zap.Logger,
	weekStart time.Time,
	opts GenerateOptions,
) (*GenerateScheduleResult, error) {
	week := weekStart.Format(db.DateFormat)
	logger.Debug("Starting generateSchedule",
		zap.String("week", week),
		zap.Bool("dry_run", opts.DryRun),
		zap.Bool("force_commit", opts.ForceCommit))

	logger.Debug("Fetching existing assignments")
	existing, err := store.GetAssignments(ctx, week)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignments: %w", err)
	}
	logger.Debug("Found existing assignments", zap.Int("count", len(existing)))

	allocConfig, err := buildAllocationConfig(cfg, snapshot, existing, weekStart, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build allocation config: %w", err)
	}

	logger.Info("Running allocation algorithm", zap.String("week", week))
	outcome, err := allocator.Allocate(allocConfig)
	if err != nil {
		return nil, fmt.Errorf("allocation failed: %w", err)
	}

	res := outcome.Result
	logger.Info("Allocation completed",
		zap.String("week", week),
		zap.Bool("success", outcome.Success),
		zap.Float64("coverage", res.Metrics.CoverageScore),
		zap.Float64("fairness", res.Metrics.FairnessScore),
		zap.Int("gaps", len(res.Gaps)),
		zap.Int("validation_errors", len(outcome.ValidationErrors)))

	for _, verr := range outcome.ValidationErrors {
		logger.Warn("Validation error",
			zap.String("criterion", verr.CriterionName),
			zap.Int("day", verr.Day),
			zap.String("window", string(verr.Window)),
			zap.String("worker", verr.WorkerID),
			zap.String("description", verr.Description))
	}

	result := &GenerateScheduleResult{
		WeekStart:   weekStart,
		Outcome:     outcome,
		WorkerNames: workerNames(snapshot.Workers),
	}

	runID := uuid.New().String()
	assignments := convertToDBAssignments(runID, weekStart, res.Assignments)
	result.NewAssignments = len(assignments)
	relabelled := convertRelabelledAssignments(weekStart, res.Assignments)
	result.RelabelledAssignments = len(relabelled)

	valid := len(outcome.ValidationErrors) == 0
	shouldSave := !opts.DryRun && (valid || opts.ForceCommit)

	if shouldSave {
		logger.Info("Saving schedule to database",
			zap.Bool("valid", valid),
			zap.Bool("forced", opts.ForceCommit && !valid))

		run := &db.ScheduleRun{
			ID:              runID,
			WeekStart:       week,
			CreatedAt:       time.Now().UTC().Format(time.RFC3339),
			CoverageScore:   res.Metrics.CoverageScore,
			FairnessScore:   res.Metrics.FairnessScore,
			OverallScore:    res.Metrics.OverallScore,
			GapCount:        len(res.Gaps),
			AssignmentCount: len(assignments),
			Forced:          opts.ForceCommit && !valid,
		}
		if err := store.InsertScheduleRun(ctx, run, assignments, relabelled); err != nil {
			return nil, fmt.Errorf("failed to save schedule: %w", err)
		}

		result.RunID = runID
		result.Committed = true
		logger.Info("Schedule saved",
			zap.String("run_id", runID),
			zap.Int("count", len(assignments)),
			zap.Int("relabelled", len(relabelled)))
	} else if opts.DryRun {
		logger.Info("Dry run mode - schedule not saved")
	} else {
		logger.Warn("Schedule invalid - not saving to database (use forceCommit to save anyway)")
	}

	return result, nil
}
