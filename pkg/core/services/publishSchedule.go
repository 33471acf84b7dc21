package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/internal/config"
	"github.com/jakechorley/shift-planner/pkg/clients/sheetsclient"
	"github.com/jakechorley/shift-planner/pkg/core/allocator"
	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/db"
)

// PublishScheduleStore defines the database operations needed for publishing a schedule
type PublishScheduleStore interface {
	db.SnapshotStore
	db.AssignmentStore
}

// SchedulePublisher writes a week to the shared spreadsheet
type SchedulePublisher interface {
	PublishSchedule(spreadsheetID string, schedule *sheetsclient.PublishedSchedule) error
}

// PublishScheduleResult summarises a published week
type PublishScheduleResult struct {
	WeekStart   time.Time
	TabTitle    string
	Assignments int
	Gaps        int
}

// PublishSchedule writes the persisted assignments of a week to the configured spreadsheet,
// together with the gaps that remain against the week's requirements
func PublishSchedule(
	ctx context.Context,
	store PublishScheduleStore,
	publisher SchedulePublisher,
	cfg *config.Config,
	logger *zap.Logger,
	weekStart time.Time,
) (*PublishScheduleResult, error) {
	if cfg.Publish.SpreadsheetID == "" {
		return nil, fmt.Errorf("no spreadsheet configured - set publish.spreadsheetID")
	}

	week := weekStart.Format(db.DateFormat)
	logger.Debug("Starting publishSchedule", zap.String("week", week))

	snapshot, err := loadSnapshot(ctx, store, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("Fetching assignments")
	assignments, err := store.GetAssignments(ctx, week)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignments: %w", err)
	}
	logger.Debug("Found assignments", zap.Int("count", len(assignments)))

	if len(assignments) == 0 {
		return nil, fmt.Errorf("no assignments found for week %s - please run generateSchedule first", week)
	}

	allocConfig, err := buildAllocationConfig(cfg, snapshot, assignments, weekStart, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build allocation config: %w", err)
	}

	outcome, err := allocator.Evaluate(allocConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate schedule: %w", err)
	}

	schedule := buildPublishedSchedule(outcome, allocConfig.RolePriority, workerNames(snapshot.Workers), weekStart)
	title := sheetsclient.TabTitle(weekStart)

	logger.Info("Publishing schedule",
		zap.String("tab", title),
		zap.Int("rows", len(schedule.Rows)),
		zap.Int("gaps", len(schedule.Gaps)))

	if err := publisher.PublishSchedule(cfg.Publish.SpreadsheetID, schedule); err != nil {
		return nil, fmt.Errorf("failed to publish schedule: %w", err)
	}

	logger.Info("Schedule published", zap.String("tab", title))

	return &PublishScheduleResult{
		WeekStart:   weekStart,
		TabTitle:    title,
		Assignments: len(outcome.Result.Assignments),
		Gaps:        len(schedule.Gaps),
	}, nil
}

// buildPublishedSchedule lays out an evaluated week as one row per (day, window) with a
// column per role
func buildPublishedSchedule(
	outcome *allocator.AllocationOutcome,
	rolePriority map[model.Role]int,
	names map[string]string,
	weekStart time.Time,
) *sheetsclient.PublishedSchedule {
	state := outcome.State

	roles := make(map[model.Role]bool)
	for _, req := range state.Requirements {
		roles[req.Role] = true
	}
	for _, a := range outcome.Result.Assignments {
		roles[a.Role] = true
	}
	ordered := orderedRoles(roles, rolePriority)

	columns := make([]string, len(ordered))
	for i, role := range ordered {
		columns[i] = string(role)
	}

	bySlot := make(map[model.SlotKey][]*model.Assignment)
	for _, a := range outcome.Result.Assignments {
		bySlot[a.Slot()] = append(bySlot[a.Slot()], a)
	}

	label := func(a *model.Assignment) string {
		name, ok := names[a.WorkerID]
		if !ok {
			name = a.WorkerID
		}
		return fmt.Sprintf("%s (%s)", name, a.StartTime)
	}

	rows := make([]sheetsclient.PublishedRow, 0, model.DaysPerWeek*len(state.Windows))
	for day := 0; day < model.DaysPerWeek; day++ {
		date := weekStart.AddDate(0, 0, day).Format(sheetsclient.TabDateFormat)
		for _, window := range state.Windows {
			slotAssignments := bySlot[model.SlotKey{Day: day, Window: window.Name}]
			sort.SliceStable(slotAssignments, func(i, j int) bool {
				if slotAssignments[i].StartTime != slotAssignments[j].StartTime {
					return slotAssignments[i].StartTime < slotAssignments[j].StartTime
				}
				return label(slotAssignments[i]) < label(slotAssignments[j])
			})

			cells := make(map[string][]string)
			for _, a := range slotAssignments {
				cells[string(a.Role)] = append(cells[string(a.Role)], label(a))
			}

			rows = append(rows, sheetsclient.PublishedRow{
				Date:   date,
				Window: string(window.Name),
				Cells:  cells,
			})
		}
	}

	gaps := make([]sheetsclient.PublishedGap, 0, len(outcome.Result.Gaps))
	for _, gap := range outcome.Result.Gaps {
		gaps = append(gaps, sheetsclient.PublishedGap{
			Date:     weekStart.AddDate(0, 0, gap.Day).Format(sheetsclient.TabDateFormat),
			Window:   string(gap.Window),
			Role:     string(gap.Role),
			Required: gap.Required,
			Assigned: gap.Assigned,
		})
	}

	return &sheetsclient.PublishedSchedule{
		WeekStart: weekStart,
		Roles:     columns,
		Rows:      rows,
		Gaps:      gaps,
	}
}
