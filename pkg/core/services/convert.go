package services

import (
	"context"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/internal/config"
	"github.com/jakechorley/shift-planner/pkg/core/allocator"
	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/db"
)

// loadSnapshot reads every input table of a run from the store
func loadSnapshot(ctx context.Context, store db.SnapshotStore, logger *zap.Logger) (*db.Snapshot, error) {
	logger.Debug("Fetching workers")
	workers, err := store.GetWorkers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workers: %w", err)
	}
	logger.Debug("Found workers", zap.Int("count", len(workers)))

	logger.Debug("Fetching availability")
	availability, err := store.GetAvailability(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch availability: %w", err)
	}
	logger.Debug("Found availability", zap.Int("count", len(availability)))

	logger.Debug("Fetching absences")
	absences, err := store.GetAbsences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch absences: %w", err)
	}
	logger.Debug("Found absences", zap.Int("count", len(absences)))

	logger.Debug("Fetching requirements")
	requirements, err := store.GetRequirements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requirements: %w", err)
	}
	logger.Debug("Found requirements", zap.Int("count", len(requirements)))

	logger.Debug("Fetching start time targets")
	targets, err := store.GetStartTimeTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch start time targets: %w", err)
	}
	logger.Debug("Found start time targets", zap.Int("count", len(targets)))

	return &db.Snapshot{
		Workers:          workers,
		Availability:     availability,
		Absences:         absences,
		Requirements:     requirements,
		StartTimeTargets: targets,
	}, nil
}

// buildAllocationConfig converts the snapshot, the week's persisted assignments and the
// application config into the input of a single allocator run
func buildAllocationConfig(
	cfg *config.Config,
	snapshot *db.Snapshot,
	existing []db.Assignment,
	weekStart time.Time,
	logger *zap.Logger,
) (allocator.AllocationConfig, error) {
	windows, err := cfg.ModelWindows()
	if err != nil {
		return allocator.AllocationConfig{}, fmt.Errorf("failed to resolve windows: %w", err)
	}

	workers, err := buildWorkerProfiles(snapshot, weekStart)
	if err != nil {
		return allocator.AllocationConfig{}, err
	}
	logger.Debug("Built worker profiles", zap.Int("active", len(workers)))

	requirements, err := buildRequirements(snapshot.Requirements, cfg.RequirementOverrides, weekStart, logger)
	if err != nil {
		return allocator.AllocationConfig{}, err
	}
	logger.Debug("Built requirements", zap.Int("count", len(requirements)))

	distribution, err := buildDistribution(snapshot.StartTimeTargets)
	if err != nil {
		return allocator.AllocationConfig{}, err
	}

	existingAssignments, err := buildExistingAssignments(existing)
	if err != nil {
		return allocator.AllocationConfig{}, err
	}

	constraints, err := convertSlotConstraints(cfg.SlotConstraints)
	if err != nil {
		return allocator.AllocationConfig{}, err
	}

	overrides, err := convertWorkerOverrides(cfg.WorkerOverrides)
	if err != nil {
		return allocator.AllocationConfig{}, err
	}

	return allocator.AllocationConfig{
		WeekStart:           weekStart,
		Windows:             windows,
		Workers:             workers,
		Requirements:        requirements,
		Distribution:        distribution,
		Capacity:            convertCapacity(cfg.TransportCapacity),
		ExistingAssignments: existingAssignments,
		RolePriority:        convertRolePriority(cfg.RolePriority),
		SlotConstraints:     constraints,
		Overrides:           overrides,
		Pairing:             convertPairing(cfg.PriorityPairing),
		Weights:             cfg.Weights,
		Logger:              logger,
	}, nil
}

// buildWorkerProfiles returns the active workers with their weekly availability and the
// absences that concern the week
func buildWorkerProfiles(snapshot *db.Snapshot, weekStart time.Time) ([]model.WorkerProfile, error) {
	availability := make(map[string]map[model.SlotKey]bool)
	for _, a := range snapshot.Availability {
		if availability[a.WorkerID] == nil {
			availability[a.WorkerID] = make(map[model.SlotKey]bool)
		}
		availability[a.WorkerID][model.SlotKey{Day: a.Day, Window: model.WindowName(a.Window)}] = true
	}

	absences := make(map[string][]db.Absence)
	for _, a := range snapshot.Absences {
		absences[a.WorkerID] = append(absences[a.WorkerID], a)
	}

	profiles := make([]model.WorkerProfile, 0, len(snapshot.Workers))
	for _, w := range snapshot.Workers {
		if !w.Active {
			continue
		}

		ranges, err := resolveAbsences(absences[w.ID], weekStart)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absences of worker %s: %w", w.ID, err)
		}

		profiles = append(profiles, model.WorkerProfile{
			ID:               w.ID,
			Name:             w.Name,
			PrimaryRole:      model.Role(w.PrimaryRole),
			QualifiedRoles:   toRoles(w.QualifiedRoles),
			PrimaryTransport: model.TransportMode(w.PrimaryTransport),
			TransportModes:   toTransportModes(w.TransportModes),
			Availability:     availability[w.ID],
			Absences:         ranges,
			IsPriority:       w.IsPriority,
		})
	}

	return profiles, nil
}

// resolveAbsences converts absence records into date ranges.
// A recurring absence is expanded into one single-day range per occurrence within the week;
// when it also carries a date range, only occurrences inside that range count.
func resolveAbsences(absences []db.Absence, weekStart time.Time) ([]model.DateRange, error) {
	ranges := make([]model.DateRange, 0, len(absences))
	weekEnd := weekStart.AddDate(0, 0, model.DaysPerWeek-1)

	for _, a := range absences {
		var bounds *model.DateRange
		if a.StartDate != "" {
			start, err := time.Parse(db.DateFormat, a.StartDate)
			if err != nil {
				return nil, fmt.Errorf("invalid absence start date %q: %w", a.StartDate, err)
			}
			end, err := time.Parse(db.DateFormat, a.EndDate)
			if err != nil {
				return nil, fmt.Errorf("invalid absence end date %q: %w", a.EndDate, err)
			}
			bounds = &model.DateRange{Start: start, End: end}
		}

		if a.RRule == "" {
			if bounds != nil {
				ranges = append(ranges, *bounds)
			}
			continue
		}

		rule, err := rrule.StrToRRule(a.RRule)
		if err != nil {
			return nil, fmt.Errorf("invalid absence rrule %q: %w", a.RRule, err)
		}

		anchor := weekStart
		if bounds != nil {
			anchor = bounds.Start
		}
		rule.DTStart(anchor)

		for _, occurrence := range rule.Between(weekStart, weekEnd, true) {
			if bounds != nil && !bounds.Contains(occurrence) {
				continue
			}
			ranges = append(ranges, model.DateRange{Start: occurrence, End: occurrence})
		}
	}

	return ranges, nil
}

// buildRequirements converts the weekly requirement template and applies the recurring overrides
// whose rule matches a date of the week
func buildRequirements(
	rows []db.Requirement,
	overrides []config.RequirementOverride,
	weekStart time.Time,
	logger *zap.Logger,
) ([]model.ShiftRequirement, error) {
	requirements := make([]model.ShiftRequirement, 0, len(rows))
	for _, r := range rows {
		requirements = append(requirements, model.ShiftRequirement{
			Day:      r.Day,
			Window:   model.WindowName(r.Window),
			Role:     model.Role(r.Role),
			Required: r.Required,
			Max:      r.Max,
		})
	}

	weekEnd := weekStart.AddDate(0, 0, model.DaysPerWeek-1)
	for i, override := range overrides {
		rule, err := rrule.StrToRRule(override.RRule)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rrule for requirement override %d: %w", i, err)
		}
		rule.DTStart(weekStart)

		for _, occurrence := range rule.Between(weekStart, weekEnd, true) {
			day := dayIndex(weekStart, occurrence)
			requirements = applyRequirementOverride(requirements, override, day)
			logger.Debug("Applied requirement override",
				zap.Int("index", i),
				zap.String("rrule", override.RRule),
				zap.String("date", occurrence.Format(db.DateFormat)),
				zap.String("window", override.Window),
				zap.String("role", override.Role))
		}
	}

	return requirements, nil
}

// applyRequirementOverride adjusts the matching requirements of a (day, window).
// A role-specific override creates the requirement when the template has none.
func applyRequirementOverride(requirements []model.ShiftRequirement, override config.RequirementOverride, day int) []model.ShiftRequirement {
	window := model.WindowName(override.Window)
	matched := false

	for i := range requirements {
		req := &requirements[i]
		if req.Day != day || req.Window != window {
			continue
		}
		if override.Role != "" && req.Role != model.Role(override.Role) {
			continue
		}
		matched = true

		if override.Required != nil {
			req.Required = *override.Required
		}
		if override.Max != nil {
			req.Max = *override.Max
			if override.Required == nil && req.Required > req.Max {
				req.Required = req.Max
			}
		}
		if req.Max < req.Required {
			req.Max = req.Required
		}
	}

	if matched || override.Role == "" || override.Required == nil || *override.Required == 0 {
		return requirements
	}

	added := model.ShiftRequirement{
		Day:      day,
		Window:   window,
		Role:     model.Role(override.Role),
		Required: *override.Required,
		Max:      *override.Required,
	}
	if override.Max != nil && *override.Max > added.Max {
		added.Max = *override.Max
	}
	return append(requirements, added)
}

// dayIndex returns the day offset of date from weekStart (0 = Monday)
func dayIndex(weekStart, date time.Time) int {
	start := time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, time.UTC)
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(start).Hours() / 24)
}

// buildDistribution converts start time targets, keeping inactive rows for the engine to skip
func buildDistribution(rows []db.StartTimeTarget) ([]model.StartTimeDistributionTarget, error) {
	targets := make([]model.StartTimeDistributionTarget, 0, len(rows))
	for _, r := range rows {
		start, err := model.ParseTimeOfDay(r.StartTime)
		if err != nil {
			return nil, fmt.Errorf("invalid start time target for %s %s %s: %w",
				model.DayName(r.Day), r.Window, r.Role, err)
		}
		targets = append(targets, model.StartTimeDistributionTarget{
			Day:         r.Day,
			Window:      model.WindowName(r.Window),
			Role:        model.Role(r.Role),
			StartTime:   start,
			TargetCount: r.TargetCount,
			Active:      r.Active,
		})
	}
	return targets, nil
}

// buildExistingAssignments converts the persisted assignments of a week
func buildExistingAssignments(rows []db.Assignment) ([]model.Assignment, error) {
	assignments := make([]model.Assignment, 0, len(rows))
	for _, r := range rows {
		start, err := model.ParseTimeOfDay(r.StartTime)
		if err != nil {
			return nil, fmt.Errorf("invalid start time of assignment %s: %w", r.ID, err)
		}
		end, err := model.ParseTimeOfDay(r.EndTime)
		if err != nil {
			return nil, fmt.Errorf("invalid end time of assignment %s: %w", r.ID, err)
		}
		assignments = append(assignments, model.Assignment{
			ID:        r.ID,
			WorkerID:  r.WorkerID,
			Day:       r.Day,
			Window:    model.WindowName(r.Window),
			Role:      model.Role(r.Role),
			StartTime: start,
			EndTime:   end,
			Transport: model.TransportMode(r.Transport),
			Score:     r.Score,
			Existing:  true,
		})
	}
	return assignments, nil
}

// convertToDBAssignments converts the assignments created by a run to database records
func convertToDBAssignments(runID string, weekStart time.Time, assignments []*model.Assignment) []db.Assignment {
	records := make([]db.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.Existing {
			continue
		}
		records = append(records, toDBAssignment(runID, weekStart, a))
	}
	return records
}

// convertRelabelledAssignments returns the existing assignments whose role or transport the run
// changed. RunID is left empty; the stored record keeps the run that created it.
func convertRelabelledAssignments(weekStart time.Time, assignments []*model.Assignment) []db.Assignment {
	var records []db.Assignment
	for _, a := range assignments {
		if a.Existing && a.Relabelled {
			records = append(records, toDBAssignment("", weekStart, a))
		}
	}
	return records
}

func toDBAssignment(runID string, weekStart time.Time, a *model.Assignment) db.Assignment {
	return db.Assignment{
		ID:        a.ID,
		RunID:     runID,
		WeekStart: weekStart.Format(db.DateFormat),
		Day:       a.Day,
		Window:    string(a.Window),
		Role:      string(a.Role),
		WorkerID:  a.WorkerID,
		StartTime: a.StartTime.String(),
		EndTime:   a.EndTime.String(),
		Transport: string(a.Transport),
		Score:     a.Score,
	}
}

func convertRolePriority(priority map[string]int) map[model.Role]int {
	result := make(map[model.Role]int, len(priority))
	for role, p := range priority {
		result[model.Role(role)] = p
	}
	return result
}

func convertCapacity(c config.TransportCapacityConfig) model.TransportCapacityConfig {
	return model.TransportCapacityConfig{
		LimitedMode:  model.TransportMode(c.LimitedMode),
		LimitedRoles: toRoles(c.LimitedRoles),
		MaxPerSlot:   c.MaxPerSlot,
	}
}

func convertSlotConstraints(constraints []config.SlotConstraintConfig) ([]allocator.SlotConstraint, error) {
	result := make([]allocator.SlotConstraint, 0, len(constraints))
	for i, c := range constraints {
		cutover, err := model.ParseTimeOfDay(c.Cutover)
		if err != nil {
			return nil, fmt.Errorf("invalid cutover in slot constraint %d: %w", i, err)
		}
		windows := make([]model.WindowName, len(c.Windows))
		for j, w := range c.Windows {
			windows[j] = model.WindowName(w)
		}
		result = append(result, allocator.SlotConstraint{
			Role:    model.Role(c.Role),
			Windows: windows,
			Cutover: cutover,
		})
	}
	return result, nil
}

func convertWorkerOverrides(overrides []config.WorkerOverrideConfig) ([]allocator.WorkerOverride, error) {
	result := make([]allocator.WorkerOverride, 0, len(overrides))
	for _, o := range overrides {
		override := allocator.WorkerOverride{
			WorkerID:      o.WorkerID,
			PreferredRole: model.Role(o.PreferredRole),
		}
		if o.StartTime != "" {
			start, err := model.ParseTimeOfDay(o.StartTime)
			if err != nil {
				return nil, fmt.Errorf("invalid start time override for worker %s: %w", o.WorkerID, err)
			}
			override.StartTime = &start
		}
		result = append(result, override)
	}
	return result, nil
}

func convertPairing(p *config.PriorityPairingConfig) *allocator.PriorityPairing {
	if p == nil {
		return nil
	}
	return &allocator.PriorityPairing{
		First:  allocator.PairMember{WorkerID: p.First.WorkerID, Role: model.Role(p.First.Role)},
		Second: allocator.PairMember{WorkerID: p.Second.WorkerID, Role: model.Role(p.Second.Role)},
	}
}

func toRoles(values []string) []model.Role {
	roles := make([]model.Role, len(values))
	for i, v := range values {
		roles[i] = model.Role(v)
	}
	return roles
}

func toTransportModes(values []string) []model.TransportMode {
	modes := make([]model.TransportMode, len(values))
	for i, v := range values {
		modes[i] = model.TransportMode(v)
	}
	return modes
}
