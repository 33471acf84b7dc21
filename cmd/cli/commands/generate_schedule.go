package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/services"
	"github.com/jakechorley/shift-planner/pkg/db"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorBold   = "\033[1m"
)

// GenerateScheduleCmd creates the generateSchedule command
func GenerateScheduleCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generateSchedule <week_start>",
		Short: "Generate the schedule of one or more weeks",
		Long: `Run the multi-phase assignment engine for the week starting on <week_start> (a Monday, YYYY-MM-DD).
Assignments already saved for the week are kept and new ones are added around them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weekStart, err := services.ParseWeekStart(args[0])
			if err != nil {
				return err
			}

			weeks, _ := cmd.Flags().GetInt("weeks")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			forceCommit, _ := cmd.Flags().GetBool("force-commit")

			app.Logger.Debug("generateSchedule command",
				zap.String("week_start", args[0]),
				zap.Int("weeks", weeks),
				zap.Bool("dry_run", dryRun),
				zap.Bool("force_commit", forceCommit))

			opts := services.GenerateOptions{DryRun: dryRun, ForceCommit: forceCommit}

			var results []*services.GenerateScheduleResult
			if weeks == 1 {
				result, err := services.GenerateSchedule(app.Ctx, app.Database, app.Cfg, app.recorder(), app.Logger, weekStart, opts)
				if err != nil {
					return fmt.Errorf("schedule generation failed: %w", err)
				}
				results = append(results, result)
			} else {
				results, err = services.GenerateSchedules(app.Ctx, app.Database, app.Cfg, app.recorder(), app.Logger, weekStart, weeks, opts)
				if err != nil {
					return fmt.Errorf("schedule generation failed: %w", err)
				}
			}

			for _, result := range results {
				printScheduleResult(result, opts)
			}

			return nil
		},
	}

	cmd.Flags().Int("weeks", 1, "Number of consecutive weeks to generate")
	cmd.Flags().Bool("dry-run", false, "Run without saving to database")
	cmd.Flags().Bool("force-commit", false, "Save even if validation fails")

	return cmd
}

// printScheduleResult displays the outcome of one week
func printScheduleResult(result *services.GenerateScheduleResult, opts services.GenerateOptions) {
	outcome := result.Outcome
	res := outcome.Result

	fmt.Printf("\n%s📅 Week of %s%s\n\n", colorBold, result.WeekStart.Format(db.DateFormat), colorReset)
	switch {
	case opts.DryRun:
		fmt.Printf("Mode:        🧪 DRY RUN (not saved)\n")
	case result.Committed && len(outcome.ValidationErrors) > 0:
		fmt.Printf("Status:      ⚠️  FORCED (saved despite validation errors)\n")
	case result.Committed:
		fmt.Printf("Status:      ✅ SAVED (run %s)\n", result.RunID)
	default:
		fmt.Printf("Status:      ❌ INVALID (not saved)\n")
	}

	fmt.Printf("Coverage:    %s%.1f%%%s\n",
		coverageColor(res.Metrics.CoverageScore, colorGreen, colorYellow, colorRed),
		res.Metrics.CoverageScore*100, colorReset)
	fmt.Printf("Fairness:    %.2f\n", res.Metrics.FairnessScore)
	fmt.Printf("Overall:     %.2f\n", res.Metrics.OverallScore)
	fmt.Printf("Assigned:    %d / %d required (%d new, %d relabelled)\n",
		res.TotalAssigned, res.TotalRequired, result.NewAssignments, result.RelabelledAssignments)
	fmt.Println()

	if len(outcome.ValidationErrors) > 0 {
		fmt.Printf("⚠️  Validation Errors (%d):\n", len(outcome.ValidationErrors))
		for _, verr := range outcome.ValidationErrors {
			fmt.Printf("  • %s %s - %s: %s\n",
				model.DayName(verr.Day), verr.Window, verr.CriterionName, verr.Description)
		}
		fmt.Println()
	}

	windows := make([]model.WindowName, len(outcome.State.Windows))
	for i, w := range outcome.State.Windows {
		windows[i] = w.Name
	}

	fmt.Printf("%s%-5s  %-8s  %-12s  %-6s  %-10s  %s%s\n",
		colorBold, "Day", "Window", "Role", "Start", "Transport", "Worker", colorReset)
	for _, line := range assignmentLines(res.Assignments, windows, result.WorkerNames) {
		fmt.Println(line)
	}
	fmt.Println()

	if len(res.Gaps) > 0 {
		fmt.Printf("%s🚫 Gaps (%d):%s\n", colorRed, len(res.Gaps), colorReset)
		for _, gap := range res.Gaps {
			fmt.Printf("  • %s %s %s: %d of %d assigned (%d missing)\n",
				model.DayName(gap.Day), gap.Window, gap.Role, gap.Assigned, gap.Required, gap.Missing)
		}
		fmt.Println()
	}
}

// assignmentLines formats assignments as table rows ordered by day, window, role, start time and name.
// Pre-existing assignments are marked with an asterisk.
func assignmentLines(assignments []*model.Assignment, windows []model.WindowName, names map[string]string) []string {
	windowOrder := make(map[model.WindowName]int, len(windows))
	for i, w := range windows {
		windowOrder[w] = i
	}

	name := func(a *model.Assignment) string {
		if n, ok := names[a.WorkerID]; ok {
			return n
		}
		return a.WorkerID
	}

	sorted := make([]*model.Assignment, len(assignments))
	copy(sorted, assignments)
	sort.SliceStable(sorted, func(i, j int) bool {
		ai, aj := sorted[i], sorted[j]
		if ai.Day != aj.Day {
			return ai.Day < aj.Day
		}
		if windowOrder[ai.Window] != windowOrder[aj.Window] {
			return windowOrder[ai.Window] < windowOrder[aj.Window]
		}
		if ai.Role != aj.Role {
			return ai.Role < aj.Role
		}
		if ai.StartTime != aj.StartTime {
			return ai.StartTime < aj.StartTime
		}
		return name(ai) < name(aj)
	})

	lines := make([]string, 0, len(sorted))
	for _, a := range sorted {
		worker := name(a)
		if a.Existing {
			worker += " *"
		}
		line := fmt.Sprintf("%-5s  %-8s  %-12s  %-6s  %-10s  %s",
			model.DayName(a.Day), a.Window, a.Role, a.StartTime, a.Transport, worker)
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return lines
}

// coverageColor picks a display color for a coverage ratio:
// full coverage is good, at least 80% is a warning, anything lower is bad
func coverageColor(coverage float64, good, warn, bad string) string {
	switch {
	case coverage >= 1:
		return good
	case coverage >= 0.8:
		return warn
	default:
		return bad
	}
}
