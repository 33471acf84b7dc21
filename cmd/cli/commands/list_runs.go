package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-planner/pkg/core/services"
)

// ListRunsCmd creates the listRuns command
func ListRunsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listRuns",
		Short: "List saved schedule runs, most recent week first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := services.ListScheduleRuns(app.Ctx, app.Database, app.Logger)
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Println("No schedule runs found.")
				return nil
			}

			fmt.Printf("\n%s%-10s  %-36s  %-20s  %8s  %8s  %4s  %11s%s\n",
				colorBold, "Week", "Run ID", "Created", "Coverage", "Fairness", "Gaps", "Assignments", colorReset)
			for _, run := range runs {
				forced := ""
				if run.Forced {
					forced = " (forced)"
				}
				fmt.Printf("%-10s  %-36s  %-20s  %s%7.1f%%%s  %8.2f  %4d  %11d%s\n",
					run.WeekStart,
					run.ID,
					run.CreatedAt,
					coverageColor(run.CoverageScore, colorGreen, colorYellow, colorRed),
					run.CoverageScore*100,
					colorReset,
					run.FairnessScore,
					run.GapCount,
					run.AssignmentCount,
					forced)
			}
			fmt.Println()

			return nil
		},
	}
}
