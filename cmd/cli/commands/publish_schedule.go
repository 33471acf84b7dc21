package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/services"
)

// PublishScheduleCmd creates the publishSchedule command
func PublishScheduleCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publishSchedule <week_start>",
		Short: "Publish a saved week to the schedule spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weekStart, err := services.ParseWeekStart(args[0])
			if err != nil {
				return err
			}

			app.Logger.Debug("publishSchedule command", zap.String("week_start", args[0]))

			publisher, err := app.Publisher()
			if err != nil {
				return fmt.Errorf("failed to create sheets client: %w", err)
			}

			result, err := services.PublishSchedule(app.Ctx, app.Database, publisher, app.Cfg, app.Logger, weekStart)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Schedule published!\n\n")
			fmt.Printf("Tab:         %s\n", result.TabTitle)
			fmt.Printf("Assignments: %d\n", result.Assignments)
			fmt.Printf("Gaps:        %d\n\n", result.Gaps)

			return nil
		},
	}
}
