package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/services"
)

// ImportSnapshotCmd creates the importSnapshot command
func ImportSnapshotCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "importSnapshot <file>",
		Short: "Replace the workers, availability and requirements in the database with a YAML snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Postgres == nil {
				return fmt.Errorf("importSnapshot requires the postgres storage backend")
			}

			app.Logger.Debug("importSnapshot command", zap.String("file", args[0]))

			result, err := services.ImportSnapshot(app.Ctx, args[0], app.Postgres, app.Logger)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Snapshot imported!\n\n")
			fmt.Printf("Workers:            %d\n", result.Workers)
			fmt.Printf("Availability:       %d\n", result.Availability)
			fmt.Printf("Absences:           %d\n", result.Absences)
			fmt.Printf("Requirements:       %d\n", result.Requirements)
			fmt.Printf("Start time targets: %d\n\n", result.StartTimeTargets)

			return nil
		},
	}
}
