package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/internal/config"
	"github.com/jakechorley/shift-planner/pkg/core/services"
	"github.com/jakechorley/shift-planner/pkg/db"
	"github.com/jakechorley/shift-planner/pkg/metrics"
	"github.com/jakechorley/shift-planner/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Env      string
	Cfg      *config.Config
	Database db.Database
	Metrics  *metrics.RunMetrics
	Logger   *zap.Logger
	Ctx      context.Context

	// Postgres is set when the postgres backend is configured
	Postgres *postgres.DB

	// Publisher creates the spreadsheet publisher on first use, running the OAuth flow if needed
	Publisher func() (services.SchedulePublisher, error)
}

// recorder returns the run recorder, or nil when metrics are disabled
func (app *AppContext) recorder() services.RunRecorder {
	if app.Metrics == nil {
		return nil
	}
	return app.Metrics
}
