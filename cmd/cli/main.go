package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/cmd/cli/commands"
	"github.com/jakechorley/shift-planner/internal/config"
	"github.com/jakechorley/shift-planner/pkg/clients/sheetsclient"
	"github.com/jakechorley/shift-planner/pkg/core/services"
	"github.com/jakechorley/shift-planner/pkg/metrics"
	"github.com/jakechorley/shift-planner/pkg/postgres"
	"github.com/jakechorley/shift-planner/pkg/snapshotfile"
	"github.com/jakechorley/shift-planner/pkg/utils/logging"
)

var (
	env         string
	verbose     bool
	metricsFile string

	app      = &commands.AppContext{}
	registry = prometheus.NewRegistry()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Shift Planner CLI - Generate weekly staff schedules",
		Long:  `A CLI tool for generating, saving and publishing weekly shift schedules.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdown()
		},
		SilenceUsage: true,
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write run metrics to this node exporter textfile")

	// Add all commands
	rootCmd.AddCommand(commands.GenerateScheduleCmd(app))
	rootCmd.AddCommand(commands.PublishScheduleCmd(app))
	rootCmd.AddCommand(commands.ListRunsCmd(app))
	rootCmd.AddCommand(commands.ImportSnapshotCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))

	if err := rootCmd.Execute(); err != nil {
		shutdown()
		os.Exit(1)
	}
}

// initApp sets up logger, config, storage and metrics
func initApp() error {
	var err error
	app.Env = env
	app.Ctx = context.Background()

	// Initialize logger
	app.Logger, err = logging.InitLoggerWithOptions(env, logging.Options{Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	// Initialize storage
	switch app.Cfg.Storage.Backend {
	case config.BackendPostgres:
		app.Logger.Info("Connecting to database")
		app.Postgres, err = postgres.NewDB(app.Ctx, app.Cfg.Storage.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.Database = app.Postgres
	case config.BackendFile:
		app.Logger.Info("Opening snapshot file", zap.String("path", app.Cfg.Storage.SnapshotPath))
		app.Database, err = snapshotfile.Open(app.Cfg.Storage.SnapshotPath, app.Cfg.Storage.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to open snapshot: %w", err)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", app.Cfg.Storage.Backend)
	}
	app.Logger.Info("Storage initialized successfully", zap.String("backend", app.Cfg.Storage.Backend))

	// Initialize metrics
	app.Metrics, err = metrics.NewRunMetrics(registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	// The sheets client runs the OAuth flow, so only publishing creates it
	app.Publisher = func() (services.SchedulePublisher, error) {
		app.Logger.Info("Loading OAuth client configuration")
		oauthCfg, err := config.LoadOAuthClientWithEnv(env)
		if err != nil {
			return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
		}

		app.Logger.Info("Initializing sheets client")
		client, err := sheetsclient.NewClient(app.Ctx, oauthCfg, env, app.Logger)
		if err != nil {
			return nil, err
		}
		app.Logger.Debug("Sheets client initialized successfully")
		return client, nil
	}

	return nil
}

// shutdown writes the metrics textfile, closes the database and flushes the logger
func shutdown() {
	if metricsFile != "" && app.Metrics != nil {
		if err := metrics.WriteToTextfile(metricsFile, registry); err != nil && app.Logger != nil {
			app.Logger.Error("Failed to write metrics", zap.Error(err))
		}
		metricsFile = ""
	}

	if app.Postgres != nil {
		app.Postgres.Close()
		app.Postgres = nil
	}

	if app.Logger != nil {
		app.Logger.Sync()
	}
}
