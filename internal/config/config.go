package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/shift-planner/pkg/core/allocator"
	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// Storage backends
const (
	BackendPostgres = "postgres"
	BackendFile     = "file"
)

// EnvPrefix is prepended to every environment variable read by the overlay
const EnvPrefix = "SHIFT_PLANNER_"

// StorageConfig selects where the snapshot is read from and runs are written to
type StorageConfig struct {
	Backend      string `yaml:"backend" validate:"required,oneof=postgres file"`
	DatabaseURL  string `yaml:"databaseURL,omitempty" validate:"required_if=Backend postgres"`
	SnapshotPath string `yaml:"snapshotPath,omitempty" validate:"required_if=Backend file"`
	OutputPath   string `yaml:"outputPath,omitempty"`
}

// PublishConfig defines where generated schedules are published
type PublishConfig struct {
	SpreadsheetID string `yaml:"spreadsheetID,omitempty"`
}

// WindowConfig defines a named service window of the day ("HH:MM" bounds)
type WindowConfig struct {
	Name  string `yaml:"name" validate:"required"`
	Start string `yaml:"start" validate:"required"`
	End   string `yaml:"end" validate:"required"`
}

// TransportCapacityConfig caps concurrent use of a scarce transport mode
type TransportCapacityConfig struct {
	LimitedMode  string   `yaml:"limitedMode,omitempty"`
	LimitedRoles []string `yaml:"limitedRoles,omitempty" validate:"required_with=LimitedMode"`
	MaxPerSlot   int      `yaml:"maxPerSlot,omitempty" validate:"omitempty,min=1"`
}

// SlotConstraintConfig restricts a role to start times at or after Cutover in some windows
type SlotConstraintConfig struct {
	Role    string   `yaml:"role" validate:"required"`
	Windows []string `yaml:"windows" validate:"required,min=1"`
	Cutover string   `yaml:"cutover" validate:"required"`
}

// PairMemberConfig is one side of the priority pairing
type PairMemberConfig struct {
	WorkerID string `yaml:"workerID" validate:"required"`
	Role     string `yaml:"role" validate:"required"`
}

// PriorityPairingConfig is the preferred role pairing of two priority workers
type PriorityPairingConfig struct {
	First  PairMemberConfig `yaml:"first"`
	Second PairMemberConfig `yaml:"second"`
}

// WorkerOverrideConfig holds per-worker scheduling overrides
type WorkerOverrideConfig struct {
	WorkerID      string `yaml:"workerID" validate:"required"`
	StartTime     string `yaml:"startTime,omitempty"`
	PreferredRole string `yaml:"preferredRole,omitempty"`
}

// RequirementOverride adjusts the requirements of a window on every date matching RRule.
// An empty Role applies to every role of the window.
type RequirementOverride struct {
	RRule    string `yaml:"rrule" validate:"required"`
	Window   string `yaml:"window" validate:"required"`
	Role     string `yaml:"role,omitempty"`
	Required *int   `yaml:"required,omitempty" validate:"omitempty,min=0"`
	Max      *int   `yaml:"max,omitempty" validate:"omitempty,min=0"`
}

// Config represents the application configuration
type Config struct {
	Storage              StorageConfig           `yaml:"storage"`
	Publish              PublishConfig           `yaml:"publish,omitempty"`
	Windows              []WindowConfig          `yaml:"windows,omitempty" validate:"dive"`
	RolePriority         map[string]int          `yaml:"rolePriority,omitempty"`
	TransportCapacity    TransportCapacityConfig `yaml:"transportCapacity,omitempty"`
	SlotConstraints      []SlotConstraintConfig  `yaml:"slotConstraints,omitempty" validate:"dive"`
	PriorityPairing      *PriorityPairingConfig  `yaml:"priorityPairing,omitempty"`
	WorkerOverrides      []WorkerOverrideConfig  `yaml:"workerOverrides,omitempty" validate:"dive"`
	RequirementOverrides []RequirementOverride   `yaml:"requirementOverrides,omitempty" validate:"dive"`
	Weights              *allocator.Weights      `yaml:"weights,omitempty"`
	MaxParallelWeeks     int                     `yaml:"maxParallelWeeks,omitempty" validate:"omitempty,min=1"`
}

// envOverlay holds the deploy-specific values that may be supplied through the environment
type envOverlay struct {
	StorageBackend string `env:"STORAGE_BACKEND"`
	DatabaseURL    string `env:"DATABASE_URL"`
	SnapshotPath   string `env:"SNAPSHOT_PATH"`
	OutputPath     string `env:"OUTPUT_PATH"`
	SpreadsheetID  string `env:"SPREADSHEET_ID"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from shift_planner_config.yaml
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads and validates the configuration for an environment.
// For example, env="test" will look for "shift_planner_config.test.yaml"
// in the current directory first, then in the user's home directory.
func LoadWithEnv(env string) (*Config, error) {
	fileName := "shift_planner_config.yaml"
	if env != "" {
		fileName = "shift_planner_config." + env + ".yaml"
	}

	configPath, err := findFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads the configuration from a specific path, applies the
// environment overlay and validates the result
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv overrides file values with the SHIFT_PLANNER_* variables that are set
func applyEnv(cfg *Config) error {
	var overlay envOverlay
	if err := env.ParseWithOptions(&overlay, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	set := func(dst *string, value string) {
		if value != "" {
			*dst = value
		}
	}
	set(&cfg.Storage.Backend, overlay.StorageBackend)
	set(&cfg.Storage.DatabaseURL, overlay.DatabaseURL)
	set(&cfg.Storage.SnapshotPath, overlay.SnapshotPath)
	set(&cfg.Storage.OutputPath, overlay.OutputPath)
	set(&cfg.Publish.SpreadsheetID, overlay.SpreadsheetID)

	return nil
}

// Validate validates the configuration struct, time strings, window references and rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	windows, err := cfg.ModelWindows()
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(windows))
	for _, w := range windows {
		known[string(w.Name)] = true
	}

	for i, c := range cfg.SlotConstraints {
		if _, err := model.ParseTimeOfDay(c.Cutover); err != nil {
			return fmt.Errorf("invalid cutover in slotConstraints[%d]: %w", i, err)
		}
		for _, w := range c.Windows {
			if !known[w] {
				return fmt.Errorf("slotConstraints[%d] refers to unknown window %q", i, w)
			}
		}
	}

	for i, o := range cfg.WorkerOverrides {
		if o.StartTime == "" {
			continue
		}
		if _, err := model.ParseTimeOfDay(o.StartTime); err != nil {
			return fmt.Errorf("invalid startTime in workerOverrides[%d]: %w", i, err)
		}
	}

	for i, o := range cfg.RequirementOverrides {
		if _, err := rrule.StrToRRule(o.RRule); err != nil {
			return fmt.Errorf("invalid rrule in requirementOverrides[%d]: %w", i, err)
		}
		if !known[o.Window] {
			return fmt.Errorf("requirementOverrides[%d] refers to unknown window %q", i, o.Window)
		}
		if o.Required == nil && o.Max == nil {
			return fmt.Errorf("requirementOverrides[%d] sets neither required nor max", i)
		}
		if o.Required != nil && o.Max != nil && *o.Max < *o.Required {
			return fmt.Errorf("requirementOverrides[%d] has max %d below required %d", i, *o.Max, *o.Required)
		}
	}

	return nil
}

// ModelWindows returns the configured windows, or the default windows when none are configured
func (c *Config) ModelWindows() ([]model.Window, error) {
	if len(c.Windows) == 0 {
		return allocator.DefaultWindows(), nil
	}

	windows := make([]model.Window, 0, len(c.Windows))
	seen := make(map[string]bool, len(c.Windows))
	for i, w := range c.Windows {
		if seen[w.Name] {
			return nil, fmt.Errorf("duplicate window %q", w.Name)
		}
		seen[w.Name] = true

		start, err := model.ParseTimeOfDay(w.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid start in windows[%d]: %w", i, err)
		}
		end, err := model.ParseTimeOfDay(w.End)
		if err != nil {
			return nil, fmt.Errorf("invalid end in windows[%d]: %w", i, err)
		}
		if end <= start {
			return nil, fmt.Errorf("window %q ends at %s, not after its start %s", w.Name, w.End, w.Start)
		}
		windows = append(windows, model.Window{Name: model.WindowName(w.Name), Start: start, End: end})
	}

	return windows, nil
}

// findFile searches for fileName in the current directory, then in the home directory
func findFile(fileName string) (string, error) {
	if _, err := os.Stat(fileName); err == nil {
		return fileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, fileName)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", fileName)
}
