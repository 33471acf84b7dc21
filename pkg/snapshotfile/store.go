// Package snapshotfile implements the scheduler store on top of YAML files.
// The input snapshot is read-only; committed runs and assignments are written
// to a separate output file so that the snapshot can be reused across runs.
package snapshotfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/shift-planner/pkg/db"
)

var validate = validator.New()

// Output is the content of the output file
type Output struct {
	Runs        []db.ScheduleRun `yaml:"runs"`
	Assignments []db.Assignment  `yaml:"assignments"`
}

// Store serves a snapshot file and persists committed runs to an output file
type Store struct {
	mu         sync.RWMutex
	snapshot   db.Snapshot
	output     Output
	outputPath string
}

// Open loads and validates the snapshot at snapshotPath and the previously committed runs at
// outputPath (a missing output file is treated as empty). With an empty outputPath committed
// runs are kept in memory only.
func Open(snapshotPath, outputPath string) (*Store, error) {
	snapshot, err := LoadSnapshot(snapshotPath)
	if err != nil {
		return nil, err
	}

	store := &Store{snapshot: *snapshot, outputPath: outputPath}
	if outputPath == "" {
		return store, nil
	}

	data, err := os.ReadFile(outputPath)
	if errors.Is(err, os.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read output file: %w", err)
	}
	if err := yaml.Unmarshal(data, &store.output); err != nil {
		return nil, fmt.Errorf("failed to parse output file: %w", err)
	}

	return store, nil
}

// LoadSnapshot reads and validates a snapshot file
func LoadSnapshot(path string) (*db.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snapshot db.Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot file: %w", err)
	}

	if err := Validate(&snapshot); err != nil {
		return nil, err
	}

	return &snapshot, nil
}

// Validate checks field constraints and that every record refers to a known worker
func Validate(snapshot *db.Snapshot) error {
	if err := validate.Struct(snapshot); err != nil {
		return fmt.Errorf("snapshot validation failed: %w", err)
	}

	workers := make(map[string]bool, len(snapshot.Workers))
	for _, w := range snapshot.Workers {
		if workers[w.ID] {
			return fmt.Errorf("duplicate worker %q in snapshot", w.ID)
		}
		workers[w.ID] = true
	}
	for i, a := range snapshot.Availability {
		if !workers[a.WorkerID] {
			return fmt.Errorf("availability[%d] refers to unknown worker %q", i, a.WorkerID)
		}
	}
	for i, a := range snapshot.Absences {
		if !workers[a.WorkerID] {
			return fmt.Errorf("absences[%d] refers to unknown worker %q", i, a.WorkerID)
		}
	}

	return nil
}

// GetWorkers returns all workers of the snapshot
func (s *Store) GetWorkers(ctx context.Context) ([]db.Worker, error) {
	return append([]db.Worker(nil), s.snapshot.Workers...), nil
}

// GetAvailability returns all availability declarations of the snapshot
func (s *Store) GetAvailability(ctx context.Context) ([]db.Availability, error) {
	return append([]db.Availability(nil), s.snapshot.Availability...), nil
}

// GetAbsences returns all absences of the snapshot
func (s *Store) GetAbsences(ctx context.Context) ([]db.Absence, error) {
	return append([]db.Absence(nil), s.snapshot.Absences...), nil
}

// GetRequirements returns the weekly staffing template of the snapshot
func (s *Store) GetRequirements(ctx context.Context) ([]db.Requirement, error) {
	return append([]db.Requirement(nil), s.snapshot.Requirements...), nil
}

// GetStartTimeTargets returns the start-time distribution of the snapshot
func (s *Store) GetStartTimeTargets(ctx context.Context) ([]db.StartTimeTarget, error) {
	return append([]db.StartTimeTarget(nil), s.snapshot.StartTimeTargets...), nil
}

// GetAssignments returns the committed assignments of the given week
func (s *Store) GetAssignments(ctx context.Context, weekStart string) ([]db.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var assignments []db.Assignment
	for _, a := range s.output.Assignments {
		if a.WeekStart == weekStart {
			assignments = append(assignments, a)
		}
	}
	return assignments, nil
}

// GetScheduleRuns returns all committed runs in commit order
func (s *Store) GetScheduleRuns(ctx context.Context) ([]db.ScheduleRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]db.ScheduleRun(nil), s.output.Runs...), nil
}

// InsertScheduleRun records the run and its assignments, applies the relabelled roles and
// transports in place and rewrites the output file.
// Nothing is recorded if the file cannot be written or a relabelled assignment is unknown.
func (s *Store) InsertScheduleRun(ctx context.Context, run *db.ScheduleRun, assignments, relabelled []db.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := append([]db.Assignment(nil), s.output.Assignments...)
	index := make(map[string]int, len(stored))
	for i, a := range stored {
		index[a.ID] = i
	}
	for _, a := range relabelled {
		i, ok := index[a.ID]
		if !ok {
			return fmt.Errorf("assignment %s not found", a.ID)
		}
		stored[i].Role = a.Role
		stored[i].Transport = a.Transport
	}

	next := Output{
		Runs:        append(append([]db.ScheduleRun(nil), s.output.Runs...), *run),
		Assignments: append(stored, assignments...),
	}

	if s.outputPath != "" {
		if err := writeYAML(s.outputPath, next); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
	}

	s.output = next
	return nil
}

// writeYAML writes v to path through a temporary file in the same directory
func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
