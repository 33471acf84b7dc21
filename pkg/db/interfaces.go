package db

import "context"

// SnapshotStore defines the read operations that make up the input snapshot of a run
type SnapshotStore interface {
	GetWorkers(ctx context.Context) ([]Worker, error)
	GetAvailability(ctx context.Context) ([]Availability, error)
	GetAbsences(ctx context.Context) ([]Absence, error)
	GetRequirements(ctx context.Context) ([]Requirement, error)
	GetStartTimeTargets(ctx context.Context) ([]StartTimeTarget, error)
}

// AssignmentStore defines the interface for assignment database operations
type AssignmentStore interface {
	// GetAssignments returns the assignments of the week starting on weekStart (YYYY-MM-DD)
	GetAssignments(ctx context.Context, weekStart string) ([]Assignment, error)
}

// ScheduleRunStore defines the interface for schedule run database operations
type ScheduleRunStore interface {
	GetScheduleRuns(ctx context.Context) ([]ScheduleRun, error)

	// InsertScheduleRun stores the run together with its new assignments atomically.
	// The role and transport of each relabelled assignment replace those of the stored
	// assignment with the same ID in the same write.
	InsertScheduleRun(ctx context.Context, run *ScheduleRun, assignments, relabelled []Assignment) error
}

// Database defines the interface for all database operations.
// Both postgres.DB and snapshotfile.Store implement this interface.
type Database interface {
	SnapshotStore
	AssignmentStore
	ScheduleRunStore
}

// SnapshotImporter replaces the stored input data with the given snapshot
type SnapshotImporter interface {
	ImportSnapshot(ctx context.Context, snapshot *Snapshot) error
}
