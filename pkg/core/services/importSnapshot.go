package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/db"
	"github.com/jakechorley/shift-planner/pkg/snapshotfile"
)

// ImportSnapshotResult counts the records written by an import
type ImportSnapshotResult struct {
	Workers          int
	Availability     int
	Absences         int
	Requirements     int
	StartTimeTargets int
}

// ImportSnapshot validates a YAML snapshot file and replaces the stored input data with it.
// Schedule runs and assignments already stored are kept.
func ImportSnapshot(ctx context.Context, path string, dest db.SnapshotImporter, logger *zap.Logger) (*ImportSnapshotResult, error) {
	logger.Debug("Loading snapshot file", zap.String("path", path))
	snapshot, err := snapshotfile.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}

	result := &ImportSnapshotResult{
		Workers:          len(snapshot.Workers),
		Availability:     len(snapshot.Availability),
		Absences:         len(snapshot.Absences),
		Requirements:     len(snapshot.Requirements),
		StartTimeTargets: len(snapshot.StartTimeTargets),
	}
	logger.Debug("Loaded snapshot",
		zap.Int("workers", result.Workers),
		zap.Int("availability", result.Availability),
		zap.Int("absences", result.Absences),
		zap.Int("requirements", result.Requirements),
		zap.Int("start_time_targets", result.StartTimeTargets))

	if err := dest.ImportSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to import snapshot: %w", err)
	}

	logger.Info("Snapshot imported", zap.String("path", path))
	return result, nil
}
