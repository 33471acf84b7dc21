package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/shift-planner/pkg/db"
)

// GetAssignments retrieves the assignments of the week starting on weekStart
func (d *DB) GetAssignments(ctx context.Context, weekStart string) ([]db.Assignment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id::text, run_id::text, week_start, day, service_window, role, worker_id,
			to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), transport, score
		FROM assignment
		WHERE week_start = $1::text::date
		ORDER BY day, service_window, role, worker_id
	`, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []db.Assignment
	for rows.Next() {
		var a db.Assignment
		var week time.Time
		var transport *string
		if err := rows.Scan(&a.ID, &a.RunID, &week, &a.Day, &a.Window, &a.Role, &a.WorkerID,
			&a.StartTime, &a.EndTime, &transport, &a.Score); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.WeekStart = week.Format(db.DateFormat)
		if transport != nil {
			a.Transport = *transport
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return assignments, nil
}

// GetScheduleRuns retrieves all schedule run records, oldest first
func (d *DB) GetScheduleRuns(ctx context.Context) ([]db.ScheduleRun, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id::text, week_start, created_at, coverage_score, fairness_score, overall_score,
			gap_count, assignment_count, forced
		FROM schedule_run
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule runs: %w", err)
	}
	defer rows.Close()

	var runs []db.ScheduleRun
	for rows.Next() {
		var r db.ScheduleRun
		var week, createdAt time.Time
		if err := rows.Scan(&r.ID, &week, &createdAt, &r.CoverageScore, &r.FairnessScore, &r.OverallScore,
			&r.GapCount, &r.AssignmentCount, &r.Forced); err != nil {
			return nil, fmt.Errorf("failed to scan schedule run: %w", err)
		}
		r.WeekStart = week.Format(db.DateFormat)
		r.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule runs: %w", err)
	}

	return runs, nil
}

// InsertScheduleRun inserts the run record and its assignments and updates the relabelled
// assignments in a single transaction
func (d *DB) InsertScheduleRun(ctx context.Context, run *db.ScheduleRun, assignments, relabelled []db.Assignment) error {
	createdAt := time.Now().UTC()
	if run.CreatedAt != "" {
		parsed, err := time.Parse(time.RFC3339, run.CreatedAt)
		if err != nil {
			return fmt.Errorf("invalid schedule run created_at %q: %w", run.CreatedAt, err)
		}
		createdAt = parsed
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO schedule_run (id, week_start, created_at, coverage_score, fairness_score, overall_score,
			gap_count, assignment_count, forced)
		VALUES ($1, $2::text::date, $3, $4, $5, $6, $7, $8, $9)
	`, run.ID, run.WeekStart, createdAt, run.CoverageScore, run.FairnessScore, run.OverallScore,
		run.GapCount, run.AssignmentCount, run.Forced)
	if err != nil {
		return fmt.Errorf("failed to insert schedule run: %w", err)
	}

	for _, a := range assignments {
		var transport *string
		if a.Transport != "" {
			transport = &a.Transport
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO assignment (id, run_id, week_start, day, service_window, role, worker_id,
				start_time, end_time, transport, score)
			VALUES ($1, $2, $3::text::date, $4, $5, $6, $7, $8::text::time, $9::text::time, $10, $11)
		`, a.ID, a.RunID, a.WeekStart, a.Day, a.Window, a.Role, a.WorkerID,
			a.StartTime, a.EndTime, transport, a.Score)
		if err != nil {
			return fmt.Errorf("failed to insert assignment for worker %s: %w", a.WorkerID, err)
		}
	}

	for _, a := range relabelled {
		var transport *string
		if a.Transport != "" {
			transport = &a.Transport
		}

		tag, err := tx.Exec(ctx, `UPDATE assignment SET role = $2, transport = $3 WHERE id = $1`,
			a.ID, a.Role, transport)
		if err != nil {
			return fmt.Errorf("failed to update assignment %s: %w", a.ID, err)
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("assignment %s not found", a.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
