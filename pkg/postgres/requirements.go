package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/shift-planner/pkg/db"
)

// GetRequirements retrieves the weekly staffing template
func (d *DB) GetRequirements(ctx context.Context) ([]db.Requirement, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT day, service_window, role, required, max_staff
		FROM shift_requirement
		ORDER BY day, service_window, role
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query shift requirements: %w", err)
	}
	defer rows.Close()

	var requirements []db.Requirement
	for rows.Next() {
		var r db.Requirement
		if err := rows.Scan(&r.Day, &r.Window, &r.Role, &r.Required, &r.Max); err != nil {
			return nil, fmt.Errorf("failed to scan shift requirement: %w", err)
		}
		requirements = append(requirements, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shift requirements: %w", err)
	}

	return requirements, nil
}

// GetStartTimeTargets retrieves the start-time distribution, including inactive targets
func (d *DB) GetStartTimeTargets(ctx context.Context) ([]db.StartTimeTarget, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT day, service_window, role, to_char(start_time, 'HH24:MI'), target_count, active
		FROM start_time_target
		ORDER BY day, service_window, role, start_time
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query start time targets: %w", err)
	}
	defer rows.Close()

	var targets []db.StartTimeTarget
	for rows.Next() {
		var t db.StartTimeTarget
		if err := rows.Scan(&t.Day, &t.Window, &t.Role, &t.StartTime, &t.TargetCount, &t.Active); err != nil {
			return nil, fmt.Errorf("failed to scan start time target: %w", err)
		}
		targets = append(targets, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating start time targets: %w", err)
	}

	return targets, nil
}
