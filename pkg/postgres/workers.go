package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/shift-planner/pkg/db"
)

// GetWorkers retrieves all worker records, active or not
func (d *DB) GetWorkers(ctx context.Context) ([]db.Worker, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, primary_role, qualified_roles, primary_transport, transport_modes, is_priority, active
		FROM worker
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query workers: %w", err)
	}
	defer rows.Close()

	var workers []db.Worker
	for rows.Next() {
		var w db.Worker
		var primaryTransport *string
		if err := rows.Scan(&w.ID, &w.Name, &w.PrimaryRole, &w.QualifiedRoles, &primaryTransport, &w.TransportModes, &w.IsPriority, &w.Active); err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		if primaryTransport != nil {
			w.PrimaryTransport = *primaryTransport
		}
		workers = append(workers, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workers: %w", err)
	}

	return workers, nil
}

// GetAvailability retrieves all weekly availability declarations
func (d *DB) GetAvailability(ctx context.Context) ([]db.Availability, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT worker_id, day, service_window
		FROM availability
		ORDER BY worker_id, day, service_window
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability: %w", err)
	}
	defer rows.Close()

	var availability []db.Availability
	for rows.Next() {
		var a db.Availability
		if err := rows.Scan(&a.WorkerID, &a.Day, &a.Window); err != nil {
			return nil, fmt.Errorf("failed to scan availability: %w", err)
		}
		availability = append(availability, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating availability: %w", err)
	}

	return availability, nil
}

// GetAbsences retrieves all absence records
func (d *DB) GetAbsences(ctx context.Context) ([]db.Absence, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id::text, worker_id, start_date, end_date, rrule
		FROM absence
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query absences: %w", err)
	}
	defer rows.Close()

	var absences []db.Absence
	for rows.Next() {
		var a db.Absence
		var startDate, endDate *time.Time
		var rule *string
		if err := rows.Scan(&a.ID, &a.WorkerID, &startDate, &endDate, &rule); err != nil {
			return nil, fmt.Errorf("failed to scan absence: %w", err)
		}
		if startDate != nil {
			a.StartDate = startDate.Format(db.DateFormat)
		}
		if endDate != nil {
			a.EndDate = endDate.Format(db.DateFormat)
		}
		if rule != nil {
			a.RRule = *rule
		}
		absences = append(absences, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating absences: %w", err)
	}

	return absences, nil
}
