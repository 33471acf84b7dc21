package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/shift-planner/pkg/db"
)

// ImportSnapshot replaces workers, availability, absences, requirements and start-time targets
// with the contents of the snapshot. Schedule runs and assignments are kept, so workers
// referenced by past assignments are upserted rather than deleted.
func (d *DB) ImportSnapshot(ctx context.Context, snapshot *db.Snapshot) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"availability", "absence", "shift_requirement", "start_time_target"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE worker SET active = FALSE`); err != nil {
		return fmt.Errorf("failed to deactivate workers: %w", err)
	}

	batch := &pgx.Batch{}
	for _, w := range snapshot.Workers {
		var primaryTransport *string
		if w.PrimaryTransport != "" {
			primaryTransport = &w.PrimaryTransport
		}
		batch.Queue(`
			INSERT INTO worker (id, name, primary_role, qualified_roles, primary_transport, transport_modes, is_priority, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				primary_role = EXCLUDED.primary_role,
				qualified_roles = EXCLUDED.qualified_roles,
				primary_transport = EXCLUDED.primary_transport,
				transport_modes = EXCLUDED.transport_modes,
				is_priority = EXCLUDED.is_priority,
				active = EXCLUDED.active
		`, w.ID, w.Name, w.PrimaryRole, nonNil(w.QualifiedRoles), primaryTransport, nonNil(w.TransportModes), w.IsPriority, w.Active)
	}
	for _, a := range snapshot.Availability {
		batch.Queue(`
			INSERT INTO availability (worker_id, day, service_window) VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, a.WorkerID, a.Day, a.Window)
	}
	for _, a := range snapshot.Absences {
		batch.Queue(`
			INSERT INTO absence (worker_id, start_date, end_date, rrule)
			VALUES ($1, NULLIF($2, '')::date, NULLIF($3, '')::date, NULLIF($4, ''))
		`, a.WorkerID, a.StartDate, a.EndDate, a.RRule)
	}
	for _, r := range snapshot.Requirements {
		batch.Queue(`
			INSERT INTO shift_requirement (day, service_window, role, required, max_staff)
			VALUES ($1, $2, $3, $4, $5)
		`, r.Day, r.Window, r.Role, r.Required, r.Max)
	}
	for _, t := range snapshot.StartTimeTargets {
		batch.Queue(`
			INSERT INTO start_time_target (day, service_window, role, start_time, target_count, active)
			VALUES ($1, $2, $3, $4::text::time, $5, $6)
		`, t.Day, t.Window, t.Role, t.StartTime, t.TargetCount, t.Active)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to import snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
