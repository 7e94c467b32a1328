package store

import (
	"context"
	"database/sql"
)

// UpsertPrintJob inserts or replaces a print job by ID.
func (s *Store) UpsertPrintJob(ctx context.Context, j *PrintJob) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO print_jobs
		(id, material_code, estimated_resin_ml, actual_resin_ml, status,
		 tenant_id, printer_id, created_at, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		j.ID,
		j.MaterialCode,
		j.EstimatedResinML,
		j.ActualResinML,
		string(j.Status),
		j.TenantID,
		nullableString(j.PrinterID),
		j.CreatedAt.UTC(),
		j.StartedAt,
		j.CompletedAt,
	)
	if err != nil {
		return storageErr("upsert print job", err)
	}
	return nil
}

// ListActiveJobs returns a tenant's queued and printing jobs, oldest
// first. FIFO ordering is a contract for "next up" consumers. An empty
// materialCode matches all materials.
func (s *Store) ListActiveJobs(ctx context.Context, tenantID, materialCode string) ([]*PrintJob, error) {
	query := `
		SELECT id, material_code, estimated_resin_ml, actual_resin_ml, status,
		       tenant_id, printer_id, created_at, started_at, completed_at
		FROM print_jobs
		WHERE tenant_id = ? AND status IN ('queued', 'printing')
	`
	args := []any{tenantID}
	if materialCode != "" {
		query += ` AND material_code = ?`
		args = append(args, materialCode)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list active jobs", err)
	}
	defer rows.Close()

	var jobs []*PrintJob
	for rows.Next() {
		var (
			j         PrintJob
			actual    sql.NullFloat64
			printerID sql.NullString
			started   sql.NullTime
			completed sql.NullTime
			status    string
		)
		err := rows.Scan(
			&j.ID,
			&j.MaterialCode,
			&j.EstimatedResinML,
			&actual,
			&status,
			&j.TenantID,
			&printerID,
			&j.CreatedAt,
			&started,
			&completed,
		)
		if err != nil {
			return nil, storageErr("scan print job", err)
		}
		if actual.Valid {
			v := actual.Float64
			j.ActualResinML = &v
		}
		j.PrinterID = printerID.String
		if started.Valid {
			t := started.Time
			j.StartedAt = &t
		}
		if completed.Valid {
			t := completed.Time
			j.CompletedAt = &t
		}
		j.Status = JobStatus(status)
		jobs = append(jobs, &j)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list active jobs", err)
	}
	return jobs, nil
}
