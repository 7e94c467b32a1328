package store

import (
	"context"
	"time"
)

// dayFormat is the ledger's calendar-day key. Days are bucketed in
// UTC so multi-region deployments agree on row boundaries.
const dayFormat = "2006-01-02"

// RecordUsage adds a consumption event to today's ledger row for the
// (tenant, material) key, creating the row if needed. The add happens
// inside a single UPSERT so concurrent recordings for the same key
// never lose an increment.
func (s *Store) RecordUsage(ctx context.Context, tenantID, materialCode string, volumeML float64) error {
	today := time.Now().UTC().Format(dayFormat)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resin_usage_history (date, tenant_id, material_code, volume_used_ml, print_count)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(date, tenant_id, material_code) DO UPDATE SET
			volume_used_ml = volume_used_ml + excluded.volume_used_ml,
			print_count = print_count + 1
	`, today, tenantID, materialCode, volumeML)
	if err != nil {
		return storageErr("record usage", err)
	}
	return nil
}

// GetUsageHistory returns the tenant's ledger rows for a material over
// the last windowDays days, oldest first.
func (s *Store) GetUsageHistory(ctx context.Context, tenantID, materialCode string, windowDays int) ([]UsageDay, error) {
	since := time.Now().UTC().AddDate(0, 0, -windowDays).Format(dayFormat)

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, volume_used_ml, print_count
		FROM resin_usage_history
		WHERE tenant_id = ? AND material_code = ? AND date > ?
		ORDER BY date ASC
	`, tenantID, materialCode, since)
	if err != nil {
		return nil, storageErr("get usage history", err)
	}
	defer rows.Close()

	var history []UsageDay
	for rows.Next() {
		var d UsageDay
		if err := rows.Scan(&d.Date, &d.VolumeML, &d.PrintCount); err != nil {
			return nil, storageErr("scan usage row", err)
		}
		history = append(history, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get usage history", err)
	}
	return history, nil
}
