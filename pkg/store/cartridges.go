package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// UpsertCartridge inserts or replaces a cartridge by ID.
// Last write wins on conflicting fields.
func (s *Store) UpsertCartridge(ctx context.Context, c *Cartridge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO resin_cartridges
		(id, material_code, material_name, initial_volume_ml, current_volume_ml,
		 printer_id, tenant_id, installed_at, last_updated, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID,
		c.MaterialCode,
		c.MaterialName,
		c.InitialVolumeML,
		c.CurrentVolumeML,
		nullableString(c.PrinterID),
		c.TenantID,
		c.InstalledAt.UTC(),
		time.Now().UTC(),
		string(c.Status),
	)
	if err != nil {
		return storageErr("upsert cartridge", err)
	}
	return nil
}

// GetCartridge returns a cartridge by ID, or ErrNotFound.
func (s *Store) GetCartridge(ctx context.Context, id string) (*Cartridge, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, material_code, material_name, initial_volume_ml, current_volume_ml,
		       printer_id, tenant_id, installed_at, last_updated, status
		FROM resin_cartridges WHERE id = ?
	`, id)

	c, err := scanCartridge(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get cartridge", err)
	}
	return c, nil
}

// ListCartridges returns all of a tenant's cartridges except removed ones.
func (s *Store) ListCartridges(ctx context.Context, tenantID string) ([]*Cartridge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, material_code, material_name, initial_volume_ml, current_volume_ml,
		       printer_id, tenant_id, installed_at, last_updated, status
		FROM resin_cartridges
		WHERE tenant_id = ? AND status != 'removed'
		ORDER BY installed_at ASC, id ASC
	`, tenantID)
	if err != nil {
		return nil, storageErr("list cartridges", err)
	}
	defer rows.Close()

	var cartridges []*Cartridge
	for rows.Next() {
		c, err := scanCartridge(rows)
		if err != nil {
			return nil, storageErr("scan cartridge", err)
		}
		cartridges = append(cartridges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list cartridges", err)
	}
	return cartridges, nil
}

// SetCartridgeVolume updates the remaining volume and the last-updated
// timestamp. Status is left untouched; the forecast pass owns it.
func (s *Store) SetCartridgeVolume(ctx context.Context, id string, volumeML float64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE resin_cartridges
		SET current_volume_ml = ?, last_updated = ?
		WHERE id = ?
	`, volumeML, time.Now().UTC(), id)
	if err != nil {
		return storageErr("set cartridge volume", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCartridge(row rowScanner) (*Cartridge, error) {
	var (
		c         Cartridge
		printerID sql.NullString
		installed sql.NullTime
		updated   sql.NullTime
		status    string
	)
	err := row.Scan(
		&c.ID,
		&c.MaterialCode,
		&c.MaterialName,
		&c.InitialVolumeML,
		&c.CurrentVolumeML,
		&printerID,
		&c.TenantID,
		&installed,
		&updated,
		&status,
	)
	if err != nil {
		return nil, err
	}
	c.PrinterID = printerID.String
	if installed.Valid {
		c.InstalledAt = installed.Time
	}
	if updated.Valid {
		c.LastUpdated = updated.Time
	}
	c.Status = CartridgeStatus(status)
	return &c, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
