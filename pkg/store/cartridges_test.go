package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testCartridge(id, tenantID string) *Cartridge {
	return &Cartridge{
		ID:              id,
		MaterialCode:    "FLGPGR05",
		MaterialName:    "Grey V5",
		InitialVolumeML: 1000,
		CurrentVolumeML: 1000,
		TenantID:        tenantID,
		InstalledAt:     time.Now().UTC(),
		Status:          CartridgeActive,
	}
}

func TestUpsertAndGetCartridge(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	c := testCartridge("cart_001", "tenant_a")
	c.PrinterID = "Form4-001"
	if err := store.UpsertCartridge(ctx, c); err != nil {
		t.Fatalf("UpsertCartridge failed: %v", err)
	}

	got, err := store.GetCartridge(ctx, "cart_001")
	if err != nil {
		t.Fatalf("GetCartridge failed: %v", err)
	}
	if got.MaterialCode != "FLGPGR05" || got.MaterialName != "Grey V5" {
		t.Errorf("unexpected material: %s %s", got.MaterialCode, got.MaterialName)
	}
	if got.PrinterID != "Form4-001" {
		t.Errorf("expected printer Form4-001, got %q", got.PrinterID)
	}
	if got.TenantID != "tenant_a" {
		t.Errorf("expected tenant_a, got %q", got.TenantID)
	}

	// Replace by ID: last write wins
	c.CurrentVolumeML = 500
	c.Status = CartridgeLow
	if err := store.UpsertCartridge(ctx, c); err != nil {
		t.Fatalf("UpsertCartridge (replace) failed: %v", err)
	}
	got, err = store.GetCartridge(ctx, "cart_001")
	if err != nil {
		t.Fatalf("GetCartridge failed: %v", err)
	}
	if got.CurrentVolumeML != 500 {
		t.Errorf("expected volume 500 after replace, got %f", got.CurrentVolumeML)
	}
	if got.Status != CartridgeLow {
		t.Errorf("expected status low after replace, got %s", got.Status)
	}
}

func TestGetCartridgeNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetCartridge(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListCartridgesExcludesRemoved(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	active := testCartridge("cart_active", "tenant_a")
	removed := testCartridge("cart_removed", "tenant_a")
	removed.Status = CartridgeRemoved
	other := testCartridge("cart_other", "tenant_b")

	for _, c := range []*Cartridge{active, removed, other} {
		if err := store.UpsertCartridge(ctx, c); err != nil {
			t.Fatalf("UpsertCartridge failed: %v", err)
		}
	}

	list, err := store.ListCartridges(ctx, "tenant_a")
	if err != nil {
		t.Fatalf("ListCartridges failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 cartridge, got %d", len(list))
	}
	if list[0].ID != "cart_active" {
		t.Errorf("expected cart_active, got %s", list[0].ID)
	}

	// Soft delete: the removed row is still fetchable by ID
	if _, err := store.GetCartridge(ctx, "cart_removed"); err != nil {
		t.Errorf("removed cartridge should still exist: %v", err)
	}
}

func TestSetCartridgeVolume(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	c := testCartridge("cart_001", "tenant_a")
	c.Status = CartridgeLow
	if err := store.UpsertCartridge(ctx, c); err != nil {
		t.Fatalf("UpsertCartridge failed: %v", err)
	}

	if err := store.SetCartridgeVolume(ctx, "cart_001", 123.5); err != nil {
		t.Fatalf("SetCartridgeVolume failed: %v", err)
	}

	got, err := store.GetCartridge(ctx, "cart_001")
	if err != nil {
		t.Fatalf("GetCartridge failed: %v", err)
	}
	if got.CurrentVolumeML != 123.5 {
		t.Errorf("expected volume 123.5, got %f", got.CurrentVolumeML)
	}
	// Status must not be touched by a volume update
	if got.Status != CartridgeLow {
		t.Errorf("expected status low untouched, got %s", got.Status)
	}
}

func TestPercentRemaining(t *testing.T) {
	cases := []struct {
		name    string
		initial float64
		current float64
		want    float64
	}{
		{"full", 1000, 1000, 100},
		{"fifth", 1000, 200, 20},
		{"empty", 1000, 0, 0},
		{"zero capacity", 0, 500, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Cartridge{InitialVolumeML: tc.initial, CurrentVolumeML: tc.current}
			if got := c.PercentRemaining(); got != tc.want {
				t.Errorf("PercentRemaining() = %f, want %f", got, tc.want)
			}
		})
	}
}

func TestStorageErrorOnClosedDB(t *testing.T) {
	store := setupTestStore(t)
	store.Close()

	err := store.UpsertCartridge(context.Background(), testCartridge("cart_x", "tenant_a"))
	var serr *StorageError
	if !errors.As(err, &serr) {
		t.Errorf("expected StorageError after close, got %v", err)
	}
}
