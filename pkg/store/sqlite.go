package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store manages the SQLite connection and schema.
type Store struct {
	db *sql.DB
}

// NewStore initializes the SQLite database connection.
// It enables WAL mode for concurrency and durability.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the necessary tables if they don't exist.
func (s *Store) migrate() error {
	// Three logical tables: cartridges, print jobs, and the per-day
	// usage ledger. The ledger key (date, tenant, material) is UNIQUE
	// so RecordUsage can upsert-and-add atomically.
	query := `
	CREATE TABLE IF NOT EXISTS resin_cartridges (
		id TEXT PRIMARY KEY,
		material_code TEXT NOT NULL,
		material_name TEXT NOT NULL,
		initial_volume_ml REAL NOT NULL,
		current_volume_ml REAL NOT NULL,
		printer_id TEXT,
		tenant_id TEXT NOT NULL,
		installed_at DATETIME,
		last_updated DATETIME,
		status TEXT NOT NULL DEFAULT 'active'
	);

	CREATE INDEX IF NOT EXISTS idx_cartridges_tenant ON resin_cartridges(tenant_id);

	CREATE TABLE IF NOT EXISTS print_jobs (
		id TEXT PRIMARY KEY,
		material_code TEXT NOT NULL,
		estimated_resin_ml REAL NOT NULL,
		actual_resin_ml REAL,
		status TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		printer_id TEXT,
		created_at DATETIME NOT NULL,
		started_at DATETIME,
		completed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_tenant_status ON print_jobs(tenant_id, status);

	CREATE TABLE IF NOT EXISTS resin_usage_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		material_code TEXT NOT NULL,
		volume_used_ml REAL NOT NULL,
		print_count INTEGER NOT NULL,
		UNIQUE(date, tenant_id, material_code)
	);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}
