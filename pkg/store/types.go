package store

import (
	"errors"
	"fmt"
	"time"
)

// CartridgeStatus is the lifecycle state of a resin cartridge.
type CartridgeStatus string

const (
	CartridgeActive   CartridgeStatus = "active"
	CartridgeLow      CartridgeStatus = "low"
	CartridgeCritical CartridgeStatus = "critical"
	CartridgeEmpty    CartridgeStatus = "empty"
	CartridgeRemoved  CartridgeStatus = "removed"
)

// JobStatus is the lifecycle state of a print job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobPrinting  JobStatus = "printing"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Cartridge represents a resin cartridge or tank tracked for one tenant.
type Cartridge struct {
	ID              string          `json:"id"`
	MaterialCode    string          `json:"material_code"`
	MaterialName    string          `json:"material_name"`
	InitialVolumeML float64         `json:"initial_volume_ml"`
	CurrentVolumeML float64         `json:"current_volume_ml"`
	PrinterID       string          `json:"printer_id,omitempty"`
	TenantID        string          `json:"tenant_id"`
	InstalledAt     time.Time       `json:"installed_at"`
	LastUpdated     time.Time       `json:"last_updated"`
	Status          CartridgeStatus `json:"status"`
}

// PercentRemaining returns remaining volume as a percentage of the
// initial capacity. Zero-capacity cartridges report 0.
func (c Cartridge) PercentRemaining() float64 {
	if c.InitialVolumeML <= 0 {
		return 0
	}
	return c.CurrentVolumeML / c.InitialVolumeML * 100
}

// IsLow reports whether the cartridge is below 20% remaining.
func (c Cartridge) IsLow() bool {
	return c.PercentRemaining() < 20
}

// IsCritical reports whether the cartridge is below 10% remaining.
func (c Cartridge) IsCritical() bool {
	return c.PercentRemaining() < 10
}

// PrintJob represents a print job feeding the forecast queue.
type PrintJob struct {
	ID               string     `json:"id"`
	MaterialCode     string     `json:"material_code"`
	EstimatedResinML float64    `json:"estimated_resin_ml"`
	ActualResinML    *float64   `json:"actual_resin_ml,omitempty"`
	Status           JobStatus  `json:"status"`
	TenantID         string     `json:"tenant_id"`
	PrinterID        string     `json:"printer_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// UsageDay is one row of the consumption ledger: accumulated volume
// and print count for a (tenant, material, calendar day) key.
// Dates are YYYY-MM-DD in UTC.
type UsageDay struct {
	Date       string  `json:"date"`
	VolumeML   float64 `json:"volume_ml"`
	PrintCount int     `json:"print_count"`
}

// ErrNotFound is returned when a row is absent. Tenant-mismatched
// lookups report the same error by policy.
var ErrNotFound = errors.New("not found")

// StorageError wraps a failure from the underlying SQLite layer.
// Callers distinguish it from domain errors with errors.As.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
