package prophet

import (
	"time"

	"github.com/openclaw/resinprophet/pkg/store"
)

// AlertLevel classifies how urgently a cartridge needs attention.
type AlertLevel string

const (
	AlertNone     AlertLevel = "none"
	AlertInfo     AlertLevel = "info"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// Rank orders alert levels for sorting: critical first.
func (a AlertLevel) Rank() int {
	switch a {
	case AlertCritical:
		return 0
	case AlertWarning:
		return 1
	case AlertInfo:
		return 2
	case AlertNone:
		return 3
	default:
		return 4
	}
}

// Prediction is the forecast for one cartridge.
type Prediction struct {
	CartridgeID      string                `json:"cartridge_id"`
	MaterialCode     string                `json:"material_code"`
	MaterialName     string                `json:"material_name"`
	CurrentVolumeML  float64               `json:"current_volume_ml"`
	PercentRemaining float64               `json:"percent_remaining"`
	Status           store.CartridgeStatus `json:"status"`

	PrintsRemaining int        `json:"estimated_prints_remaining"`
	DaysRemaining   *float64   `json:"estimated_days_remaining,omitempty"`
	DepletionDate   *time.Time `json:"estimated_depletion_date,omitempty"`

	AlertLevel   AlertLevel `json:"alert_level"`
	AlertMessage string     `json:"alert_message"`

	QueuedJobsCount    int     `json:"queued_jobs_count"`
	QueuedJobsVolumeML float64 `json:"queued_jobs_volume_ml"`
}
