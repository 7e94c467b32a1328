package reports

import (
	"context"
	"io"
	"time"

	"github.com/openclaw/resinprophet/pkg/store"
)

type ReportType string

const (
	ReportTypeUsage ReportType = "usage"
	ReportTypeCosts ReportType = "costs"
)

// ReportParams bounds a generated report.
type ReportParams struct {
	TenantID     string
	MaterialCode string
	WindowDays   int
	Now          time.Time
}

// ReportStore defines the data access required by ledger reports.
type ReportStore interface {
	GetUsageHistory(ctx context.Context, tenantID, materialCode string, windowDays int) ([]store.UsageDay, error)
}

type Generator interface {
	Generate(ctx context.Context, params ReportParams) (io.Reader, error)
}
