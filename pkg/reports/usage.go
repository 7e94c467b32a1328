package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
)

// UsageReport generates CSV exports of the consumption ledger.
type UsageReport struct {
	store ReportStore
}

// NewUsageReport creates a new UsageReport generator.
func NewUsageReport(s ReportStore) *UsageReport {
	return &UsageReport{store: s}
}

// Generate creates a CSV report of the tenant's ledger rows for the
// requested material and window.
func (r *UsageReport) Generate(ctx context.Context, params ReportParams) (io.Reader, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	headers := []string{"date", "tenant", "material", "volume_ml", "print_count"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	window := params.WindowDays
	if window <= 0 {
		window = 30
	}

	history, err := r.store.GetUsageHistory(ctx, params.TenantID, params.MaterialCode, window)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage history: %w", err)
	}

	for _, day := range history {
		row := []string{
			day.Date,
			params.TenantID,
			params.MaterialCode,
			fmt.Sprintf("%.1f", day.VolumeML),
			fmt.Sprintf("%d", day.PrintCount),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush writer: %w", err)
	}

	return buf, nil
}
