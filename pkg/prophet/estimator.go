package prophet

import (
	"context"

	"github.com/openclaw/resinprophet/pkg/store"
)

// Estimation windows. The burn-rate window is deliberately shorter
// than the per-print window so it reacts faster to recent behavior.
const (
	printVolumeWindowDays = 30
	burnRateWindowDays    = 14
)

// HistorySource is the slice of the store the estimator reads.
type HistorySource interface {
	GetUsageHistory(ctx context.Context, tenantID, materialCode string, windowDays int) ([]store.UsageDay, error)
}

// Estimator derives consumption estimates from the usage ledger.
type Estimator struct {
	history HistorySource
	catalog *Catalog
}

// NewEstimator creates an estimator over a history source and a
// material catalog.
func NewEstimator(history HistorySource, catalog *Catalog) *Estimator {
	return &Estimator{history: history, catalog: catalog}
}

// AveragePrintVolume returns the tenant's average per-print
// consumption in ml over the last 30 days. With no history it falls
// back to the catalog default for the material; with rows but no
// prints it falls back to FallbackPrintML.
func (e *Estimator) AveragePrintVolume(ctx context.Context, tenantID, materialCode string) (float64, error) {
	history, err := e.history.GetUsageHistory(ctx, tenantID, materialCode, printVolumeWindowDays)
	if err != nil {
		return 0, err
	}

	if len(history) == 0 {
		return e.catalog.DefaultPrintVolume(materialCode), nil
	}

	var totalVolume float64
	var totalPrints int
	for _, day := range history {
		totalVolume += day.VolumeML
		totalPrints += day.PrintCount
	}

	if totalPrints == 0 {
		return FallbackPrintML, nil
	}
	return totalVolume / float64(totalPrints), nil
}

// DaysRemaining estimates how many days until the given volume runs
// out, based on the last 14 days of usage. The rate divides by the
// number of distinct ledger days present, not calendar days elapsed.
// Returns nil when no estimate is possible — never a fabricated rate.
func (e *Estimator) DaysRemaining(ctx context.Context, tenantID, materialCode string, currentVolumeML float64) (*float64, error) {
	history, err := e.history.GetUsageHistory(ctx, tenantID, materialCode, burnRateWindowDays)
	if err != nil {
		return nil, err
	}

	if len(history) == 0 {
		return nil, nil
	}

	var totalVolume float64
	for _, day := range history {
		totalVolume += day.VolumeML
	}
	if totalVolume <= 0 {
		return nil, nil
	}

	dailyUsage := totalVolume / float64(len(history))
	days := currentVolumeML / dailyUsage
	return &days, nil
}
