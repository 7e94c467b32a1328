package prophet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/openclaw/resinprophet/pkg/store"
)

// Store is the persistence surface the prediction engine needs.
// *store.Store satisfies it.
type Store interface {
	UpsertCartridge(ctx context.Context, c *store.Cartridge) error
	GetCartridge(ctx context.Context, id string) (*store.Cartridge, error)
	ListCartridges(ctx context.Context, tenantID string) ([]*store.Cartridge, error)
	SetCartridgeVolume(ctx context.Context, id string, volumeML float64) error
	UpsertPrintJob(ctx context.Context, j *store.PrintJob) error
	ListActiveJobs(ctx context.Context, tenantID, materialCode string) ([]*store.PrintJob, error)
	GetUsageHistory(ctx context.Context, tenantID, materialCode string, windowDays int) ([]store.UsageDay, error)
	RecordUsage(ctx context.Context, tenantID, materialCode string, volumeML float64) error
}

// PredictionCache receives freshly computed predictions so read-heavy
// consumers (the bot layer, dashboards) can serve the last known
// forecast without touching the engine. Writes are best-effort.
type PredictionCache interface {
	Put(ctx context.Context, tenantID string, p *Prediction) error
}

// Prophet is the resin depletion prediction engine.
type Prophet struct {
	store     Store
	estimator *Estimator
	catalog   *Catalog
	cache     PredictionCache
}

// New creates a Prophet over a store and a material catalog.
// cache may be nil.
func New(st Store, catalog *Catalog, cache PredictionCache) *Prophet {
	return &Prophet{
		store:     st,
		estimator: NewEstimator(st, catalog),
		catalog:   catalog,
		cache:     cache,
	}
}

// Catalog returns the material catalog the engine was built with.
func (p *Prophet) Catalog() *Catalog {
	return p.catalog
}

// RegisterCartridgeParams configures a new cartridge registration.
type RegisterCartridgeParams struct {
	CartridgeID     string
	MaterialCode    string
	MaterialName    string
	TenantID        string
	PrinterID       string
	InitialVolumeML float64 // defaults to 1000
	CurrentVolumeML float64 // defaults to InitialVolumeML
}

// RegisterCartridge creates and persists a new cartridge.
// An empty CartridgeID gets a material+tenant+timestamp identifier.
func (p *Prophet) RegisterCartridge(ctx context.Context, params RegisterCartridgeParams) (*store.Cartridge, error) {
	if params.InitialVolumeML <= 0 {
		params.InitialVolumeML = 1000
	}
	if params.CurrentVolumeML <= 0 {
		params.CurrentVolumeML = params.InitialVolumeML
	}
	if params.CartridgeID == "" {
		params.CartridgeID = fmt.Sprintf("%s_%s_%s",
			params.MaterialCode, params.TenantID, time.Now().UTC().Format("20060102150405"))
	}
	if params.MaterialName == "" {
		params.MaterialName = p.catalog.DisplayName(params.MaterialCode)
	}

	now := time.Now().UTC()
	c := &store.Cartridge{
		ID:              params.CartridgeID,
		MaterialCode:    params.MaterialCode,
		MaterialName:    params.MaterialName,
		InitialVolumeML: params.InitialVolumeML,
		CurrentVolumeML: params.CurrentVolumeML,
		PrinterID:       params.PrinterID,
		TenantID:        params.TenantID,
		InstalledAt:     now,
		LastUpdated:     now,
		Status:          store.CartridgeActive,
	}
	if err := p.store.UpsertCartridge(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Consume applies a resin consumption event: the cartridge balance is
// decremented (floored at 0) and the requested volume is appended to
// the usage ledger unclamped. A missing cartridge or a tenant
// mismatch returns (false, nil) — the caller cannot tell which.
func (p *Prophet) Consume(ctx context.Context, cartridgeID string, volumeML float64, tenantID string) (bool, error) {
	cartridge, err := p.store.GetCartridge(ctx, cartridgeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if cartridge.TenantID != tenantID {
		return false, nil
	}

	// Negative volumes are treated as zero-volume consumptions; the
	// event is still counted as one print.
	if volumeML < 0 {
		volumeML = 0
	}

	newVolume := math.Max(0, cartridge.CurrentVolumeML-volumeML)
	if err := p.store.SetCartridgeVolume(ctx, cartridgeID, newVolume); err != nil {
		return false, err
	}
	if err := p.store.RecordUsage(ctx, tenantID, cartridge.MaterialCode, volumeML); err != nil {
		return false, err
	}

	consumedTotal.WithLabelValues(tenantID, cartridge.MaterialCode).Add(volumeML)
	return true, nil
}

// Predict computes the depletion forecast for one cartridge, persists
// the recomputed lifecycle status, and returns the prediction. Missing
// or foreign cartridges return store.ErrNotFound; sparse history never
// fails, it degrades to a nil days-remaining estimate.
func (p *Prophet) Predict(ctx context.Context, cartridgeID, tenantID string) (*Prediction, error) {
	cartridge, err := p.store.GetCartridge(ctx, cartridgeID)
	if err != nil {
		return nil, err
	}
	if cartridge.TenantID != tenantID {
		return nil, store.ErrNotFound
	}

	queued, err := p.store.ListActiveJobs(ctx, tenantID, cartridge.MaterialCode)
	if err != nil {
		return nil, err
	}
	var queuedVolume float64
	for _, job := range queued {
		queuedVolume += job.EstimatedResinML
	}

	avgPrint, err := p.estimator.AveragePrintVolume(ctx, tenantID, cartridge.MaterialCode)
	if err != nil {
		return nil, err
	}
	printsRemaining := 0
	if avgPrint > 0 {
		printsRemaining = int(cartridge.CurrentVolumeML / avgPrint)
	}

	daysRemaining, err := p.estimator.DaysRemaining(ctx, tenantID, cartridge.MaterialCode, cartridge.CurrentVolumeML)
	if err != nil {
		return nil, err
	}
	var depletionDate *time.Time
	if daysRemaining != nil {
		d := time.Now().Add(time.Duration(*daysRemaining * float64(24*time.Hour)))
		depletionDate = &d
	}

	percent := cartridge.PercentRemaining()
	level, message := classifyAlert(percent, cartridge.MaterialName)

	// Status thresholds are independent from the alert tiers.
	cartridge.Status = statusForPercent(percent)
	if err := p.store.UpsertCartridge(ctx, cartridge); err != nil {
		return nil, err
	}

	pred := &Prediction{
		CartridgeID:        cartridge.ID,
		MaterialCode:       cartridge.MaterialCode,
		MaterialName:       cartridge.MaterialName,
		CurrentVolumeML:    cartridge.CurrentVolumeML,
		PercentRemaining:   percent,
		Status:             cartridge.Status,
		PrintsRemaining:    printsRemaining,
		DaysRemaining:      daysRemaining,
		DepletionDate:      depletionDate,
		AlertLevel:         level,
		AlertMessage:       message,
		QueuedJobsCount:    len(queued),
		QueuedJobsVolumeML: queuedVolume,
	}

	levelGauge.WithLabelValues(tenantID, cartridge.MaterialCode).Set(cartridge.CurrentVolumeML)
	percentGauge.WithLabelValues(tenantID, cartridge.MaterialCode).Set(percent)
	if daysRemaining != nil {
		daysRemainingGauge.WithLabelValues(tenantID, cartridge.MaterialCode).Set(*daysRemaining)
	}

	if p.cache != nil {
		if err := p.cache.Put(ctx, tenantID, pred); err != nil {
			log.Printf("Failed to cache prediction for %s: %v", cartridge.ID, err)
		}
	}

	return pred, nil
}

// AllPredictions forecasts every active cartridge of a tenant, most
// urgent first. The sort is stable: ties keep listing order.
func (p *Prophet) AllPredictions(ctx context.Context, tenantID string) ([]*Prediction, error) {
	cartridges, err := p.store.ListCartridges(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	predictions := make([]*Prediction, 0, len(cartridges))
	for _, c := range cartridges {
		pred, err := p.Predict(ctx, c.ID, tenantID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		predictions = append(predictions, pred)
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].AlertLevel.Rank() < predictions[j].AlertLevel.Rank()
	})

	return predictions, nil
}

// classifyAlert maps percent remaining to a tier and message.
// First match wins; 20.0 falls in the info band.
func classifyAlert(percent float64, materialName string) (AlertLevel, string) {
	switch {
	case percent < 10:
		return AlertCritical, fmt.Sprintf("🚨 CRITICAL: %s at %.1f%%. Order now!", materialName, percent)
	case percent < 20:
		return AlertWarning, fmt.Sprintf("⚠️ WARNING: %s at %.1f%%. Plan reorder.", materialName, percent)
	case percent < 30:
		return AlertInfo, fmt.Sprintf("ℹ️ %s at %.1f%%. Monitor levels.", materialName, percent)
	default:
		return AlertNone, fmt.Sprintf("✅ %s level OK (%.1f%%)", materialName, percent)
	}
}

// statusForPercent recomputes the lifecycle status. 20.0 is active.
func statusForPercent(percent float64) store.CartridgeStatus {
	switch {
	case percent < 5:
		return store.CartridgeEmpty
	case percent < 10:
		return store.CartridgeCritical
	case percent < 20:
		return store.CartridgeLow
	default:
		return store.CartridgeActive
	}
}
