package prophet

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// levelGauge tracks the remaining volume per tenant and material
	levelGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resinprophet_level_ml",
			Help: "Remaining cartridge volume in milliliters",
		},
		[]string{"tenant_id", "material_code"},
	)

	// percentGauge tracks percent remaining per tenant and material
	percentGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resinprophet_percent_remaining",
			Help: "Remaining cartridge volume as percent of initial capacity",
		},
		[]string{"tenant_id", "material_code"},
	)

	// daysRemainingGauge tracks the forecast horizon
	daysRemainingGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resinprophet_days_remaining",
			Help: "Predicted days until cartridge depletion",
		},
		[]string{"tenant_id", "material_code"},
	)

	// consumedTotal counts resin drawn by consumption events
	consumedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resinprophet_consumed_ml_total",
			Help: "Total resin consumed in milliliters",
		},
		[]string{"tenant_id", "material_code"},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(levelGauge)
	prometheus.MustRegister(percentGauge)
	prometheus.MustRegister(daysRemainingGauge)
	prometheus.MustRegister(consumedTotal)
}
