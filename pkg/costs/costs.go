// Package costs estimates print costs from resin volume and material
// pricing.
package costs

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/openclaw/resinprophet/pkg/prophet"
)

// ElectricityCostPerHour is the rough USD cost of an hour of printing.
const ElectricityCostPerHour = 0.05

// PrintCost is the cost breakdown for a single print.
type PrintCost struct {
	ResinCostUSD       float64 `json:"resin_cost_usd"`
	ElectricityCostUSD float64 `json:"electricity_cost_usd"`
	TotalCostUSD       float64 `json:"total_cost_usd"`
	VolumeML           float64 `json:"volume_ml"`
	MaterialCode       string  `json:"material_code"`
	PricePerLiter      float64 `json:"price_per_liter"`
}

// PrintRun is one historical print fed into a cost summary.
type PrintRun struct {
	VolumeML     float64
	MaterialCode string
	MaterialName string
	DurationMS   int64
}

// MaterialCosts aggregates one material's share of a summary.
type MaterialCosts struct {
	MaterialName string  `json:"material_name"`
	VolumeML     float64 `json:"volume_ml"`
	CostUSD      float64 `json:"cost_usd"`
	Count        int     `json:"count"`
}

// Summary aggregates costs across multiple prints.
type Summary struct {
	TotalPrints     int                      `json:"total_prints"`
	TotalVolumeML   float64                  `json:"total_volume_ml"`
	TotalCostUSD    float64                  `json:"total_cost_usd"`
	AvgCostPerPrint float64                  `json:"avg_cost_per_print"`
	ByMaterial      map[string]MaterialCosts `json:"material_breakdown"`
}

// Estimator prices prints against a material catalog.
type Estimator struct {
	catalog *prophet.Catalog
}

// NewEstimator creates a cost estimator over a catalog.
func NewEstimator(catalog *prophet.Catalog) *Estimator {
	return &Estimator{catalog: catalog}
}

// EstimatePrintCost prices a single print. durationMS contributes the
// electricity share and may be zero.
func (e *Estimator) EstimatePrintCost(volumeML float64, materialCode string, durationMS int64) PrintCost {
	pricePerLiter := e.catalog.PricePerLiter(materialCode)
	resinCost := volumeML * (pricePerLiter / 1000)

	var electricityCost float64
	if durationMS > 0 {
		hours := float64(durationMS) / 3_600_000
		electricityCost = hours * ElectricityCostPerHour
	}

	return PrintCost{
		ResinCostUSD:       round2(resinCost),
		ElectricityCostUSD: round2(electricityCost),
		TotalCostUSD:       round2(resinCost + electricityCost),
		VolumeML:           round1(volumeML),
		MaterialCode:       materialCode,
		PricePerLiter:      pricePerLiter,
	}
}

// Summarize aggregates costs across prints. Zero-volume prints are
// skipped.
func (e *Estimator) Summarize(prints []PrintRun) Summary {
	summary := Summary{ByMaterial: make(map[string]MaterialCosts)}

	for _, p := range prints {
		if p.VolumeML <= 0 {
			continue
		}
		cost := e.EstimatePrintCost(p.VolumeML, p.MaterialCode, p.DurationMS)

		summary.TotalVolumeML += p.VolumeML
		summary.TotalCostUSD += cost.TotalCostUSD
		summary.TotalPrints++

		entry, ok := summary.ByMaterial[p.MaterialCode]
		if !ok {
			name := p.MaterialName
			if name == "" {
				name = e.catalog.DisplayName(p.MaterialCode)
			}
			entry = MaterialCosts{MaterialName: name}
		}
		entry.VolumeML += p.VolumeML
		entry.CostUSD += cost.TotalCostUSD
		entry.Count++
		summary.ByMaterial[p.MaterialCode] = entry
	}

	summary.TotalVolumeML = round1(summary.TotalVolumeML)
	summary.TotalCostUSD = round2(summary.TotalCostUSD)
	if summary.TotalPrints > 0 {
		summary.AvgCostPerPrint = round2(summary.TotalCostUSD / float64(summary.TotalPrints))
	}
	return summary
}

// FormatSummary renders a cost summary as a bot-friendly message.
func FormatSummary(s Summary) string {
	var b strings.Builder
	b.WriteString("💰 *Cost Summary*\n")
	b.WriteString(strings.Repeat("=", 28) + "\n\n")
	b.WriteString(fmt.Sprintf("Prints: %d\n", s.TotalPrints))
	b.WriteString(fmt.Sprintf("Total Resin: %.0f ml\n", s.TotalVolumeML))
	b.WriteString(fmt.Sprintf("Total Cost: $%.2f\n", s.TotalCostUSD))
	b.WriteString(fmt.Sprintf("Avg/Print: $%.2f", s.AvgCostPerPrint))

	if len(s.ByMaterial) > 0 {
		b.WriteString("\n\n*By Material:*")

		codes := make([]string, 0, len(s.ByMaterial))
		for code := range s.ByMaterial {
			codes = append(codes, code)
		}
		// Most expensive first
		sort.Slice(codes, func(i, j int) bool {
			return s.ByMaterial[codes[i]].CostUSD > s.ByMaterial[codes[j]].CostUSD
		})

		for _, code := range codes {
			info := s.ByMaterial[code]
			name := info.MaterialName
			if name == "" {
				name = code
			}
			b.WriteString(fmt.Sprintf("\n  %s: %.0fml / $%.2f (%d prints)",
				name, info.VolumeML, info.CostUSD, info.Count))
		}
	}

	return b.String()
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
