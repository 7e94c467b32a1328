// Package tanks analyzes resin tank wear and predicts replacement.
package tanks

import (
	"fmt"
	"sort"
	"strings"
)

// Severity classifies how worn a tank is.
type Severity string

const (
	SeverityGood     Severity = "good"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Wear thresholds as percent of tank life used.
const (
	thresholdWarning  = 70.0
	thresholdCritical = 90.0
)

// maxLayersByType holds conservative layer-life estimates per tank type.
var maxLayersByType = map[string]int{
	"standard": 15000,
	"lft":      25000, // Long Life Tank
	"form4":    20000,
	"default":  15000,
}

// Tank is the wear-relevant slice of a tank record.
type Tank struct {
	Serial        string
	Material      string
	DisplayName   string
	TankType      string
	LayersPrinted int
	InsidePrinter string
}

// Analysis is the lifecycle assessment for one tank.
type Analysis struct {
	Serial          string   `json:"serial"`
	Material        string   `json:"material"`
	DisplayName     string   `json:"display_name"`
	TankType        string   `json:"tank_type"`
	LayersPrinted   int      `json:"layers_printed"`
	MaxLayers       int      `json:"max_layers"`
	RemainingLayers int      `json:"remaining_layers"`
	PercentUsed     float64  `json:"percent_used"`
	Severity        Severity `json:"severity"`
	InsidePrinter   string   `json:"inside_printer,omitempty"`
}

// EstimateLife assesses a tank's remaining life from its layer count.
func EstimateLife(t Tank) Analysis {
	tankType := strings.ToLower(t.TankType)
	maxLayers, ok := maxLayersByType[tankType]
	if !ok {
		maxLayers = maxLayersByType["default"]
	}

	var percentUsed float64
	if maxLayers > 0 {
		percentUsed = float64(t.LayersPrinted) / float64(maxLayers) * 100
		if percentUsed > 100 {
			percentUsed = 100
		}
	}

	remaining := maxLayers - t.LayersPrinted
	if remaining < 0 {
		remaining = 0
	}

	severity := SeverityGood
	switch {
	case percentUsed >= thresholdCritical:
		severity = SeverityCritical
	case percentUsed >= thresholdWarning:
		severity = SeverityWarning
	}

	if tankType == "" {
		tankType = "standard"
	}

	return Analysis{
		Serial:          t.Serial,
		Material:        t.Material,
		DisplayName:     t.DisplayName,
		TankType:        tankType,
		LayersPrinted:   t.LayersPrinted,
		MaxLayers:       maxLayers,
		RemainingLayers: remaining,
		PercentUsed:     percentUsed,
		Severity:        severity,
		InsidePrinter:   t.InsidePrinter,
	}
}

// FormatStatus renders tank wear as a bot-friendly message, most worn
// first.
func FormatStatus(tanks []Tank) string {
	if len(tanks) == 0 {
		return "🪣 No tanks found."
	}

	analyses := make([]Analysis, 0, len(tanks))
	for _, t := range tanks {
		analyses = append(analyses, EstimateLife(t))
	}
	sort.SliceStable(analyses, func(i, j int) bool {
		return analyses[i].PercentUsed > analyses[j].PercentUsed
	})

	var b strings.Builder
	b.WriteString("🪣 *Tank Status*\n")
	b.WriteString(strings.Repeat("=", 28) + "\n\n")

	var critical, warning int
	for _, a := range analyses {
		icon := "🟢"
		switch a.Severity {
		case SeverityCritical:
			icon = "🔴"
			critical++
		case SeverityWarning:
			icon = "🟡"
			warning++
		}

		name := a.DisplayName
		if name == "" {
			name = a.Serial
			if len(name) > 12 {
				name = name[:12]
			}
		}

		b.WriteString(fmt.Sprintf("%s *%s*\n", icon, name))
		b.WriteString(fmt.Sprintf("   Material: %s\n", a.Material))
		b.WriteString(fmt.Sprintf("   Life: %s %.0f%%\n", ProgressBar(a.PercentUsed, 10), a.PercentUsed))
		b.WriteString(fmt.Sprintf("   Layers: %d/%d\n", a.LayersPrinted, a.MaxLayers))
		if a.InsidePrinter != "" {
			b.WriteString(fmt.Sprintf("   In: %s\n", a.InsidePrinter))
		}
		b.WriteString("\n")
	}

	if critical > 0 {
		b.WriteString(fmt.Sprintf("⚠️ %d tank(s) need replacement soon!\n", critical))
	}
	if warning > 0 {
		b.WriteString(fmt.Sprintf("💡 %d tank(s) approaching end of life.\n", warning))
	}

	return strings.TrimRight(b.String(), "\n")
}

// ProgressBar renders percent as a fixed-width block bar.
func ProgressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
