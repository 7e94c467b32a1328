// Package reports renders predictions and ledger data into
// human-readable summaries for the bot layer. All formatters are pure
// functions: no store access, no side effects.
package reports

import (
	"fmt"
	"strings"

	"github.com/openclaw/resinprophet/pkg/prophet"
	"github.com/openclaw/resinprophet/pkg/store"
)

const divider = "=============================="

// FormatStatus renders the full fleet view. Predictions are expected
// in severity order (AllPredictions already sorts them).
func FormatStatus(predictions []*prophet.Prediction) string {
	if len(predictions) == 0 {
		return "📭 No resin cartridges registered.\nUse /resin_add to register a cartridge."
	}

	var b strings.Builder
	b.WriteString("🧪 *Resin Status*\n")
	b.WriteString(divider + "\n\n")

	for _, pred := range predictions {
		b.WriteString(fmt.Sprintf("%s *%s*\n", statusEmoji(pred.Status), pred.MaterialName))
		b.WriteString(fmt.Sprintf("   %.1f%% remaining (%.0fml)\n", pred.PercentRemaining, pred.CurrentVolumeML))

		if pred.DaysRemaining != nil {
			b.WriteString(fmt.Sprintf("   ~%.1f days left\n", *pred.DaysRemaining))
		}
		if pred.QueuedJobsCount > 0 {
			b.WriteString(fmt.Sprintf("   📋 %d jobs queued (%.0fml)\n", pred.QueuedJobsCount, pred.QueuedJobsVolumeML))
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatAlerts renders only warning and critical predictions.
func FormatAlerts(predictions []*prophet.Prediction) string {
	var alerts []*prophet.Prediction
	for _, pred := range predictions {
		if pred.AlertLevel == prophet.AlertWarning || pred.AlertLevel == prophet.AlertCritical {
			alerts = append(alerts, pred)
		}
	}

	if len(alerts) == 0 {
		return "✅ All resin levels OK. No alerts."
	}

	var b strings.Builder
	b.WriteString("🚨 *Resin Alerts*\n")
	b.WriteString(divider + "\n\n")
	for _, pred := range alerts {
		b.WriteString(pred.AlertMessage)
		b.WriteString("\n\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatRegistration renders the confirmation for a newly registered
// cartridge.
func FormatRegistration(c *store.Cartridge) string {
	if c == nil {
		return "Nothing registered."
	}
	return fmt.Sprintf(
		"✅ Cartridge registered\n\n"+
			"ID: `%s`\n"+
			"Material: %s\n"+
			"Volume: %.0fml\n"+
			"Status: %s",
		c.ID, c.MaterialName, c.InitialVolumeML, c.Status,
	)
}

func statusEmoji(status store.CartridgeStatus) string {
	switch status {
	case store.CartridgeCritical:
		return "🚨"
	case store.CartridgeLow:
		return "🔶"
	case store.CartridgeActive:
		return "✅"
	default:
		return "⬜"
	}
}
