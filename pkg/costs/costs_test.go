package costs

import (
	"strings"
	"testing"

	"github.com/openclaw/resinprophet/pkg/prophet"
)

func TestEstimatePrintCost(t *testing.T) {
	e := NewEstimator(prophet.DefaultCatalog())

	// 100ml of Grey V5 at $149/L is $14.90 of resin, plus two hours
	// of electricity at $0.05/h.
	cost := e.EstimatePrintCost(100, "FLGPGR05", 2*3_600_000)

	if cost.ResinCostUSD != 14.90 {
		t.Errorf("expected resin cost 14.90, got %.2f", cost.ResinCostUSD)
	}
	if cost.ElectricityCostUSD != 0.10 {
		t.Errorf("expected electricity cost 0.10, got %.2f", cost.ElectricityCostUSD)
	}
	if cost.TotalCostUSD != 15.00 {
		t.Errorf("expected total 15.00, got %.2f", cost.TotalCostUSD)
	}
	if cost.PricePerLiter != 149 {
		t.Errorf("expected price 149, got %.2f", cost.PricePerLiter)
	}
}

func TestEstimatePrintCostZeroDuration(t *testing.T) {
	e := NewEstimator(prophet.DefaultCatalog())
	cost := e.EstimatePrintCost(50, "FLTO2K02", 0)

	if cost.ElectricityCostUSD != 0 {
		t.Errorf("expected zero electricity cost, got %.2f", cost.ElectricityCostUSD)
	}
	// 50ml at $189/L
	if cost.TotalCostUSD != 9.45 {
		t.Errorf("expected total 9.45, got %.2f", cost.TotalCostUSD)
	}
}

func TestEstimatePrintCostUnknownMaterial(t *testing.T) {
	e := NewEstimator(prophet.DefaultCatalog())
	cost := e.EstimatePrintCost(100, "UNKNOWN99", 0)

	if cost.PricePerLiter != prophet.FallbackPricePerLiter {
		t.Errorf("expected fallback price, got %.2f", cost.PricePerLiter)
	}
	if cost.ResinCostUSD != 14.90 {
		t.Errorf("expected resin cost 14.90, got %.2f", cost.ResinCostUSD)
	}
}

func TestSummarize(t *testing.T) {
	e := NewEstimator(prophet.DefaultCatalog())

	summary := e.Summarize([]PrintRun{
		{VolumeML: 100, MaterialCode: "FLGPGR05"},
		{VolumeML: 50, MaterialCode: "FLGPGR05"},
		{VolumeML: 0, MaterialCode: "FLGPGR05"}, // skipped
		{VolumeML: 100, MaterialCode: "FLTO2K02", MaterialName: "Tough 2000 V2"},
	})

	if summary.TotalPrints != 3 {
		t.Errorf("expected 3 prints, got %d", summary.TotalPrints)
	}
	if summary.TotalVolumeML != 250 {
		t.Errorf("expected 250ml, got %.1f", summary.TotalVolumeML)
	}
	// 150ml grey = 22.35, 100ml tough = 18.90
	if summary.TotalCostUSD != 41.25 {
		t.Errorf("expected total 41.25, got %.2f", summary.TotalCostUSD)
	}
	if summary.AvgCostPerPrint != 13.75 {
		t.Errorf("expected avg 13.75, got %.2f", summary.AvgCostPerPrint)
	}

	grey := summary.ByMaterial["FLGPGR05"]
	if grey.Count != 2 || grey.VolumeML != 150 {
		t.Errorf("unexpected grey breakdown: %+v", grey)
	}
	if grey.MaterialName != "Grey V5" {
		t.Errorf("expected catalog name, got %q", grey.MaterialName)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	e := NewEstimator(prophet.DefaultCatalog())
	summary := e.Summarize(nil)

	if summary.TotalPrints != 0 || summary.AvgCostPerPrint != 0 {
		t.Errorf("expected zero summary, got %+v", summary)
	}
}

func TestFormatSummary(t *testing.T) {
	e := NewEstimator(prophet.DefaultCatalog())
	summary := e.Summarize([]PrintRun{
		{VolumeML: 100, MaterialCode: "FLGPGR05"},
		{VolumeML: 200, MaterialCode: "FLTO2K02"},
	})

	got := FormatSummary(summary)
	if !strings.Contains(got, "Cost Summary") {
		t.Errorf("expected header, got %q", got)
	}
	if !strings.Contains(got, "Prints: 2") {
		t.Errorf("expected print count, got %q", got)
	}

	// 200ml of Tough 2000 ($37.80) outranks 100ml of Grey ($14.90).
	toughIdx := strings.Index(got, "Tough 2000 V2")
	greyIdx := strings.Index(got, "Grey V5")
	if toughIdx < 0 || greyIdx < 0 || toughIdx > greyIdx {
		t.Errorf("expected most expensive material first, got %q", got)
	}
}
