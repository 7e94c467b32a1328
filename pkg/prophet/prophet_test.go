package prophet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openclaw/resinprophet/pkg/store"
)

func setupProphet(t *testing.T) (*Prophet, *store.Store) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "resinprophet-engine-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	st, err := store.NewStore(filepath.Join(tmpDir, "resinprophet.db"))
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("NewStore failed: %v", err)
	}

	t.Cleanup(func() {
		st.Close()
		os.RemoveAll(tmpDir)
	})

	return New(st, DefaultCatalog(), nil), st
}

func register(t *testing.T, p *Prophet, id, material, tenant string, initial, current float64) {
	t.Helper()
	_, err := p.RegisterCartridge(context.Background(), RegisterCartridgeParams{
		CartridgeID:     id,
		MaterialCode:    material,
		TenantID:        tenant,
		InitialVolumeML: initial,
		CurrentVolumeML: current,
	})
	if err != nil {
		t.Fatalf("RegisterCartridge failed: %v", err)
	}
}

func TestRegisterCartridgeDefaults(t *testing.T) {
	p, _ := setupProphet(t)
	ctx := context.Background()

	c, err := p.RegisterCartridge(ctx, RegisterCartridgeParams{
		MaterialCode: "FLGPGR05",
		TenantID:     "tenant_a",
	})
	if err != nil {
		t.Fatalf("RegisterCartridge failed: %v", err)
	}
	if c.ID == "" {
		t.Error("expected a generated cartridge ID")
	}
	if c.InitialVolumeML != 1000 || c.CurrentVolumeML != 1000 {
		t.Errorf("expected 1000ml defaults, got %f/%f", c.InitialVolumeML, c.CurrentVolumeML)
	}
	if c.MaterialName != "Grey V5" {
		t.Errorf("expected catalog name Grey V5, got %q", c.MaterialName)
	}
	if c.Status != store.CartridgeActive {
		t.Errorf("expected active status, got %s", c.Status)
	}
}

func TestPredictBoundaryAtTwentyPercent(t *testing.T) {
	// 200/1000 = exactly 20%: the info band starts at 20, and the
	// status bands put 20 in active, not low.
	p, _ := setupProphet(t)
	register(t, p, "cart_001", "FLGPGR05", "tenant_a", 1000, 200)

	pred, err := p.Predict(context.Background(), "cart_001", "tenant_a")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.PercentRemaining != 20 {
		t.Fatalf("expected 20%%, got %f", pred.PercentRemaining)
	}
	if pred.AlertLevel != AlertInfo {
		t.Errorf("expected info alert at exactly 20%%, got %s", pred.AlertLevel)
	}
	if pred.Status != store.CartridgeActive {
		t.Errorf("expected active status at exactly 20%%, got %s", pred.Status)
	}
}

func TestPredictEmptyCartridge(t *testing.T) {
	p, _ := setupProphet(t)
	register(t, p, "cart_empty", "FLGPGR05", "tenant_a", 1000, 0)

	pred, err := p.Predict(context.Background(), "cart_empty", "tenant_a")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.PercentRemaining != 0 {
		t.Errorf("expected 0%%, got %f", pred.PercentRemaining)
	}
	if pred.Status != store.CartridgeEmpty {
		t.Errorf("expected empty status, got %s", pred.Status)
	}
	if pred.AlertLevel != AlertCritical {
		t.Errorf("expected critical alert, got %s", pred.AlertLevel)
	}
	if pred.PrintsRemaining != 0 {
		t.Errorf("expected 0 prints remaining, got %d", pred.PrintsRemaining)
	}
}

func TestPredictPersistsStatus(t *testing.T) {
	p, st := setupProphet(t)
	register(t, p, "cart_low", "FLGPGR05", "tenant_a", 1000, 150)

	if _, err := p.Predict(context.Background(), "cart_low", "tenant_a"); err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	got, err := st.GetCartridge(context.Background(), "cart_low")
	if err != nil {
		t.Fatalf("GetCartridge failed: %v", err)
	}
	if got.Status != store.CartridgeLow {
		t.Errorf("expected persisted low status, got %s", got.Status)
	}
}

func TestPredictIdempotent(t *testing.T) {
	p, _ := setupProphet(t)
	register(t, p, "cart_001", "FLGPGR05", "tenant_a", 1000, 150)
	ctx := context.Background()

	first, err := p.Predict(ctx, "cart_001", "tenant_a")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	second, err := p.Predict(ctx, "cart_001", "tenant_a")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if first.AlertLevel != second.AlertLevel || first.Status != second.Status ||
		first.PercentRemaining != second.PercentRemaining ||
		first.PrintsRemaining != second.PrintsRemaining {
		t.Errorf("predict is not idempotent: %+v vs %+v", first, second)
	}
}

func TestPredictTenantIsolation(t *testing.T) {
	p, _ := setupProphet(t)
	register(t, p, "cart_001", "FLGPGR05", "tenant_a", 1000, 500)
	ctx := context.Background()

	if _, err := p.Predict(ctx, "cart_001", "tenant_a"); err != nil {
		t.Fatalf("owner predict failed: %v", err)
	}
	_, err := p.Predict(ctx, "cart_001", "tenant_b")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign tenant, got %v", err)
	}
}

func TestPredictQueuedJobs(t *testing.T) {
	p, st := setupProphet(t)
	register(t, p, "cart_001", "FLGPGR05", "tenant_a", 1000, 500)
	ctx := context.Background()
	now := time.Now().UTC()

	jobs := []*store.PrintJob{
		{ID: "j1", MaterialCode: "FLGPGR05", EstimatedResinML: 40, Status: store.JobQueued, TenantID: "tenant_a", CreatedAt: now},
		{ID: "j2", MaterialCode: "FLGPGR05", EstimatedResinML: 35, Status: store.JobPrinting, TenantID: "tenant_a", CreatedAt: now},
		{ID: "j3", MaterialCode: "FLGPGR05", EstimatedResinML: 99, Status: store.JobCompleted, TenantID: "tenant_a", CreatedAt: now},
		{ID: "j4", MaterialCode: "FLTO2K02", EstimatedResinML: 50, Status: store.JobQueued, TenantID: "tenant_a", CreatedAt: now},
	}
	for _, j := range jobs {
		if err := st.UpsertPrintJob(ctx, j); err != nil {
			t.Fatalf("UpsertPrintJob failed: %v", err)
		}
	}

	pred, err := p.Predict(ctx, "cart_001", "tenant_a")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.QueuedJobsCount != 2 {
		t.Errorf("expected 2 queued jobs, got %d", pred.QueuedJobsCount)
	}
	if pred.QueuedJobsVolumeML != 75 {
		t.Errorf("expected 75ml queued, got %f", pred.QueuedJobsVolumeML)
	}
}

func TestPredictDegradesWithoutHistory(t *testing.T) {
	p, _ := setupProphet(t)
	register(t, p, "cart_001", "FLGPGR05", "tenant_a", 1000, 900)

	pred, err := p.Predict(context.Background(), "cart_001", "tenant_a")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.DaysRemaining != nil {
		t.Errorf("expected nil days remaining without history, got %f", *pred.DaysRemaining)
	}
	if pred.DepletionDate != nil {
		t.Errorf("expected nil depletion date without history")
	}
	// Prints remaining still works off the catalog default (45ml)
	if pred.PrintsRemaining != 20 {
		t.Errorf("expected 20 prints remaining (900/45), got %d", pred.PrintsRemaining)
	}
}

func TestPredictDaysRemainingFromLedger(t *testing.T) {
	p, _ := setupProphet(t)
	register(t, p, "cart_001", "FLGPGR05", "tenant_a", 1000, 500)
	ctx := context.Background()

	// One ledger day of 50ml -> burn rate 50 ml/day -> 10 days left.
	if ok, err := p.Consume(ctx, "cart_001", 50, "tenant_a"); err != nil || !ok {
		t.Fatalf("Consume failed: ok=%v err=%v", ok, err)
	}

	pred, err := p.Predict(ctx, "cart_001", "tenant_a")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.DaysRemaining == nil {
		t.Fatal("expected a days-remaining estimate")
	}
	if *pred.DaysRemaining != 9 { // 450ml left / 50 ml/day
		t.Errorf("expected 9 days remaining, got %f", *pred.DaysRemaining)
	}
	if pred.DepletionDate == nil {
		t.Error("expected a depletion date")
	}
}

func TestConsumeFloorsBalanceButNotLedger(t *testing.T) {
	p, st := setupProphet(t)
	register(t, p, "cart_45", "FLGPGR05", "tenant_a", 1000, 45)
	ctx := context.Background()

	ok, err := p.Consume(ctx, "cart_45", 100, "tenant_a")
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if !ok {
		t.Fatal("expected consume to succeed")
	}

	got, err := st.GetCartridge(ctx, "cart_45")
	if err != nil {
		t.Fatalf("GetCartridge failed: %v", err)
	}
	if got.CurrentVolumeML != 0 {
		t.Errorf("expected balance floored at 0, got %f", got.CurrentVolumeML)
	}

	// The ledger records the requested volume unclamped.
	history, err := st.GetUsageHistory(ctx, "tenant_a", "FLGPGR05", 7)
	if err != nil {
		t.Fatalf("GetUsageHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one ledger row, got %d", len(history))
	}
	if history[0].VolumeML != 100 || history[0].PrintCount != 1 {
		t.Errorf("expected 100ml/1 print recorded, got %f/%d", history[0].VolumeML, history[0].PrintCount)
	}
}

func TestConsumeNegativeVolume(t *testing.T) {
	p, st := setupProphet(t)
	register(t, p, "cart_001", "FLGPGR05", "tenant_a", 1000, 500)
	ctx := context.Background()

	ok, err := p.Consume(ctx, "cart_001", -25, "tenant_a")
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if !ok {
		t.Fatal("expected consume to succeed")
	}

	got, err := st.GetCartridge(ctx, "cart_001")
	if err != nil {
		t.Fatalf("GetCartridge failed: %v", err)
	}
	if got.CurrentVolumeML != 500 {
		t.Errorf("negative volume must not add resin: got %f", got.CurrentVolumeML)
	}

	history, err := st.GetUsageHistory(ctx, "tenant_a", "FLGPGR05", 7)
	if err != nil {
		t.Fatalf("GetUsageHistory failed: %v", err)
	}
	if len(history) != 1 || history[0].VolumeML != 0 || history[0].PrintCount != 1 {
		t.Errorf("expected a zero-volume row with one print, got %+v", history)
	}
}

func TestConsumeTenantMismatch(t *testing.T) {
	p, st := setupProphet(t)
	register(t, p, "cart_001", "FLGPGR05", "tenant_a", 1000, 500)
	ctx := context.Background()

	ok, err := p.Consume(ctx, "cart_001", 50, "tenant_b")
	if err != nil {
		t.Fatalf("cross-tenant consume must not error: %v", err)
	}
	if ok {
		t.Error("cross-tenant consume must fail silently")
	}

	ok, err = p.Consume(ctx, "cart_missing", 50, "tenant_a")
	if err != nil || ok {
		t.Errorf("missing cartridge must return (false, nil), got (%v, %v)", ok, err)
	}

	got, err := st.GetCartridge(ctx, "cart_001")
	if err != nil {
		t.Fatalf("GetCartridge failed: %v", err)
	}
	if got.CurrentVolumeML != 500 {
		t.Errorf("denied consume must not change the balance, got %f", got.CurrentVolumeML)
	}
}

func TestAllPredictionsSeverityOrder(t *testing.T) {
	p, _ := setupProphet(t)
	ctx := context.Background()

	// Registered in reverse severity order to prove the sort.
	register(t, p, "cart_fine", "FLGPGR05", "tenant_a", 1000, 500)    // 50% none
	register(t, p, "cart_info", "FLGPBK05", "tenant_a", 1000, 250)    // 25% info
	register(t, p, "cart_warn", "FLGPCL05", "tenant_a", 1000, 150)    // 15% warning
	register(t, p, "cart_crit", "FLTO2K02", "tenant_a", 1000, 50)     // 5% critical
	register(t, p, "cart_foreign", "FLGPGR05", "tenant_b", 1000, 10)

	predictions, err := p.AllPredictions(ctx, "tenant_a")
	if err != nil {
		t.Fatalf("AllPredictions failed: %v", err)
	}
	if len(predictions) != 4 {
		t.Fatalf("expected 4 predictions, got %d", len(predictions))
	}

	wantOrder := []string{"cart_crit", "cart_warn", "cart_info", "cart_fine"}
	for i, want := range wantOrder {
		if predictions[i].CartridgeID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, predictions[i].CartridgeID)
		}
	}

	wantLevels := []AlertLevel{AlertCritical, AlertWarning, AlertInfo, AlertNone}
	for i, want := range wantLevels {
		if predictions[i].AlertLevel != want {
			t.Errorf("position %d: expected %s alert, got %s", i, want, predictions[i].AlertLevel)
		}
	}
}

func TestAllPredictionsStableTies(t *testing.T) {
	p, _ := setupProphet(t)
	ctx := context.Background()

	register(t, p, "cart_a", "FLGPGR05", "tenant_a", 1000, 500)
	register(t, p, "cart_b", "FLGPBK05", "tenant_a", 1000, 600)
	register(t, p, "cart_c", "FLGPCL05", "tenant_a", 1000, 700)

	predictions, err := p.AllPredictions(ctx, "tenant_a")
	if err != nil {
		t.Fatalf("AllPredictions failed: %v", err)
	}
	var order []string
	for _, pred := range predictions {
		order = append(order, pred.CartridgeID)
	}
	want := []string{"cart_a", "cart_b", "cart_c"}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("tie order not stable: got %v, want %v", order, want)
			break
		}
	}
}
