package store

import (
	"context"
	"testing"
	"time"
)

func testJob(id, tenantID, material string, status JobStatus, createdAt time.Time) *PrintJob {
	return &PrintJob{
		ID:               id,
		MaterialCode:     material,
		EstimatedResinML: 45,
		Status:           status,
		TenantID:         tenantID,
		CreatedAt:        createdAt,
	}
}

func TestListActiveJobsFIFO(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	jobs := []*PrintJob{
		testJob("job_2", "tenant_a", "FLGPGR05", JobQueued, base.Add(2*time.Minute)),
		testJob("job_1", "tenant_a", "FLGPGR05", JobPrinting, base.Add(1*time.Minute)),
		testJob("job_3", "tenant_a", "FLGPGR05", JobQueued, base.Add(3*time.Minute)),
		testJob("job_done", "tenant_a", "FLGPGR05", JobCompleted, base),
		testJob("job_failed", "tenant_a", "FLGPGR05", JobFailed, base),
		testJob("job_other_mat", "tenant_a", "FLTO2K02", JobQueued, base),
		testJob("job_other_tenant", "tenant_b", "FLGPGR05", JobQueued, base),
	}
	for _, j := range jobs {
		if err := store.UpsertPrintJob(ctx, j); err != nil {
			t.Fatalf("UpsertPrintJob failed: %v", err)
		}
	}

	active, err := store.ListActiveJobs(ctx, "tenant_a", "FLGPGR05")
	if err != nil {
		t.Fatalf("ListActiveJobs failed: %v", err)
	}
	if len(active) != 3 {
		t.Fatalf("expected 3 active jobs, got %d", len(active))
	}
	// Oldest first
	wantOrder := []string{"job_1", "job_2", "job_3"}
	for i, want := range wantOrder {
		if active[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, active[i].ID)
		}
	}
}

func TestListActiveJobsAllMaterials(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.UpsertPrintJob(ctx, testJob("job_a", "tenant_a", "FLGPGR05", JobQueued, now)); err != nil {
		t.Fatalf("UpsertPrintJob failed: %v", err)
	}
	if err := store.UpsertPrintJob(ctx, testJob("job_b", "tenant_a", "FLTO2K02", JobQueued, now)); err != nil {
		t.Fatalf("UpsertPrintJob failed: %v", err)
	}

	active, err := store.ListActiveJobs(ctx, "tenant_a", "")
	if err != nil {
		t.Fatalf("ListActiveJobs failed: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("expected 2 jobs across materials, got %d", len(active))
	}
}

func TestUpsertPrintJobRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	started := time.Now().UTC().Add(-30 * time.Minute)
	actual := 42.5
	j := testJob("job_rt", "tenant_a", "FLDUCL21", JobPrinting, time.Now().UTC().Add(-time.Hour))
	j.StartedAt = &started
	j.ActualResinML = &actual
	j.PrinterID = "Form4-002"

	if err := store.UpsertPrintJob(ctx, j); err != nil {
		t.Fatalf("UpsertPrintJob failed: %v", err)
	}

	active, err := store.ListActiveJobs(ctx, "tenant_a", "FLDUCL21")
	if err != nil {
		t.Fatalf("ListActiveJobs failed: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 job, got %d", len(active))
	}
	got := active[0]
	if got.ActualResinML == nil || *got.ActualResinML != 42.5 {
		t.Errorf("actual resin not round-tripped: %v", got.ActualResinML)
	}
	if got.StartedAt == nil {
		t.Errorf("started_at not round-tripped")
	}
	if got.PrinterID != "Form4-002" {
		t.Errorf("printer not round-tripped: %q", got.PrinterID)
	}
	if got.CompletedAt != nil {
		t.Errorf("expected nil completed_at, got %v", got.CompletedAt)
	}
}
