package documents

import (
	"context"
	"testing"
	"time"
)

func seed(t *testing.T, repo *MemoryRepo, id string, enabled bool, status string, due *time.Time) {
	t.Helper()
	err := repo.Create(context.Background(), Document{
		ID:                id,
		UserID:            "user-1",
		FileName:          id + ".md",
		StorageKey:        "user-1/" + id,
		MonitoringEnabled: enabled,
		MonitoringStatus:  status,
		NextScanDue:       due,
		CreatedAt:         time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func seedScanned(t *testing.T, repo *MemoryRepo, id, status string, due, lastScanned *time.Time) {
	t.Helper()
	err := repo.Create(context.Background(), Document{
		ID:                id,
		UserID:            "user-1",
		FileName:          id + ".md",
		StorageKey:        "user-1/" + id,
		MonitoringEnabled: true,
		MonitoringStatus:  status,
		NextScanDue:       due,
		LastScannedAt:     lastScanned,
		CreatedAt:         time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestMemoryRepoListDue(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	early := now.Add(-2 * time.Hour)
	late := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	seed(t, repo, "doc-early", true, MonitoringPending, &early)
	seed(t, repo, "doc-late", true, MonitoringCompliant, &late)
	seed(t, repo, "doc-future", true, MonitoringCompliant, &future)
	seed(t, repo, "doc-disabled", false, MonitoringPending, &early)
	seedScanned(t, repo, "doc-checking", MonitoringChecking, &early, &late)
	seed(t, repo, "doc-nil-due", true, MonitoringPending, nil)

	due, err := repo.ListDue(context.Background(), now, 10)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	if len(due) != 3 {
		t.Fatalf("expected 3 due documents, got %d: %+v", len(due), due)
	}
	// nil due sorts first, then oldest due date.
	if due[0].ID != "doc-nil-due" || due[1].ID != "doc-early" || due[2].ID != "doc-late" {
		t.Fatalf("unexpected order: %s, %s, %s", due[0].ID, due[1].ID, due[2].ID)
	}
}

func TestMemoryRepoListDueHonorsLimit(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	seed(t, repo, "doc-1", true, MonitoringPending, &past)
	seed(t, repo, "doc-2", true, MonitoringPending, &past)
	seed(t, repo, "doc-3", true, MonitoringPending, &past)

	due, err := repo.ListDue(context.Background(), now, 2)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(due))
	}
}

func TestMemoryRepoListDueRecoversStaleChecking(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	recent := now.Add(-time.Minute)
	stale := now.Add(-CheckingStaleAfter - time.Minute)

	seedScanned(t, repo, "doc-fresh", MonitoringChecking, &past, &recent)
	seedScanned(t, repo, "doc-stale", MonitoringChecking, &past, &stale)
	seedScanned(t, repo, "doc-never-scanned", MonitoringChecking, &past, nil)

	due, err := repo.ListDue(context.Background(), now, 10)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 due documents, got %d: %+v", len(due), due)
	}
	for _, doc := range due {
		if doc.ID == "doc-fresh" {
			t.Fatalf("document with a recent pass should not be offered again")
		}
	}
}

func TestMemoryRepoUpdateMonitoringResult(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	seed(t, repo, "doc-1", true, MonitoringChecking, nil)

	next := now.AddDate(0, 0, 3)
	if err := repo.UpdateMonitoringResult(context.Background(), "doc-1", MonitoringNonCompliant, 72, now, next); err != nil {
		t.Fatalf("UpdateMonitoringResult: %v", err)
	}

	doc, err := repo.GetForScan(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetForScan: %v", err)
	}
	if doc.MonitoringStatus != MonitoringNonCompliant || doc.RiskScore != 72 {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.LastScannedAt == nil || !doc.LastScannedAt.Equal(now) {
		t.Fatalf("expected last scanned %s, got %v", now, doc.LastScannedAt)
	}
	if doc.NextScanDue == nil || !doc.NextScanDue.Equal(next) {
		t.Fatalf("expected next scan %s, got %v", next, doc.NextScanDue)
	}
}

func TestMemoryRepoUpdateMonitoringStatusUnknownDocument(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.UpdateMonitoringStatus(context.Background(), "missing", MonitoringError); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
