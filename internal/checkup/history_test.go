package checkup

import (
	"path/filepath"
	"testing"
	"time"
)

func sampleReport() Report {
	return Report{
		GeneratedAt: time.Now().UTC(),
		Failures:    1,
		Warnings:    1,
		Outcomes: []Outcome{
			{Name: "Cluster connectivity", Result: Pass("server version v1.31.0")},
			{Name: "Pod health", Result: Fail("1 of 2 pods unhealthy").WithDetails("api-0: CrashLoopBackOff")},
			{Name: "Web UI", Advisory: true, Result: Warn("returned status 503")},
		},
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	if err := appendHistory(path, sampleReport()); err != nil {
		t.Fatalf("appendHistory: %v", err)
	}
	entries, err := loadHistory(path, 10)
	if err != nil {
		t.Fatalf("loadHistory: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 run, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Failures != 1 || entry.Warnings != 1 || entry.Halted {
		t.Fatalf("counters not preserved: %+v", entry)
	}
	if len(entry.Outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(entry.Outcomes))
	}
	if entry.Outcomes[1].Result.Status != StatusFail {
		t.Fatalf("outcome order not preserved: %+v", entry.Outcomes)
	}
	if len(entry.Outcomes[1].Result.Details) != 1 {
		t.Fatalf("details not preserved: %+v", entry.Outcomes[1].Result)
	}
	if !entry.Outcomes[2].Advisory {
		t.Fatal("advisory flag not preserved")
	}
}

func TestHistoryLoadWithoutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	if _, err := loadHistory(path, 10); err == nil {
		t.Fatal("expected error when no history recorded yet")
	}
}

func TestHistoryDeleteCascadesToResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	if err := appendHistory(path, sampleReport()); err != nil {
		t.Fatalf("appendHistory: %v", err)
	}
	db, err := openHistoryDB(path)
	if err != nil {
		t.Fatalf("openHistoryDB: %v", err)
	}
	defer db.Close()

	var fk int
	if err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("read foreign_keys pragma: %v", err)
	}
	if fk != 1 {
		t.Fatal("foreign keys not enforced on pooled connections")
	}

	if _, err := db.Exec(`DELETE FROM verify_runs`); err != nil {
		t.Fatalf("delete runs: %v", err)
	}
	var orphans int
	if err := db.QueryRow(`SELECT COUNT(*) FROM verify_results`).Scan(&orphans); err != nil {
		t.Fatalf("count results: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("%d orphaned result rows left after deleting their runs", orphans)
	}
}
