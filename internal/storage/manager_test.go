package storage

import (
	"testing"
	"time"

	"github.com/reconctl/reconctl/internal/model"
)

func newTestReport(host, id string, ts time.Time, fp model.Fingerprint) model.Report {
	results := model.NewOrderedResults()
	results.Set("dns", model.NewOK(map[string]interface{}{"ipv4": fp.Infrastructure.IPs.IPv4}))
	return model.Report{
		ID:          id,
		Timestamp:   ts,
		Target:      model.Target{Original: host, Host: host, Protocol: "https"},
		Duration:    time.Second,
		Status:      "completed",
		Results:     results,
		Fingerprint: fp,
	}
}

func TestPersist_ComputesDiffAgainstPriorHostRow(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir, 10, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	ts0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ts1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	fp1 := model.Empty()
	fp1.AttackSurface.OpenPorts = []model.OpenPort{{Port: "22", Service: "ssh"}}
	if err := m.Persist(newTestReport("example.com", "t0", ts0, fp1)); err != nil {
		t.Fatalf("first persist: %v", err)
	}

	fp2 := model.Empty()
	fp2.AttackSurface.OpenPorts = []model.OpenPort{
		{Port: "22", Service: "ssh"},
		{Port: "8080", Service: "http"},
	}
	if err := m.Persist(newTestReport("example.com", "t1", ts1, fp2)); err != nil {
		t.Fatalf("second persist: %v", err)
	}

	var severity string
	row := m.records.db.QueryRow(`SELECT severity FROM diffs WHERE host = ? AND timestamp = ?`, "example.com", timestampSlug(ts1))
	if err := row.Scan(&severity); err != nil {
		t.Fatalf("query diff: %v", err)
	}
	if severity != string(model.SeverityHigh) {
		t.Errorf("severity = %q, want high (new open port)", severity)
	}
}

func TestPersist_FirstScanProducesNoDiff(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir, 10, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	if err := m.Persist(newTestReport("fresh.example.com", "t0", time.Now(), model.Empty())); err != nil {
		t.Fatalf("persist: %v", err)
	}

	var count int
	row := m.records.db.QueryRow(`SELECT COUNT(*) FROM diffs WHERE host = ?`, "fresh.example.com")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 0 {
		t.Errorf("diffs count = %d, want 0 on first scan", count)
	}
}

func TestPersist_IndexPruneBeyondHistoryLimit(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir, 2, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var slugs []string
	for i, id := range []string{"t0", "t1", "t2"} {
		ts := base.Add(time.Duration(i) * time.Hour)
		slugs = append(slugs, timestampSlug(ts))
		if err := m.Persist(newTestReport("prune.example.com", id, ts, model.Empty())); err != nil {
			t.Fatalf("persist %s: %v", id, err)
		}
	}

	entries, err := m.l2.readIndex("prune.example.com")
	if err != nil {
		t.Fatalf("readIndex: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("index length = %d, want 2", len(entries))
	}
	if entries[0].Timestamp != slugs[2] || entries[1].Timestamp != slugs[1] {
		t.Errorf("index order = %+v, want [%s, %s]", entries, slugs[2], slugs[1])
	}
}
