package storage

import (
	"testing"
	"time"

	"github.com/reconctl/reconctl/internal/model"
)

func TestGetReport_RoundTripsAndRejectsUnknownID(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir, 10, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	fp := model.Empty()
	fp.Infrastructure.IPs.IPv4 = []string{"93.184.216.34"}
	if err := m.Persist(newTestReport("example.com", "t0", time.Now(), fp)); err != nil {
		t.Fatalf("persist: %v", err)
	}

	got, err := m.GetReport("t0")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.Target.Host != "example.com" {
		t.Errorf("host = %q, want example.com", got.Target.Host)
	}

	if _, err := m.GetReport("does-not-exist"); err != ErrReportNotFound {
		t.Errorf("GetReport(unknown) err = %v, want ErrReportNotFound", err)
	}
}

func TestListReports_FiltersByHostAndOrdersMostRecentFirst(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir, 10, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fp := model.Empty()
	if err := m.Persist(newTestReport("a.example.com", "t0", base, fp)); err != nil {
		t.Fatalf("persist a/t0: %v", err)
	}
	if err := m.Persist(newTestReport("b.example.com", "t1", base.Add(time.Hour), fp)); err != nil {
		t.Fatalf("persist b/t1: %v", err)
	}
	if err := m.Persist(newTestReport("a.example.com", "t2", base.Add(2*time.Hour), fp)); err != nil {
		t.Fatalf("persist a/t2: %v", err)
	}

	all, err := m.ListReports(ListOptions{})
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}

	scoped, err := m.GetReportsByHost("a.example.com", ListOptions{})
	if err != nil {
		t.Fatalf("GetReportsByHost: %v", err)
	}
	if len(scoped) != 2 {
		t.Fatalf("len(scoped) = %d, want 2", len(scoped))
	}
	if scoped[0].ID != "t2" {
		t.Errorf("scoped[0].ID = %q, want t2 (most recent first)", scoped[0].ID)
	}
}

func TestCompareReports_ComputesDiffBetweenTwoPersistedReports(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir, 10, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	fp1 := model.Empty()
	fp1.AttackSurface.OpenPorts = []model.OpenPort{{Port: "22", Service: "ssh"}}
	if err := m.Persist(newTestReport("example.com", "t0", time.Now(), fp1)); err != nil {
		t.Fatalf("persist t0: %v", err)
	}

	fp2 := model.Empty()
	fp2.AttackSurface.OpenPorts = []model.OpenPort{{Port: "22", Service: "ssh"}, {Port: "80", Service: "http"}}
	if err := m.Persist(newTestReport("example.com", "t1", time.Now(), fp2)); err != nil {
		t.Fatalf("persist t1: %v", err)
	}

	d, err := m.CompareReports("t0", "t1")
	if err != nil {
		t.Fatalf("CompareReports: %v", err)
	}
	if d.Summary.Severity == "" {
		t.Error("expected a non-empty severity for a new open port")
	}
}
