package diff

import (
	"testing"
	"time"

	"github.com/reconctl/reconctl/internal/model"
)

func TestCompute_NewOpenPortIsHighSeverity(t *testing.T) {
	prev := model.Empty()
	curr := model.Empty()
	curr.AttackSurface.OpenPorts = []model.OpenPort{{Port: "22", Service: "ssh"}}

	d := Compute(prev, curr, "t0", "t1", time.Unix(0, 0))
	if d.Summary.Severity != model.SeverityHigh {
		t.Errorf("severity = %v, want high", d.Summary.Severity)
	}
	cs, ok := d.Changes["openPorts.port"]
	if !ok || len(cs.Added) != 1 || cs.Added[0] != "22" {
		t.Fatalf("openPorts.port changeset = %+v", cs)
	}
}

func TestCompute_VulnCountIncreaseIsCritical(t *testing.T) {
	prev := model.Empty()
	curr := model.Empty()
	curr.Security.Vulnerabilities.Count = 3

	d := Compute(prev, curr, "t0", "t1", time.Unix(0, 0))
	if d.Summary.Severity != model.SeverityCritical {
		t.Errorf("severity = %v, want critical", d.Summary.Severity)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	prev := model.Empty()
	prev.AttackSurface.Subdomains.List = []string{"a.example.com"}
	curr := model.Empty()
	curr.AttackSurface.Subdomains.List = []string{"a.example.com", "b.example.com", "c.example.com"}

	d1 := Compute(prev, curr, "t0", "t1", time.Unix(0, 0))
	d2 := Compute(prev, curr, "t0", "t1", time.Unix(0, 0))

	cs1 := d1.Changes["subdomains"]
	cs2 := d2.Changes["subdomains"]
	if len(cs1.Added) != len(cs2.Added) {
		t.Fatal("non-deterministic added set length")
	}
	for i := range cs1.Added {
		if cs1.Added[i] != cs2.Added[i] {
			t.Fatalf("non-deterministic ordering at %d: %q vs %q", i, cs1.Added[i], cs2.Added[i])
		}
	}
}

func TestCompute_NoChangesProducesEmptyDiff(t *testing.T) {
	fp := model.Empty()
	fp.Infrastructure.IPs.IPv4 = []string{"1.2.3.4"}

	d := Compute(fp, fp, "t0", "t1", time.Unix(0, 0))
	if len(d.Changes) != 0 {
		t.Errorf("expected no changes, got %+v", d.Changes)
	}
	if d.Summary.Severity != "" {
		t.Errorf("severity = %v, want empty", d.Summary.Severity)
	}
}

func TestCompute_NewDanglingCNAMEIsCritical(t *testing.T) {
	prev := model.Empty()
	curr := model.Empty()
	curr.AttackSurface.DanglingCNAMEs = []model.DanglingCNAME{
		{Host: "old.example.com", CNAME: "dead-bucket.s3.amazonaws.com", Status: "nxdomain"},
	}

	d := Compute(prev, curr, "t0", "t1", time.Unix(0, 0))
	if d.Summary.Severity != model.SeverityCritical {
		t.Errorf("severity = %v, want critical", d.Summary.Severity)
	}
	if !d.Summary.HasAttackSurfaceChanges {
		t.Error("expected HasAttackSurfaceChanges to be true")
	}
	cs, ok := d.Changes["danglingCnames"]
	if !ok || len(cs.Added) != 1 {
		t.Fatalf("danglingCnames changeset = %+v", cs)
	}
}

func TestCompute_CertificateRotationEmitsSANDelta(t *testing.T) {
	prev := model.Empty()
	prev.Infrastructure.Certificate = &model.Certificate{Fingerprint: "aaa", SANs: []string{"example.com"}}
	curr := model.Empty()
	curr.Infrastructure.Certificate = &model.Certificate{Fingerprint: "bbb", SANs: []string{"example.com", "www.example.com"}}

	d := Compute(prev, curr, "t0", "t1", time.Unix(0, 0))
	cs, ok := d.Changes["certificate"]
	if !ok {
		t.Fatal("expected a certificate changeset on rotation")
	}
	if len(cs.Added) != 1 || cs.Added[0] != "www.example.com" {
		t.Errorf("certificate SAN added = %v", cs.Added)
	}
	if d.Summary.Severity != model.SeverityMedium {
		t.Errorf("severity = %v, want medium", d.Summary.Severity)
	}
}
