package fingerprint

import (
	"testing"

	"github.com/reconctl/reconctl/internal/model"
)

func TestBuild_OnlyCopiesOKStages(t *testing.T) {
	results := model.NewOrderedResults()
	results.Set("dns", model.NewOK(map[string]interface{}{
		"ipv4": []string{"1.2.3.4"},
		"ipv6": []string{},
		"nameservers": []string{"ns1.example.com"},
		"mailServers": []string{},
		"txtRecords": []string{},
	}))
	results.Set("certificate", model.NewError("dial", errPlaceholder{}))

	fp := Build(results)

	if len(fp.Infrastructure.IPs.IPv4) != 1 || fp.Infrastructure.IPs.IPv4[0] != "1.2.3.4" {
		t.Errorf("IPv4 = %v", fp.Infrastructure.IPs.IPv4)
	}
	if fp.Infrastructure.Certificate != nil {
		t.Errorf("expected no certificate from an error-status stage, got %+v", fp.Infrastructure.Certificate)
	}
}

func TestBuild_NeverNilListFields(t *testing.T) {
	fp := Build(model.NewOrderedResults())
	if fp.Infrastructure.IPs.IPv4 == nil {
		t.Error("IPv4 should be [] not nil")
	}
	if fp.AttackSurface.Subdomains.List == nil {
		t.Error("Subdomains.List should be [] not nil")
	}
}

func TestBuild_FoldsDanglingCNAMEFromDNSStage(t *testing.T) {
	results := model.NewOrderedResults()
	results.Set("dns", model.NewOK(map[string]interface{}{
		"ipv4": []string{},
		"ipv6": []string{},
		"nameservers": []string{},
		"mailServers": []string{},
		"txtRecords": []string{},
		"danglingCNAME": map[string]interface{}{
			"host": "old.example.com", "cname": "dead.s3.amazonaws.com", "status": "nxdomain",
		},
	}))

	fp := Build(results)

	if len(fp.AttackSurface.DanglingCNAMEs) != 1 {
		t.Fatalf("DanglingCNAMEs = %+v, want 1 entry", fp.AttackSurface.DanglingCNAMEs)
	}
	got := fp.AttackSurface.DanglingCNAMEs[0]
	if got.Host != "old.example.com" || got.CNAME != "dead.s3.amazonaws.com" || got.Status != "nxdomain" {
		t.Errorf("DanglingCNAMEs[0] = %+v", got)
	}
}

func TestCaseFolder_PreservesFirstSeenCasing(t *testing.T) {
	cf := newCaseFolder()
	cf.add("WordPress")
	cf.add("wordpress")
	out := cf.sortedDisplay([]string{"WordPress", "wordpress"})
	if len(out) != 1 || out[0] != "WordPress" {
		t.Errorf("sortedDisplay = %v, want [WordPress]", out)
	}
}

type errPlaceholder struct{}

func (errPlaceholder) Error() string { return "dial failed" }
