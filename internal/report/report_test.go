package report

import (
	"strings"
	"testing"
	"time"

	"github.com/reconctl/reconctl/internal/model"
)

func sampleReport() model.Report {
	fp := model.Empty()
	fp.Infrastructure.IPs.IPv4 = []string{"93.184.216.34"}
	fp.AttackSurface.OpenPorts = []model.OpenPort{{Port: "443", Service: "https"}}
	fp.AttackSurface.Subdomains = model.SubdomainSet{Total: 1, List: []string{"www.example.com"}}
	fp.Technologies.Detected = []string{"nginx"}
	fp.Security.TLS.Grade = "A"

	return model.Report{
		ID:          "2026-07-30T00-00-00Z",
		Timestamp:   time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC),
		Target:      model.Target{Original: "example.com", Host: "example.com", Protocol: "https"},
		Duration:    2 * time.Second,
		Status:      "completed",
		Results:     model.NewOrderedResults(),
		Fingerprint: fp,
	}
}

func TestGenerateJSON_RoundTrips(t *testing.T) {
	r := sampleReport()
	out, err := GenerateJSON(r)
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if !strings.Contains(out, "93.184.216.34") {
		t.Errorf("json output missing IP: %s", out)
	}
}

func TestGenerateMarkdown_ContainsKeySections(t *testing.T) {
	md := GenerateMarkdown(sampleReport())
	for _, want := range []string{"# Scan Report: example.com", "## Summary", "## Attack Surface", "nginx", "www.example.com"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestGenerateHTML_EscapesUntrustedFields(t *testing.T) {
	r := sampleReport()
	r.Status = "<script>alert(1)</script>"
	htmlOut := GenerateHTML(r)
	if strings.Contains(htmlOut, "<script>alert(1)</script>") {
		t.Error("HTML report did not escape attacker-controlled status field")
	}
	if !strings.Contains(htmlOut, "example.com") {
		t.Error("HTML report missing target host")
	}
}
