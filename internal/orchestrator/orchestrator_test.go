package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/reconctl/reconctl/internal/events"
)

func allStagesDisabled() map[string]interface{} {
	names := []string{
		"dns", "certificate", "whois", "latency", "http", "ports",
		"subdomains", "webDiscovery", "vulnerability", "tlsAudit",
		"fingerprint", "screenshot", "osint", "asn", "dnsdumpster",
	}
	features := make(map[string]interface{}, len(names))
	for _, n := range names {
		features[n] = false
	}
	return map[string]interface{}{"features": features}
}

func TestScan_InvalidTargetFailsFast(t *testing.T) {
	o := New(events.New(), nil, nil, nil, nil, nil)
	_, err := o.Scan(context.Background(), "   ", Options{Behavior: "passive"})
	if err == nil {
		t.Fatal("expected error for blank target")
	}
}

func TestScan_AllStagesDisabledStillCompletes(t *testing.T) {
	o := New(events.New(), nil, nil, nil, nil, nil)
	report, err := o.Scan(context.Background(), "example.com", Options{
		Behavior: "passive",
		Config:   allStagesDisabled(),
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if report.Status != "completed" {
		t.Errorf("status = %q, want completed", report.Status)
	}
	if report.Results.Len() != 0 {
		t.Errorf("expected no stage results with every stage disabled, got %d", report.Results.Len())
	}
	if report.ID == "" {
		t.Error("expected a non-empty report ID")
	}
}

func TestScan_EmitsCompletedEvent(t *testing.T) {
	bus := events.New()
	done := make(chan events.Payload, 1)
	bus.Subscribe(events.Completed, func(p events.Payload) { done <- p })

	o := New(bus, nil, nil, nil, nil, nil)
	report, err := o.Scan(context.Background(), "example.com", Options{
		Behavior: "passive",
		Config:   allStagesDisabled(),
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	select {
	case p := <-done:
		if p["reportID"] != report.ID {
			t.Errorf("completed event reportID = %v, want %v", p["reportID"], report.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for completed event")
	}
}

func TestBatchScan_CapturesPerTargetErrorsWithoutAborting(t *testing.T) {
	o := New(events.New(), nil, nil, nil, nil, nil)
	results := o.BatchScan(context.Background(), []string{"", "example.com"}, Options{
		Behavior: "passive",
		Config:   allStagesDisabled(),
	})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err == nil {
		t.Error("expected an error for the blank target")
	}
	if results[1].Err != nil {
		t.Errorf("expected no error for example.com, got %v", results[1].Err)
	}
	if results[1].Report.Status != "completed" {
		t.Errorf("second target status = %q, want completed", results[1].Report.Status)
	}
}

func TestNewReportID_HasTimestampDashSuffixShape(t *testing.T) {
	id := newReportID()
	parts := strings.SplitN(id, "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		t.Errorf("newReportID() = %q, want <millis>-<suffix> shape", id)
	}
}
