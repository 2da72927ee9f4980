package config

import (
	"testing"
	"time"
)

func TestDeepMerge_NestedOverrideWins(t *testing.T) {
	base := map[string]interface{}{
		"features": map[string]interface{}{"dns": true, "ports": true},
		"concurrency": 10,
	}
	override := map[string]interface{}{
		"features": map[string]interface{}{"ports": false},
	}

	merged := DeepMerge(base, override)
	features := merged["features"].(map[string]interface{})

	if features["ports"] != false {
		t.Errorf("ports = %v, want false", features["ports"])
	}
	if features["dns"] != true {
		t.Errorf("dns = %v, want true (untouched key must survive)", features["dns"])
	}
	if merged["concurrency"] != 10 {
		t.Errorf("concurrency = %v, want 10", merged["concurrency"])
	}
}

func TestResolve_StealthPresetLowersConcurrency(t *testing.T) {
	cfg, err := Resolve(PresetStealth, nil, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Concurrency != 1 {
		t.Errorf("stealth concurrency = %d, want 1", cfg.Concurrency)
	}
	if !cfg.RateLimit.Enabled {
		t.Error("stealth should enable rate limiting")
	}
	if !cfg.StageEnabled("dns") {
		t.Error("stealth should still run dns stage")
	}
	if cfg.StageEnabled("vulnerability") {
		t.Error("stealth should disable vulnerability stage")
	}
}

func TestResolve_BehaviorOverridesWinOverUserConfig(t *testing.T) {
	userConfig := map[string]interface{}{
		"features": map[string]interface{}{"ports": false},
	}
	overrides := &BehaviorOverrides{Features: map[string]interface{}{"ports": true}}

	cfg, err := Resolve("", userConfig, overrides)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !cfg.StageEnabled("ports") {
		t.Error("behaviorOverrides.features should win over userConfig")
	}
}

func TestFeatureConfig_StageTimeoutFallsBackToDefault(t *testing.T) {
	cfg, err := Resolve("", nil, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := cfg.StageTimeout("dns"); got != 30*time.Second {
		t.Errorf("StageTimeout(dns) = %v, want 30s default", got)
	}
}
