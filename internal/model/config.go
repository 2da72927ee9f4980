package model

import "time"

// StageOrder is the canonical, fixed execution order of the scan pipeline.
// Orchestrator never reorders it; FeatureConfig can only skip entries.
var StageOrder = []string{
	"dns", "certificate", "whois", "latency", "http", "ports",
	"subdomains", "webDiscovery", "vulnerability", "tlsAudit",
	"fingerprint", "screenshot", "osint", "asn", "dnsdumpster",
}

// RateLimit configures the optional inter-stage delay.
type RateLimit struct {
	Enabled           bool          `mapstructure:"enabled"`
	DelayBetweenStages time.Duration `mapstructure:"delayBetweenStages"`
}

// FeatureConfig is the effective, fully-resolved configuration for one scan:
// defaults ⊕ preset ⊕ userConfig ⊕ behaviorOverrides, deep-merged in that order.
type FeatureConfig struct {
	Behavior  string                 `mapstructure:"behavior"`
	Features  map[string]interface{} `mapstructure:"features"`
	Timeout   map[string]time.Duration `mapstructure:"timeout"`
	Ports     []int                  `mapstructure:"ports"`
	RateLimit RateLimit              `mapstructure:"rateLimit"`
	Tools     map[string]ToolConfig  `mapstructure:"tools"`
	UserAgent string                 `mapstructure:"userAgent"`
	Concurrency int                  `mapstructure:"concurrency"`
	HistoryLimit int                 `mapstructure:"historyLimit"`
}

// ToolConfig describes one external tool binding used by a stage.
type ToolConfig struct {
	Path    string `mapstructure:"path"`
	Enabled bool   `mapstructure:"enabled"`
}

// StageEnabled reports whether featureConfig[stage] !== false, per spec.md §4.4.
func (c *FeatureConfig) StageEnabled(stage string) bool {
	if c == nil || c.Features == nil {
		return true
	}
	v, ok := c.Features[stage]
	if !ok {
		return true
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

// StageTimeout resolves config.timeout[stageName], falling back to config.timeout.default.
func (c *FeatureConfig) StageTimeout(stage string) time.Duration {
	if c == nil || c.Timeout == nil {
		return 30 * time.Second
	}
	if d, ok := c.Timeout[stage]; ok {
		return d
	}
	if d, ok := c.Timeout["default"]; ok {
		return d
	}
	return 30 * time.Second
}
