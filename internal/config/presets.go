// Package config resolves the effective FeatureConfig for a scan: defaults
// deep-merged with a named preset, the caller's config, and finally
// behavior overrides, per spec.md §4.5 step 2.
package config

import "time"

// Preset names recognized by Resolve, per spec.md §3.
const (
	PresetPassive    = "passive"
	PresetStealth    = "stealth"
	PresetAggressive = "aggressive"
)

// Defaults returns the baseline configuration before any preset or user
// override is applied.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"features": map[string]interface{}{
			"dns": true, "certificate": true, "whois": true, "latency": true,
			"http": true, "ports": true, "subdomains": true, "webDiscovery": true,
			"vulnerability": true, "tlsAudit": true, "fingerprint": true,
			"screenshot": false, "osint": true, "asn": true, "dnsdumpster": true,
		},
		"timeout": map[string]interface{}{
			"default": 30 * time.Second,
		},
		"concurrency":  10,
		"historyLimit": 50,
		"userAgent":    "reconctl/dev",
		"rateLimit": map[string]interface{}{
			"enabled":            false,
			"delayBetweenStages": time.Duration(0),
		},
	}
}

// presets returns the override tree for a named behavior preset. Unknown
// names yield nil (no override applied).
func presets() map[string]map[string]interface{} {
	return map[string]map[string]interface{}{
		PresetPassive: {
			"features": map[string]interface{}{
				"ports": false, "webDiscovery": false, "vulnerability": false,
				"screenshot": false, "latency": false,
			},
			"concurrency": 5,
			"timeout":     map[string]interface{}{"default": 20 * time.Second},
		},
		PresetStealth: {
			"features": map[string]interface{}{
				"vulnerability": false, "screenshot": false,
			},
			"concurrency": 1,
			"timeout":     map[string]interface{}{"default": 45 * time.Second},
			"rateLimit": map[string]interface{}{
				"enabled":            true,
				"delayBetweenStages": 2 * time.Second,
			},
		},
		PresetAggressive: {
			"features": map[string]interface{}{
				"screenshot": true,
			},
			"concurrency": 50,
			"timeout":     map[string]interface{}{"default": 15 * time.Second},
		},
	}
}

// PresetFor returns the named preset's override tree, or nil if unrecognized.
func PresetFor(name string) map[string]interface{} {
	return presets()[name]
}
