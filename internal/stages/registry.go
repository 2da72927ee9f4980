package stages

import (
	"github.com/reconctl/reconctl/internal/runner"
)

// Deps bundles the shared collaborators stages need: a Runner for external
// tool invocation and a ProbeCache shared between http and fingerprint.
type Deps struct {
	Runner *runner.Runner
	Cache  *ProbeCache
}

// All returns every stage implementation, in spec.md's canonical order
// (model.StageOrder), wired with the given dependencies.
func All(deps Deps) []Stage {
	if deps.Cache == nil {
		deps.Cache = NewProbeCache()
	}
	return []Stage{
		DNSStage{},
		CertificateStage{},
		WhoisStage{},
		LatencyStage{Runner: deps.Runner},
		HTTPStage{Cache: deps.Cache},
		PortsStage{},
		SubdomainsStage{},
		WebDiscoveryStage{},
		VulnerabilityStage{Runner: deps.Runner},
		TLSAuditStage{},
		FingerprintStage{Cache: deps.Cache},
		ScreenshotStage{Runner: deps.Runner},
		OSINTStage{},
		ASNStage{},
		DNSDumpsterStage{},
	}
}
