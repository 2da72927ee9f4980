package orchestrator

// ToolInfo describes one external tool the pipeline may shell out to, per
// spec.md §6's `getToolStatus() → map<tool,{available,required,description}>`.
type ToolInfo struct {
	Available   bool   `json:"available"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

// knownTools lists every binary a stage may invoke through the Runner, per
// spec.md §4.4's stage table (latency/vulnerability/screenshot are the only
// stages that shell out; the rest use net/http or miekg/dns directly).
var knownTools = map[string]string{
	"ping":   "ICMP round-trip measurement for the latency stage",
	"nuclei": "template-driven vulnerability scanning for the vulnerability stage",
}

// GetToolStatus probes every known external tool's availability via the
// Runner's cached IsAvailable check. The screenshot stage's binary is
// included only when screenshotBinary is non-empty, since it has no fixed
// name.
func (o *Orchestrator) GetToolStatus(screenshotBinary string) map[string]ToolInfo {
	out := make(map[string]ToolInfo, len(knownTools)+1)
	for name, desc := range knownTools {
		out[name] = ToolInfo{
			Available:   o.Runner != nil && o.Runner.IsAvailable(name),
			Required:    false,
			Description: desc,
		}
	}
	if screenshotBinary != "" {
		out[screenshotBinary] = ToolInfo{
			Available:   o.Runner != nil && o.Runner.IsAvailable(screenshotBinary),
			Required:    false,
			Description: "headless browser capture for the screenshot stage",
		}
	}
	return out
}
