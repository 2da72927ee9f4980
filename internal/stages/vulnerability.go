package stages

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/reconctl/reconctl/internal/model"
	"github.com/reconctl/reconctl/internal/runner"
)

// VulnerabilityStage runs nuclei against the target and summarizes findings
// by severity, grounded on the availability-check/invocation shape of
// tracehawk-x's NucleiModule (modules/stable/nuclei.go) generalized from a
// placeholder Run into a real JSONL-parsing invocation driven through this
// repo's Runner instead of a bare exec.Command.
type VulnerabilityStage struct {
	Runner *runner.Runner
}

func (VulnerabilityStage) Name() string { return "vulnerability" }

type nucleiFinding struct {
	TemplateID string `json:"template-id"`
	Info       struct {
		Name     string `json:"name"`
		Severity string `json:"severity"`
	} `json:"info"`
	Host string `json:"host"`
}

func (s VulnerabilityStage) Execute(ctx context.Context, target model.Target, cfg model.FeatureConfig) model.StageResult {
	if s.Runner == nil || !s.Runner.IsAvailable("nuclei") {
		return model.NewUnavailable("nuclei binary not found on PATH")
	}

	url := target.Original
	if url == "" {
		url = target.Host
	}

	args := []string{"-target", url, "-jsonl", "-silent", "-no-color"}
	res := s.Runner.Run(ctx, "nuclei", args, runner.Options{
		Timeout:        cfg.StageTimeout("vulnerability"),
		MaxBufferBytes: 8 << 20,
	})

	if res.Err != nil && res.Err.Code != runner.ErrExitCode {
		return model.NewError("nuclei", res.Err)
	}

	var findings []string
	count := 0
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var f nucleiFinding
		if err := json.Unmarshal([]byte(line), &f); err != nil {
			continue
		}
		count++
		findings = append(findings, f.Info.Name+" ["+f.Info.Severity+"]")
	}

	if count == 0 {
		return model.NewEmpty()
	}
	return model.NewOK(map[string]interface{}{
		"count":    count,
		"findings": findings,
	})
}
