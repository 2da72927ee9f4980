package stages

import (
	"context"

	"github.com/reconctl/reconctl/internal/model"
	"github.com/reconctl/reconctl/internal/runner"
)

// ScreenshotStage captures a page render via an external headless-browser
// CLI tool (e.g. a Chromium build invoked with --headless
// --screenshot=<path>). No example repo in the pack vendors a Go
// screenshot/headless-browser library, and no default binary name is
// trustworthy across operator environments, so this stage stays off by
// default: it reports status "skipped" unless cfg.Tools["screenshot"] is
// enabled and names an explicit executable path, at which point it shells out via
// CommandRunner exactly like any other tool stage (see DESIGN.md).
type ScreenshotStage struct {
	Runner *runner.Runner
}

func (ScreenshotStage) Name() string { return "screenshot" }

func (s ScreenshotStage) Execute(ctx context.Context, target model.Target, cfg model.FeatureConfig) model.StageResult {
	tool, ok := cfg.Tools["screenshot"]
	if !ok || !tool.Enabled || tool.Path == "" {
		return model.NewSkipped()
	}
	binary := tool.Path
	if s.Runner == nil || !s.Runner.IsAvailable(binary) {
		return model.NewUnavailable(binary + " binary not found on PATH")
	}

	scheme := target.Protocol
	if scheme == "" {
		scheme = "https"
	}
	url := scheme + "://" + target.Host

	outPath := "/tmp/reconctl-screenshot-" + target.Host + ".png"
	args := []string{
		"--headless", "--disable-gpu", "--no-sandbox",
		"--screenshot=" + outPath, "--window-size=1280,800", url,
	}

	res := s.Runner.Run(ctx, binary, args, runner.Options{
		Timeout:      cfg.StageTimeout("screenshot"),
		TrackProcess: true,
	})
	if res.Err != nil {
		return model.NewError(binary, res.Err)
	}

	return model.NewOK(map[string]interface{}{
		"path": outPath,
		"url":  url,
	})
}
