package stages

import (
	"context"
	"regexp"
	"strconv"

	"github.com/reconctl/reconctl/internal/model"
	"github.com/reconctl/reconctl/internal/runner"
)

// LatencyStage measures round-trip latency via the system `ping` binary,
// grounded on the reachability-probing style of jbouey-msp-flake's
// netScanner.checkHostReachability (internal/daemon/netscan.go), generalized
// from a tcp-dial reachability probe to an ICMP round-trip measurement
// driven through this repo's Runner, since a dial-timeout check alone cannot
// yield min/avg/max/stddev figures.
type LatencyStage struct {
	Runner *runner.Runner
}

func (LatencyStage) Name() string { return "latency" }

var pingStatsRegex = regexp.MustCompile(`= ([\d.]+)/([\d.]+)/([\d.]+)/([\d.]+)`)
var pingLossRegex = regexp.MustCompile(`([\d.]+)% packet loss`)
var pingSentRegex = regexp.MustCompile(`(\d+) packets transmitted`)

func (s LatencyStage) Execute(ctx context.Context, target model.Target, cfg model.FeatureConfig) model.StageResult {
	if s.Runner == nil || !s.Runner.IsAvailable("ping") {
		return model.NewUnavailable("ping binary not found on PATH")
	}

	res := s.Runner.Run(ctx, "ping", []string{"-c", "4", "-W", "2", target.Host}, runner.Options{
		Timeout: cfg.StageTimeout("latency"),
	})

	if res.Err != nil && res.Err.Code != runner.ErrExitCode {
		return model.NewError("ping", res.Err)
	}

	out := string(res.Stdout)
	stats := model.PingStats{}

	if m := pingSentRegex.FindStringSubmatch(out); len(m) == 2 {
		stats.PacketsSent, _ = strconv.Atoi(m[1])
	}
	if m := pingLossRegex.FindStringSubmatch(out); len(m) == 2 {
		stats.PacketLoss, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := pingStatsRegex.FindStringSubmatch(out); len(m) == 5 {
		stats.MinMS, _ = strconv.ParseFloat(m[1], 64)
		stats.AvgMS, _ = strconv.ParseFloat(m[2], 64)
		stats.MaxMS, _ = strconv.ParseFloat(m[3], 64)
		stats.StddevMS, _ = strconv.ParseFloat(m[4], 64)
	}

	if stats.PacketsSent == 0 && stats.PacketLoss == 0 && stats.AvgMS == 0 {
		return model.NewEmpty()
	}

	return model.NewOK(map[string]interface{}{"ping": stats, "traceroute": []string{}})
}
