// Command reconctl is the defensive recon CLI: it exposes the scan,
// report, targets, schedule, and tools surfaces described in spec.md §6.
// Grounded on the teacher's cmd/sweep/main.go (cobra root command,
// signal-driven cancellation, NO_COLOR handling), generalized from one
// flat command into a multi-command tree wired to internal/orchestrator.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/reconctl/reconctl/internal/config"
	"github.com/reconctl/reconctl/internal/events"
	"github.com/reconctl/reconctl/internal/logging"
	"github.com/reconctl/reconctl/internal/orchestrator"
	"github.com/reconctl/reconctl/internal/procmgr"
	"github.com/reconctl/reconctl/internal/report"
	"github.com/reconctl/reconctl/internal/runner"
	"github.com/reconctl/reconctl/internal/storage"
	"github.com/reconctl/reconctl/internal/target"
	"github.com/reconctl/reconctl/internal/uptime"
)

// Set via ldflags at build time.
var version = "dev"

// app bundles the collaborators every subcommand needs, built once in
// persistentPreRunE and torn down in persistentPostRunE.
type app struct {
	bus     *events.Bus
	log     *logrus.Logger
	procs   *procmgr.Manager
	runner  *runner.Runner
	storage *storage.Manager
	targets *target.Manager
	uptime  *uptime.Monitor
	orch    *orchestrator.Orchestrator
	prog    *report.Progress
}

func main() {
	var (
		dataDir     string
		jsonLogs    bool
		logLevel    string
		noColor     bool
		silent      bool
		verbose     bool
	)

	var a *app

	rootCmd := &cobra.Command{
		Use:     "reconctl",
		Short:   "Defensive attack-surface reconnaissance",
		Long:    "Recurring, auditable attack-surface reconnaissance: DNS, certificates, ports, web discovery, fingerprinting, diffing, and alerting — for hosts you are authorized to assess.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := os.LookupEnv("NO_COLOR"); ok {
				noColor = true
			}
			if dataDir == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("resolve data dir: %w", err)
				}
				dataDir = filepath.Join(home, ".reconctl")
			}
			built, err := buildApp(dataDir, jsonLogs, logLevel, noColor, silent, verbose)
			if err != nil {
				return err
			}
			a = built
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a == nil {
				return nil
			}
			a.procs.Cleanup(procmgr.CleanupOptions{Force: false})
			if a.storage != nil {
				return a.storage.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Storage root (default: $HOME/.reconctl)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit structured JSON logs instead of text")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable terminal colors")
	rootCmd.PersistentFlags().BoolVar(&silent, "silent", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose per-stage progress")

	rootCmd.AddCommand(newScanCmd(&a), newReportCmd(&a), newTargetsCmd(&a), newScheduleCmd(&a), newToolsCmd(&a))
	rootCmd.SetVersionTemplate("reconctl {{.Version}}\n")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildApp(dataDir string, jsonLogs bool, logLevel string, noColor, silent, verbose bool) (*app, error) {
	log := logging.New(logging.Options{JSON: jsonLogs, Level: logLevel})

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	bus := events.New()
	procs := procmgr.New(log)
	r := runner.New(procs)

	store, err := storage.New(filepath.Join(dataDir, "storage"), 50, bus)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	targets, err := target.Open(filepath.Join(dataDir, "targets.db"))
	if err != nil {
		return nil, fmt.Errorf("open target store: %w", err)
	}

	mon := uptime.New(nil, 0)
	orch := orchestrator.New(bus, r, procs, store, mon, log)

	prog := report.NewProgress(bus, os.Stderr, verbose, silent)

	return &app{
		bus:     bus,
		log:     log,
		procs:   procs,
		runner:  r,
		storage: store,
		targets: targets,
		uptime:  mon,
		orch:    orch,
		prog:    prog,
	}, nil
}

// behaviorOverridesFromFlags builds config.BehaviorOverrides from a
// comma-separated list of stage=bool pairs, e.g. "ports=false,dns=true".
func behaviorOverridesFromFlags(raw string) (*config.BehaviorOverrides, error) {
	if raw == "" {
		return nil, nil
	}
	features := make(map[string]interface{})
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid override %q, want stage=true|false", pair)
		}
		switch v {
		case "true":
			features[k] = true
		case "false":
			features[k] = false
		default:
			return nil, fmt.Errorf("invalid override value %q for %q", v, k)
		}
	}
	return &config.BehaviorOverrides{Features: features}, nil
}
