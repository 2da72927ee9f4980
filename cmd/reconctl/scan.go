package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/reconctl/reconctl/internal/model"
	"github.com/reconctl/reconctl/internal/orchestrator"
	"github.com/reconctl/reconctl/internal/report"
)

func newScanCmd(a **app) *cobra.Command {
	var (
		behavior     string
		overridesRaw string
		format       string
		noStore      bool
	)

	cmd := &cobra.Command{
		Use:   "scan <target>",
		Short: "Run a single reconnaissance sweep against one target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := behaviorOverridesFromFlags(overridesRaw)
			if err != nil {
				return err
			}

			ctx := (*a).orch.Initialize(context.Background())

			if noStore {
				saved := (*a).orch.Storage
				(*a).orch.Storage = nil
				defer func() { (*a).orch.Storage = saved }()
			}

			r, err := (*a).orch.Scan(ctx, args[0], orchestrator.Options{
				Behavior:  behavior,
				Overrides: overrides,
			})
			if err != nil {
				return err
			}
			(*a).prog.Complete()

			noColor, _ := cmd.Flags().GetBool("no-color")
			return writeReport(os.Stdout, r, format, noColor)
		},
	}

	cmd.Flags().StringVar(&behavior, "behavior", "", "Behavior preset: passive, stealth, or aggressive")
	cmd.Flags().StringVar(&overridesRaw, "override", "", "Comma-separated stage=true|false overrides, e.g. ports=false")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json, markdown, html")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Do not persist this scan")

	return cmd
}

// writeReport renders r to w in the requested format, per spec.md §6's
// generate{Markdown,JSON,HTML}Report surface plus a terminal table for
// interactive use.
func writeReport(w *os.File, r model.Report, format string, noColor bool) error {
	switch format {
	case "json":
		return report.WriteJSON(w, r)
	case "markdown":
		_, err := w.WriteString(report.GenerateMarkdown(r))
		return err
	case "html":
		_, err := w.WriteString(report.GenerateHTML(r))
		return err
	default:
		report.WriteSummaryTable(w, r, noColor)
		return nil
	}
}
