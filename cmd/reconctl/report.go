package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reconctl/reconctl/internal/storage"
)

func newReportCmd(a **app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect, list, and compare persisted reports",
	}
	cmd.AddCommand(newReportGetCmd(a), newReportListCmd(a), newReportCompareCmd(a))
	return cmd
}

func newReportGetCmd(a **app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "get <report-id>",
		Short: "Print one persisted report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := (*a).storage.GetReport(args[0])
			if err != nil {
				return err
			}
			noColor, _ := cmd.Flags().GetBool("no-color")
			return writeReport(os.Stdout, r, format, noColor)
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json, markdown, html")
	return cmd
}

func newReportListCmd(a **app) *cobra.Command {
	var host string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List persisted report summaries, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				summaries []storage.ReportSummary
				err       error
			)
			if host != "" {
				summaries, err = (*a).storage.GetReportsByHost(host, storage.ListOptions{Limit: limit})
			} else {
				summaries, err = (*a).storage.ListReports(storage.ListOptions{Limit: limit})
			}
			if err != nil {
				return err
			}
			for _, s := range summaries {
				fmt.Fprintf(os.Stdout, "%s\t%s\t%s\n", s.ID, s.Host, s.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Scope the listing to a single host")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of reports to list (0 = unlimited)")
	return cmd
}

func newReportCompareCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <report-id-1> <report-id-2>",
		Short: "Diff two persisted reports' fingerprints",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := (*a).storage.CompareReports(args[0], args[1])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		},
	}
}
