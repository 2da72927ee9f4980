package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func newToolsCmd(a **app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect external tool availability",
	}
	cmd.AddCommand(newToolsStatusCmd(a))
	return cmd
}

func newToolsStatusCmd(a **app) *cobra.Command {
	var screenshotBinary string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print availability for every tool a stage may shell out to",
		RunE: func(cmd *cobra.Command, args []string) error {
			status := (*a).orch.GetToolStatus(screenshotBinary)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		},
	}
	cmd.Flags().StringVar(&screenshotBinary, "screenshot-binary", "", "Also check this binary, as configured for the screenshot stage")
	return cmd
}
