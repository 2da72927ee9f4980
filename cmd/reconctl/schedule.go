package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/reconctl/reconctl/internal/model"
	"github.com/reconctl/reconctl/internal/orchestrator"
	"github.com/reconctl/reconctl/internal/scheduler"
)

func newScheduleCmd(a **app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run recurring sweeps against every enabled target",
	}
	cmd.AddCommand(newScheduleStartCmd(a))
	return cmd
}

func newScheduleStartCmd(a **app) *cobra.Command {
	var (
		cronSpec    string
		concurrency int
		behavior    string
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Block, running a sweep on the given cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := (*a).orch.Initialize(context.Background())

			scan := func(ctx context.Context, t model.Target) (model.Report, error) {
				return (*a).orch.Scan(ctx, t.Original, orchestrator.Options{Behavior: behavior})
			}

			sched := scheduler.New((*a).targets, scan, (*a).bus, (*a).log, concurrency)
			if err := sched.Start(ctx, cronSpec); err != nil {
				return err
			}
			<-ctx.Done()
			sched.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&cronSpec, "cron", "@hourly", "Cron expression governing sweep cadence")
	cmd.Flags().IntVar(&concurrency, "concurrency", 3, "Maximum concurrent per-target scans within a sweep")
	cmd.Flags().StringVar(&behavior, "behavior", "", "Behavior preset applied to every scheduled scan")

	return cmd
}
