package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reconctl/reconctl/internal/events"
	"github.com/reconctl/reconctl/internal/target"
)

func newTargetsCmd(a **app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Manage the set of hosts scheduled sweeps operate on",
	}
	cmd.AddCommand(
		newTargetsAddCmd(a),
		newTargetsRemoveCmd(a),
		newTargetsListCmd(a),
		newTargetsUpdateScheduleCmd(a),
	)
	return cmd
}

func newTargetsAddCmd(a **app) *cobra.Command {
	var schedule string
	cmd := &cobra.Command{
		Use:   "add <target>",
		Short: "Add a target to the scheduled set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := target.Normalize(args[0])
			if err != nil {
				return err
			}
			rec, err := (*a).targets.Add(context.Background(), t, schedule)
			if err != nil {
				return err
			}
			(*a).bus.Emit(events.TargetAdded, events.Payload{"target": rec.Host})
			fmt.Fprintf(os.Stdout, "added %s (schedule=%q)\n", rec.Host, rec.Schedule)
			return nil
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron spec for this target's individual cadence override (optional)")
	return cmd
}

func newTargetsRemoveCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <host>",
		Short: "Remove a target from the scheduled set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*a).targets.Remove(context.Background(), args[0]); err != nil {
				return err
			}
			(*a).bus.Emit(events.TargetRemoved, events.Payload{"target": args[0]})
			return nil
		},
	}
}

func newTargetsListCmd(a **app) *cobra.Command {
	var includeDisabled bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scheduled targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := (*a).targets.List(context.Background(), includeDisabled)
			if err != nil {
				return err
			}
			for _, r := range recs {
				fmt.Fprintf(os.Stdout, "%s\tenabled=%v\tschedule=%q\tlastStatus=%s\n", r.Host, r.Enabled, r.Schedule, r.LastStatus)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&includeDisabled, "include-disabled", false, "Also list disabled targets")
	return cmd
}

func newTargetsUpdateScheduleCmd(a **app) *cobra.Command {
	var enable, disable bool
	cmd := &cobra.Command{
		Use:   "update-schedule <host> <cron-spec>",
		Short: "Change a target's cron schedule, and optionally its enabled state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled *bool
			if enable {
				v := true
				enabled = &v
			}
			if disable {
				v := false
				enabled = &v
			}
			schedule := args[1]
			rec, err := (*a).targets.Update(context.Background(), args[0], enabled, &schedule)
			if err != nil {
				return err
			}
			(*a).bus.Emit(events.TargetUpdated, events.Payload{"target": rec.Host})
			return nil
		},
	}
	cmd.Flags().BoolVar(&enable, "enable", false, "Enable the target")
	cmd.Flags().BoolVar(&disable, "disable", false, "Disable the target")
	return cmd
}
