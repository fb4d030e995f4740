package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ilc-alumni/reconcile/internal/history"
)

// createRunsCmd inspects the run history
func createRunsCmd(a *app) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the history of reconcile runs",
	}

	runsCmd.AddCommand(createRunsListCmd(a))
	runsCmd.AddCommand(createRunsShowCmd(a))

	return runsCmd
}

func createRunsListCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openHistory(cmd.Context(), true); err != nil {
				return err
			}

			runs, err := a.tracker.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				a.printf("No runs recorded.\n")
				return nil
			}

			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTOOL\tSTATUS\tSTARTED\tDURATION")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Tool, r.Status, r.StartedAt.Format(time.RFC3339), formatDuration(r))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}

func createRunsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show one run in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openHistory(cmd.Context(), true); err != nil {
				return err
			}

			run, err := a.tracker.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRun(a, run)
			return nil
		},
	}
}

func printRun(a *app, r *history.Run) {
	a.printf("Run ID:   %s\n", r.ID)
	a.printf("Tool:     %s\n", r.Tool)
	a.printf("Status:   %s\n", r.Status)
	a.printf("Started:  %s\n", r.StartedAt.Format(time.RFC3339))
	a.printf("Duration: %s\n", formatDuration(r))
	for _, k := range sortedKeys(r.Inputs) {
		a.printf("Input %s: %s\n", k, r.Inputs[k])
	}
	if r.Output != "" {
		a.printf("Output:   %s\n", r.Output)
	}
	if r.Error != "" {
		a.printf("Error:    %s\n", r.Error)
	}
	if len(r.Stats) > 0 {
		a.printf("Stats:\n")
		keys := make([]string, 0, len(r.Stats))
		for k := range r.Stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			a.printf("  %-16s %d\n", strings.ReplaceAll(k, "_", " "), r.Stats[k])
		}
	}
}

func formatDuration(r *history.Run) string {
	if r.FinishedAt == nil {
		return "-"
	}
	return r.Duration().String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
