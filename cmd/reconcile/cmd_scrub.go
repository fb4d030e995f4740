package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ilc-alumni/reconcile/internal/bounce"
	"github.com/ilc-alumni/reconcile/internal/config"
	"github.com/ilc-alumni/reconcile/internal/table"
)

// createScrubCmd clears bounced addresses from the roster
func createScrubCmd(a *app) *cobra.Command {
	var master, bounced, output string
	d := config.Default().Scrub

	cmd := &cobra.Command{
		Use:   "scrub",
		Short: "Clear bounced email addresses from the master roster",
		Long: `Clear the email cell of every roster row whose address appears in the
bounced export. Rows are kept; only the email cell is emptied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &a.cfg.Scrub
			flags := cmd.Flags()
			if flags.Changed("master") {
				cfg.Master = master
			}
			if flags.Changed("bounced") {
				cfg.Bounced = bounced
			}
			if flags.Changed("output") {
				cfg.Output = output
			}

			inputs := map[string]string{"master": cfg.Master, "bounced": cfg.Bounced}
			return a.track(cmd.Context(), "scrub", inputs, cfg.Output, func() (map[string]int, error) {
				return a.runScrub(cfg)
			})
		},
	}

	cmd.Flags().StringVar(&master, "master", d.Master, "Master roster CSV")
	cmd.Flags().StringVar(&bounced, "bounced", d.Bounced, "Bounced email export CSV")
	cmd.Flags().StringVarP(&output, "output", "o", d.Output, "Cleaned roster CSV to write")

	return cmd
}

func (a *app) runScrub(cfg *config.ScrubConfig) (map[string]int, error) {
	bounced, err := table.Load(a.path(cfg.Bounced))
	if err != nil {
		return nil, err
	}
	master, err := table.Load(a.path(cfg.Master))
	if err != nil {
		return nil, err
	}

	res, err := bounce.NewScrubber(cfg.EmailColumn, cfg.BouncedEmail, a.log).Run(master, bounced)
	if err != nil {
		return nil, err
	}

	if err := res.Table.Save(a.path(cfg.Output)); err != nil {
		return nil, fmt.Errorf("failed to save cleaned roster: %w", err)
	}

	a.printf("Cleared %d bounced email addresses.\n", res.Cleared)
	a.printf("Total alumni kept: %d\n", res.Total)

	return map[string]int{
		"bounced": res.Bounced,
		"cleared": res.Cleared,
		"total":   res.Total,
	}, nil
}
