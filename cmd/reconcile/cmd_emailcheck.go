package main

import (
	"github.com/spf13/cobra"

	"github.com/ilc-alumni/reconcile/internal/config"
	"github.com/ilc-alumni/reconcile/internal/duplicate"
	"github.com/ilc-alumni/reconcile/internal/table"
)

// createEmailCheckCmd reports roster addresses that also appear in the bounced export
func createEmailCheckCmd(a *app) *cobra.Command {
	var alumni, bounced, emailColumn, bouncedColumn string
	var limit int
	d := config.Default().EmailCheck

	cmd := &cobra.Command{
		Use:   "emailcheck",
		Short: "Find alumni email addresses that appear in the bounced export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &a.cfg.EmailCheck
			flags := cmd.Flags()
			if flags.Changed("alumni") {
				cfg.Alumni = alumni
			}
			if flags.Changed("bounced") {
				cfg.Bounced = bounced
			}
			if flags.Changed("email-column") {
				cfg.EmailColumn = emailColumn
			}
			if flags.Changed("bounced-column") {
				cfg.BouncedEmail = bouncedColumn
			}
			if flags.Changed("limit") {
				cfg.SampleSize = limit
			}

			inputs := map[string]string{"alumni": cfg.Alumni, "bounced": cfg.Bounced}
			return a.track(cmd.Context(), "emailcheck", inputs, "", func() (map[string]int, error) {
				return a.runEmailCheck(cfg)
			})
		},
	}

	cmd.Flags().StringVar(&alumni, "alumni", d.Alumni, "Alumni roster CSV")
	cmd.Flags().StringVar(&bounced, "bounced", d.Bounced, "Bounced email export CSV")
	cmd.Flags().StringVar(&emailColumn, "email-column", d.EmailColumn, "Roster email column")
	cmd.Flags().StringVar(&bouncedColumn, "bounced-column", d.BouncedEmail, "Bounced export email column")
	cmd.Flags().IntVar(&limit, "limit", d.SampleSize, "Number of matches to print")

	return cmd
}

func (a *app) runEmailCheck(cfg *config.EmailCheckConfig) (map[string]int, error) {
	a.printf("Email Duplicate Analysis\n")
	a.printf("========================================\n")

	alumni, err := table.Load(a.path(cfg.Alumni))
	if err != nil {
		return nil, err
	}
	bounced, err := table.Load(a.path(cfg.Bounced))
	if err != nil {
		return nil, err
	}

	res, err := duplicate.NewChecker(a.log).CompareEmails(alumni, cfg.EmailColumn, bounced, cfg.BouncedEmail)
	if err != nil {
		return nil, err
	}
	duplicate.PrintEmailSummary(a.stdout, res, cfg.SampleSize)

	return map[string]int{
		"alumni_rows":   res.AlumniRows,
		"bounced_rows":  res.BouncedRows,
		"alumni_clean":  res.AlumniClean,
		"bounced_clean": res.BouncedClean,
		"matches":       len(res.Matches),
	}, nil
}
