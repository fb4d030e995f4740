package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ilc-alumni/reconcile/internal/config"
	"github.com/ilc-alumni/reconcile/internal/enrich"
	"github.com/ilc-alumni/reconcile/internal/table"
)

// createEnrichCmd fills empty roster emails from an external contact export
func createEnrichCmd(a *app) *cobra.Command {
	var master, source, output string
	var emailColumns []string
	d := config.Default().Enrich

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Fill missing alumni emails from an external contact export",
		Long: `Join the master roster with an external contact export on normalized
first and last names. Empty email cells are filled; existing emails are never
overwritten and every roster row is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &a.cfg.Enrich
			flags := cmd.Flags()
			if flags.Changed("master") {
				cfg.Master = master
			}
			if flags.Changed("source") {
				cfg.Source = source
			}
			if flags.Changed("output") {
				cfg.Output = output
			}
			if flags.Changed("email-columns") {
				cfg.SourceEmails = emailColumns
			}

			inputs := map[string]string{"master": cfg.Master, "source": cfg.Source}
			return a.track(cmd.Context(), "enrich", inputs, cfg.Output, func() (map[string]int, error) {
				return a.runEnrich(cfg)
			})
		},
	}

	cmd.Flags().StringVar(&master, "master", d.Master, "Master roster CSV")
	cmd.Flags().StringVar(&source, "source", d.Source, "External contact export CSV")
	cmd.Flags().StringVarP(&output, "output", "o", d.Output, "Enriched roster CSV to write")
	cmd.Flags().StringSliceVar(&emailColumns, "email-columns", d.SourceEmails, "Source email columns, highest priority first")

	return cmd
}

func (a *app) runEnrich(cfg *config.EnrichConfig) (map[string]int, error) {
	master, err := table.Load(a.path(cfg.Master))
	if err != nil {
		return nil, err
	}
	source, err := table.Load(a.path(cfg.Source))
	if err != nil {
		return nil, err
	}

	enricher := enrich.NewEnricher(enrich.Columns{
		First:        cfg.FirstColumn,
		Last:         cfg.LastColumn,
		Email:        cfg.EmailColumn,
		SourceFirst:  cfg.SourceFirst,
		SourceLast:   cfg.SourceLast,
		SourceEmails: cfg.SourceEmails,
	}, a.log)

	res, err := enricher.Run(master, source)
	if err != nil {
		return nil, err
	}
	a.printf("%d emails loaded from source file.\n", res.Loaded)

	if err := res.Table.Save(a.path(cfg.Output)); err != nil {
		return nil, fmt.Errorf("failed to save enriched roster: %w", err)
	}

	a.printf("Added %d email addresses.\n", res.Added)
	a.printf("Total alumni kept: %d\n", res.Total)

	return map[string]int{
		"loaded":  res.Loaded,
		"keys":    res.Keys,
		"added":   res.Added,
		"skipped": res.Skipped,
		"total":   res.Total,
	}, nil
}
