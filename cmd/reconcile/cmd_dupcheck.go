package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ilc-alumni/reconcile/internal/config"
	"github.com/ilc-alumni/reconcile/internal/duplicate"
	"github.com/ilc-alumni/reconcile/internal/table"
)

// errFilesNotFound is returned when the comparison files cannot be located
var errFilesNotFound = errors.New("one or both files not found")

// createDupCheckCmd compares two arbitrary CSV files for overlapping records
func createDupCheckCmd(a *app) *cobra.Command {
	var columns []string
	var report string
	var noReport bool
	d := config.Default().DupCheck

	cmd := &cobra.Command{
		Use:   "dupcheck [file1 file2]",
		Short: "Find duplicate records between two CSV files",
		Long: `Compare two CSV files on their shared identity columns (email, name, id,
phone) and report exact row matches, per-column value overlaps and rows whose
name columns all agree. Without arguments the configured files are used; if
the first one is missing you are prompted for both paths.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected two file arguments or none, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &a.cfg.DupCheck
			flags := cmd.Flags()
			if flags.Changed("columns") {
				cfg.Columns = columns
			}
			if flags.Changed("report") {
				cfg.Report = report
			}
			if noReport {
				cfg.Report = ""
			}

			a.printf("CSV Duplicate Checker\n")
			a.printf("========================================\n")

			file1, file2, err := a.comparisonFiles(cfg, args)
			if err != nil {
				return err
			}
			cfg.File1, cfg.File2 = file1, file2

			inputs := map[string]string{"file1": file1, "file2": file2}
			return a.track(cmd.Context(), "dupcheck", inputs, cfg.Report, func() (map[string]int, error) {
				return a.runDupCheck(cfg)
			})
		},
	}

	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to compare (default: auto-detect)")
	cmd.Flags().StringVar(&report, "report", d.Report, "Text report file to write")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "Do not write a report file")

	return cmd
}

// comparisonFiles resolves the two files to compare, prompting when the
// default first file is missing
func (a *app) comparisonFiles(cfg *config.DupCheckConfig, args []string) (string, string, error) {
	file1, file2 := cfg.File1, cfg.File2
	if len(args) == 2 {
		file1, file2 = args[0], args[1]
	} else if !fileExists(a.path(file1)) {
		a.printf("File not found: %s\n", file1)
		if files, err := csvFiles(a.workDir()); err == nil {
			a.printf("Available files in directory:\n")
			for _, f := range files {
				a.printf("   %s\n", f)
			}
		}

		var err error
		file1, file2, err = promptPaths(a.stdin, a.stdout)
		if err != nil {
			return "", "", err
		}
	}

	if !fileExists(a.path(file1)) || !fileExists(a.path(file2)) {
		return "", "", errFilesNotFound
	}
	return file1, file2, nil
}

func (a *app) runDupCheck(cfg *config.DupCheckConfig) (map[string]int, error) {
	a.printf("Loading CSV files...\n")
	file1, err := table.Load(a.path(cfg.File1))
	if err != nil {
		return nil, a.loadFailed(err)
	}
	file2, err := table.Load(a.path(cfg.File2))
	if err != nil {
		return nil, a.loadFailed(err)
	}
	return a.compareFiles(cfg, file1, file2)
}

func (a *app) loadFailed(err error) error {
	a.printf("Error loading files: %v\n", err)
	return fmt.Errorf("analysis failed: %w", err)
}

func (a *app) compareFiles(cfg *config.DupCheckConfig, file1, file2 *table.Table) (map[string]int, error) {
	a.printf("File 1 loaded: %d rows\n", file1.Len())
	a.printf("File 2 loaded: %d rows\n", file2.Len())
	a.printf("\nFile 1 columns: %v\n", file1.Header)
	a.printf("File 2 columns: %v\n", file2.Header)
	if len(cfg.Columns) == 0 {
		a.printf("\nCommon columns found: %v\n", file1.CommonColumns(file2))
	}

	res, err := duplicate.NewChecker(a.log).Compare(file1, file2, cfg.Columns)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	a.printf("Using columns for comparison: %v\n", res.Columns)

	duplicate.PrintSummary(a.stdout, res)

	if cfg.Report != "" {
		a.printf("\nSaving detailed results to %s\n", cfg.Report)
		if err := duplicate.SaveReport(a.path(cfg.Report), res); err != nil {
			return nil, err
		}
		a.printf("\nAnalysis complete! Check '%s' for detailed results.\n", cfg.Report)
	} else {
		a.printf("\nAnalysis complete!\n")
	}

	stats := map[string]int{
		"file1_rows":      res.File1Rows,
		"file2_rows":      res.File2Rows,
		"exact_matches":   res.Exact.Count,
		"overlap_columns": len(res.Overlap),
	}
	if res.Names != nil {
		stats["name_matches"] = res.Names.Count
	}
	return stats, nil
}
