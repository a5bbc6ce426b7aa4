package main

import (
	"fmt"
	"os"

	"pi_monitor_go/db"
	"pi_monitor_go/services"

	"github.com/spf13/cobra"
)

type exportOptions struct {
	special      string
	year         int
	overall      bool
	jurisdiction string
	out          string
}

func newExportCmd() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export values of a special property across jurisdictions to a workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.openDB(); err != nil {
				return err
			}
			defer db.Close()

			query := services.ComparisonOpts{
				Special:      opts.special,
				OverallOnly:  opts.overall,
				Jurisdiction: opts.jurisdiction,
			}
			if cmd.Flags().Changed("year") {
				query.Year = &opts.year
			}

			rows, err := services.Comparison(cmd.Context(), db.DB, query)
			if err != nil {
				return err
			}
			buf, err := services.BuildComparisonWorkbook(rows)
			if err != nil {
				return err
			}
			if err := os.WriteFile(opts.out, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", opts.out, err)
			}

			a.log.WithField("rows", len(rows)).Infof("Wrote %s", opts.out)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.special, "special", "", "Special property tag, e.g. PI_ALL (required)")
	cmd.Flags().IntVar(&opts.year, "year", 0, "Only this year (9999 for all time)")
	cmd.Flags().BoolVar(&opts.overall, "overall", false, "Only the jurisdiction-wide totals")
	cmd.Flags().StringVar(&opts.jurisdiction, "jurisdiction", "", "Only this jurisdiction slug")
	cmd.Flags().StringVar(&opts.out, "out", "comparison.xlsx", "Output workbook")

	_ = cmd.MarkFlagRequired("special")

	return cmd
}
