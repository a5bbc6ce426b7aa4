package main

import (
	"pi_monitor_go/db"
	"pi_monitor_go/services"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newPopulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "populate",
		Short: "Rebuild every registered jurisdiction from its resources",
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

			p, err := services.NewPopulator(db.DB, a.registry, a.log, a.cfg.BatchSize, a.cfg.ValueBatchSize)
			if err != nil {
				return err
			}
			result, err := p.Populate(cmd.Context())
			if err != nil {
				return err
			}

			a.log.WithFields(logrus.Fields{
				"run_id":        result.RunID,
				"jurisdictions": result.Jurisdictions,
				"years":         result.Years,
				"values":        result.Values,
			}).Info("Population complete")
			return nil
		},
	}
}
