package main

import (
	"fmt"

	"pi_monitor_go/services"

	"github.com/spf13/cobra"
)

func newSyncResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-resources",
		Short: "Download resource folders of registered jurisdictions from the R2 bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if !a.cfg.RemoteResourcesConfigured() {
				return fmt.Errorf("R2 bucket is not configured (set R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_BUCKET_NAME)")
			}

			remote, err := services.NewR2Resources(a.cfg, a.log)
			if err != nil {
				return err
			}
			_, err = remote.Sync(cmd.Context(), a.resources, a.cfg.Adapters)
			return err
		},
	}
}
