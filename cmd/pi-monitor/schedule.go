package main

import (
	"context"
	"os/signal"
	"syscall"

	"pi_monitor_go/db"
	"pi_monitor_go/services"
	"pi_monitor_go/services/jobs"

	"github.com/spf13/cobra"
)

func newScheduleCmd() *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Keep running and refresh the database on a cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if schedule == "" {
				schedule = a.cfg.RefreshCron
			}
			if err := a.openDB(); err != nil {
				return err
			}
			defer db.Close()

			p, err := services.NewPopulator(db.DB, a.registry, a.log, a.cfg.BatchSize, a.cfg.ValueBatchSize)
			if err != nil {
				return err
			}

			var steps []jobs.Step
			if a.cfg.RemoteResourcesConfigured() {
				remote, err := services.NewR2Resources(a.cfg, a.log)
				if err != nil {
					return err
				}
				steps = append(steps, jobs.Step{Name: "sync-resources", Run: func(ctx context.Context) error {
					_, err := remote.Sync(ctx, a.resources, a.cfg.Adapters)
					return err
				}})
			}
			steps = append(steps, jobs.Step{Name: "populate", Run: func(ctx context.Context) error {
				_, err := p.Populate(ctx)
				return err
			}})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := jobs.StartScheduler(ctx, schedule, a.cfg.RefreshTimezone, jobs.NewRefresher(a.log, steps...))
			if err != nil {
				return err
			}

			<-ctx.Done()
			a.log.Info("Shutting down scheduler, waiting for a running refresh")
			<-c.Stop().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "cron", "", "Cron schedule (defaults to REFRESH_CRON)")

	return cmd
}
