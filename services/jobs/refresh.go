// Package jobs runs the periodic refresh of the statistics database.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Step is one stage of a refresh, e.g. syncing resources or populating
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Refresher runs its steps in order and stops at the first failure
type Refresher struct {
	steps []Step
	log   *logrus.Logger
}

func NewRefresher(log *logrus.Logger, steps ...Step) *Refresher {
	return &Refresher{steps: steps, log: log}
}

func (r *Refresher) Run(ctx context.Context) error {
	started := time.Now()
	for _, step := range r.steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		stepStarted := time.Now()
		r.log.WithField("step", step.Name).Info("Refresh step starting")
		if err := step.Run(ctx); err != nil {
			return fmt.Errorf("refresh step %s failed: %w", step.Name, err)
		}
		r.log.WithFields(logrus.Fields{
			"step":     step.Name,
			"duration": time.Since(stepStarted).Round(time.Millisecond),
		}).Info("Refresh step finished")
	}

	r.log.WithField("duration", time.Since(started).Round(time.Millisecond)).Info("Refresh complete")
	return nil
}

// StartScheduler runs the refresher on schedule in the given timezone. A run that
// is still going when the next one is due makes the next one skip. Failures
// are logged and do not stop the schedule. ctx is handed to every run.
func StartScheduler(ctx context.Context, schedule, timezone string, r *Refresher) (*cron.Cron, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh timezone %q: %w", timezone, err)
	}

	cronLog := cron.PrintfLogger(r.log)
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	_, err = c.AddFunc(schedule, func() {
		if err := r.Run(ctx); err != nil {
			r.log.WithError(err).Error("Scheduled refresh failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}

	c.Start()
	r.log.WithFields(logrus.Fields{
		"schedule": schedule,
		"timezone": loc.String(),
	}).Info("Refresh scheduler started")
	return c, nil
}
