package jobs

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRefresherRunsStepsInOrder(t *testing.T) {
	var order []string
	step := func(name string, err error) Step {
		return Step{Name: name, Run: func(ctx context.Context) error {
			order = append(order, name)
			return err
		}}
	}

	r := NewRefresher(quietLogger(), step("sync", nil), step("populate", nil))
	assert.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"sync", "populate"}, order)

	order = nil
	boom := errors.New("bucket unreachable")
	r = NewRefresher(quietLogger(), step("sync", boom), step("populate", nil))
	err := r.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "sync")
	assert.Equal(t, []string{"sync"}, order)
}

func TestRefresherStopsOnCancelledContext(t *testing.T) {
	called := false
	r := NewRefresher(quietLogger(), Step{Name: "populate", Run: func(ctx context.Context) error {
		called = true
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)
	assert.False(t, called)
}

func TestStartSchedulerRejectsBadInput(t *testing.T) {
	r := NewRefresher(quietLogger())

	_, err := StartScheduler(context.Background(), "not a schedule", "Europe/London", r)
	assert.Error(t, err)

	_, err = StartScheduler(context.Background(), "0 3 * * *", "Mars/Olympus", r)
	assert.Error(t, err)
}

func TestStartSchedulerRunsRefresh(t *testing.T) {
	var runs atomic.Int32
	r := NewRefresher(quietLogger(), Step{Name: "populate", Run: func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("failed runs keep the schedule alive")
	}})

	c, err := StartScheduler(context.Background(), "@every 1s", "UTC", r)
	require.NoError(t, err)
	defer c.Stop()

	assert.Len(t, c.Entries(), 1)
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 4*time.Second, 50*time.Millisecond)
}
