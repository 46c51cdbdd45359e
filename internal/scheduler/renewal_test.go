package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/lease-backend/internal/services"
)

type fakeSweeper struct {
	mu    sync.Mutex
	calls int
	err   error
	ran   chan struct{}
}

func (f *fakeSweeper) ProcessAutoRenewals(context.Context) ([]services.RenewalOutcome, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	f.ran <- struct{}{}
	return []services.RenewalOutcome{{LeaseID: 1, Result: services.RenewalRenewed}}, f.err
}

func (f *fakeSweeper) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSchedulerWaitsUntilConfiguredHour(t *testing.T) {
	sweeper := &fakeSweeper{ran: make(chan struct{}, 4)}
	s := NewRenewalScheduler(sweeper, 2, time.UTC)
	s.now = func() time.Time { return time.Date(2024, 6, 30, 1, 30, 0, 0, time.UTC) }

	waits := make(chan time.Duration, 4)
	fire := make(chan time.Time)
	s.after = func(d time.Duration) <-chan time.Time {
		waits <- d
		return fire
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	assert.Equal(t, 30*time.Minute, <-waits)
	fire <- time.Time{}
	<-sweeper.ran
	assert.Equal(t, 30*time.Minute, <-waits)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
	assert.Equal(t, 1, sweeper.count())
}

func TestRunOnceSurvivesErrors(t *testing.T) {
	sweeper := &fakeSweeper{ran: make(chan struct{}, 2), err: errors.New("database unavailable")}
	s := NewRenewalScheduler(sweeper, 0, nil)

	require.NotPanics(t, func() { s.RunOnce(context.Background()) })
	assert.Equal(t, 1, sweeper.count())
}
