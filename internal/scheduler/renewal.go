// Package scheduler runs the daily auto-renewal sweep.
package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/lease-backend/internal/clock"
	"github.com/javajoker/lease-backend/internal/services"
)

// Sweeper is the part of the lease service the scheduler drives.
type Sweeper interface {
	ProcessAutoRenewals(ctx context.Context) ([]services.RenewalOutcome, error)
}

type RenewalScheduler struct {
	sweeper  Sweeper
	hour     int
	location *time.Location

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

func NewRenewalScheduler(sweeper Sweeper, hour int, loc *time.Location) *RenewalScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &RenewalScheduler{
		sweeper:  sweeper,
		hour:     hour,
		location: loc,
		now:      time.Now,
		after:    time.After,
	}
}

// Start blocks, running one sweep per day at the configured hour until ctx is cancelled.
// Runs are sequential: the next wait starts only after the previous sweep returns.
func (s *RenewalScheduler) Start(ctx context.Context) {
	log := logrus.WithFields(logrus.Fields{"component": "renewal_scheduler", "hour": s.hour, "tz": s.location.String()})
	log.Info("Auto-renewal scheduler started")

	for {
		now := s.now().In(s.location)
		next := clock.NextRun(now, s.hour)
		log.WithField("next_run", next.Format(time.RFC3339)).Debug("Waiting for next auto-renewal sweep")

		select {
		case <-ctx.Done():
			log.Info("Auto-renewal scheduler stopped")
			return
		case <-s.after(next.Sub(now)):
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and logs its outcome. Errors never stop the scheduler.
func (s *RenewalScheduler) RunOnce(ctx context.Context) {
	outcomes, err := s.sweeper.ProcessAutoRenewals(ctx)
	if err != nil {
		logrus.WithError(err).Error("Auto-renewal sweep failed")
		return
	}
	for _, o := range outcomes {
		if o.Result != services.RenewalRenewed {
			continue
		}
		logrus.WithFields(logrus.Fields{
			"lease_id":         o.LeaseID,
			"agreement_number": o.AgreementNumber,
			"expiry_date":      o.ExpiryDate.String(),
		}).Info("Lease auto-renewed")
	}
}
