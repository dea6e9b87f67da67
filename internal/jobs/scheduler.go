// Package jobs runs the opt-in background sweep that cancels huddles nobody
// closed.
package jobs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Expirer cancels live huddles past their end time plus grace.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	spec    string
	expirer Expirer
}

// NewScheduler runs in UTC so the sweep spec reads the same on every host.
func NewScheduler(spec string, expirer Expirer) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		spec:    spec,
		expirer: expirer,
	}
}

// Enabled reports whether a sweep schedule was configured.
func (s *Scheduler) Enabled() bool {
	return s.spec != ""
}

// Start registers the sweep and starts the cron loop. ctx is passed to every
// run, so cancelling it aborts an in-flight sweep. Without a schedule it only
// logs that the sweep is off.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.Enabled() {
		log.Info("[CRON] huddle sweep disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return errors.Wrapf(err, "schedule huddle sweep %q", s.spec)
	}

	s.cron.Start()
	log.WithField("spec", s.spec).Info("[CRON] huddle sweep scheduled")
	return nil
}

func (s *Scheduler) RunOnce(ctx context.Context) {
	log.Debug("[CRON] sweeping overdue huddles")
	n, err := s.expirer.ExpireOverdue(ctx)
	if err != nil {
		log.WithError(err).Error("[CRON] huddle sweep failed")
		return
	}
	if n > 0 {
		log.WithField("count", n).Info("[CRON] huddle sweep cancelled overdue huddles")
	}
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("[CRON] scheduler stopped")
}
