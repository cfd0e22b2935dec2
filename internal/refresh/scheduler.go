package refresh

import (
	"context"
	"sync/atomic"
	"time"

	"poeroll/internal/components/assert"
	"poeroll/internal/components/chrono"
	"poeroll/internal/components/telemetry"
)

const report_scheduler_tick = "scheduler.tick"

const DefaultSchedule = "0 4 * * *"

// Scheduler runs a Refresher on a cron spec, never two runs at once.
type Scheduler struct {
	refresher *Refresher
	cron      chrono.CronAPI
	tel       telemetry.API
	// RunTimeout bounds a single scheduled run.
	RunTimeout time.Duration

	running atomic.Bool
}

func NewScheduler(refresher *Refresher, cron chrono.CronAPI, tel telemetry.API) *Scheduler {
	assert.NotNil(refresher, "refresher")
	assert.NotNil(cron, "cron")
	return &Scheduler{
		refresher:  refresher,
		cron:       cron,
		tel:        telemetry.NewScopedAPI("scheduler", tel),
		RunTimeout: time.Minute * 10,
	}
}

func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		spec = DefaultSchedule
	}
	return s.cron.Cron(spec, func() {
		s.Trigger(context.Background())
	})
}

// Trigger runs a refresh now, ran is false if one was already in flight.
func (s *Scheduler) Trigger(ctx context.Context) (result Result, ran bool, err error) {
	if !s.running.CompareAndSwap(false, true) {
		s.tel.ReportWarning(report_scheduler_tick, "previous refresh still running, skipped")
		return Result{}, false, nil
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.RunTimeout)
	defer cancel()

	result, err = s.refresher.Run(ctx)
	if err == nil {
		s.tel.ReportDebug(report_scheduler_tick, result.Info.RunId, result.Info.Ascendancies, result.Info.Gems)
	}
	return result, true, err
}

// Stop waits for a scheduled run in flight to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
