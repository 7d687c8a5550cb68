// services/scheduler.go
package services

import (
	"context"
	"time"

	"tournament-wallet-service/metrics"

	"github.com/go-co-op/gocron/v2"
)

// StartLifecycleScheduler moves tournaments through upcoming → live → completed on a fixed interval.
// Stop the returned scheduler with Shutdown.
func (s *TournamentService) StartLifecycleScheduler(interval time.Duration) (gocron.Scheduler, error) {
	if interval <= 0 {
		interval = time.Minute
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			moved, err := s.AdvanceLifecycle(ctx, s.now())
			metrics.RecordJobRun("tournament_lifecycle", err == nil)
			if err != nil {
				s.log.WithError(err).Error("[Scheduler] lifecycle pass failed")
				return
			}
			if moved > 0 {
				s.log.Infof("✅ Lifecycle pass moved %d tournament(s)", moved)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}
