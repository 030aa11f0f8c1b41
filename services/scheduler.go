// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

// ScheduledJob is one periodic background task.
type ScheduledJob struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context)
}

// StartScheduler registers jobs and starts running them. Runs never overlap per job.
// Call Shutdown on the returned scheduler to stop.
func StartScheduler(ctx context.Context, clock clockwork.Clock, jobs ...ScheduledJob) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	for _, job := range jobs {
		job := job
		_, err := sched.NewJob(
			gocron.DurationJob(job.Every),
			gocron.NewTask(func() {
				if ctx.Err() != nil {
					return
				}
				job.Run(ctx)
			}),
			gocron.WithName(job.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = sched.Shutdown()
			return nil, fmt.Errorf("[Scheduler] register %s: %w", job.Name, err)
		}
		log.Printf("⏱️  [Scheduler] %s every %s", job.Name, job.Every)
	}

	sched.Start()
	return sched, nil
}

// SessionSweepJob evicts sessions idle for longer than ttl.
func SessionSweepJob(registry *SessionRegistry, ttl time.Duration) ScheduledJob {
	every := ttl / 2
	if every < time.Minute {
		every = time.Minute
	}
	return ScheduledJob{
		Name:  "session-sweep",
		Every: every,
		Run: func(context.Context) {
			registry.Sweep(ttl)
		},
	}
}
