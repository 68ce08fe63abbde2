package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/iliyamo/campus-events/internal/logger"
)

// Job is a named periodic task run by the scheduler.
type Job struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context) error
}

// RefreshJob recomputes the dashboard snapshot.
func (s *Service) RefreshJob(every time.Duration) Job {
	return Job{
		Name:  "stats-refresh",
		Every: every,
		Run: func(ctx context.Context) error {
			_, err := s.Refresh(ctx)
			return err
		},
	}
}

// StartScheduler registers jobs on a gocron scheduler and starts it.  Each
// run gets a context bounded by its interval, and a slow run is skipped
// rather than overlapped.  The caller shuts the scheduler down.
func StartScheduler(log *slog.Logger, jobs ...Job) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	for _, j := range jobs {
		if j.Every <= 0 {
			continue
		}
		job := j
		_, err := sched.NewJob(
			gocron.DurationJob(job.Every),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), job.Every)
				defer cancel()
				start := time.Now()
				if err := job.Run(ctx); err != nil {
					log.Error("scheduled job failed", slog.String("job", job.Name), logger.Err(err))
					return
				}
				log.Debug("scheduled job done", slog.String("job", job.Name), slog.Duration("took", time.Since(start)))
			}),
			gocron.WithName(job.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = sched.Shutdown()
			return nil, err
		}
	}
	sched.Start()
	return sched, nil
}
