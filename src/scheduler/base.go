package scheduler

import (
	"context"

	"finance/src/utils"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs housekeeping jobs on cron specs. A job still running when its next
// tick arrives is skipped, and a panicking job is logged rather than crashing the process.
type Scheduler struct {
	cron   *cron.Cron
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(logger)
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		)),
		logger: logger,
	}
}

// Add registers task under name. Tasks receive a context carrying a logger tagged with the job name.
func (s *Scheduler) Add(spec, name string, task func(ctx context.Context)) error {
	entry := s.logger.WithField("job", name)
	_, err := s.cron.AddFunc(spec, func() {
		task(utils.WithLogger(context.Background(), entry))
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and returns a context that is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
