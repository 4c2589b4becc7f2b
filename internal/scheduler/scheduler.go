package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-etl-pipeline/internal/pipeline"
)

// Runner is anything that can be triggered on a schedule, such as the collector.
type Runner interface {
	Run(ctx context.Context) pipeline.Response
}

// Scheduler triggers the collector on a cron expression, standing in for the
// platform scheduler when running locally.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	spec      string
}

// New creates a new Scheduler. spec is a standard five-field cron expression in UTC.
func New(spec string, runner Runner) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		spec:      spec,
	}
}

// Start schedules the job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.spec == "" {
		logrus.Info("scheduler: no schedule configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Cron(s.spec).Do(s.runOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	logrus.Infof("scheduler: collector scheduled with %q", s.spec)
	return nil
}

func (s *Scheduler) runOnce() {
	logrus.Info("scheduler: running collector job")
	resp := s.runner.Run(context.Background())
	if !resp.Succeeded() {
		logrus.Errorf("scheduler: collector job failed: %s", resp.Body)
		return
	}
	logrus.Infof("scheduler: collector job completed: %s", resp.Body)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
