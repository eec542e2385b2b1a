package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ScanRunner is implemented by the reminder service.
type ScanRunner interface {
	RunScan(ctx context.Context) error
}

const scanTimeout = 5 * time.Minute

// ReminderScheduler fires the reminder scan once per calendar day at a fixed
// local wall-clock time, independent of webhook traffic. A started scan is
// never aborted by external triggers.
type ReminderScheduler struct {
	cronEngine *cron.Cron
	runner     ScanRunner
	log        *logrus.Entry
	cronSpec   string
}

func NewReminderScheduler(runner ScanRunner, log *logrus.Entry, cronSpec string) *ReminderScheduler {
	return &ReminderScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		runner:     runner,
		log:        log,
		cronSpec:   cronSpec,
	}
}

func (s *ReminderScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.log.Info("Cron job triggered for daily reminder scan")
		ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
		defer cancel()
		if err := s.runner.RunScan(ctx); err != nil {
			s.log.WithError(err).Error("Daily reminder scan failed")
		}
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.log.WithField("cron_spec", s.cronSpec).Info("Reminder scheduler started")
	return nil
}

func (s *ReminderScheduler) Stop() {
	s.log.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop() // Stops new jobs, waits for running ones.
	<-ctx.Done()
	s.log.Info("Reminder scheduler gracefully stopped")
}
