package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/cragcast/cragcast/internal/alert"
)

// Scheduler periodically runs the alert scan pass.
type Scheduler struct {
	scheduler *gocron.Scheduler
	scanner   *alert.Scanner
	interval  time.Duration
}

// New creates a new Scheduler.
func New(scanner *alert.Scanner, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		scanner:   scanner,
		interval:  interval,
	}
}

// Start schedules the recurring scan and starts the underlying scheduler.
// The job runs in singleton mode: a firing that would overlap a still
// running pass is skipped. The scanner carries its own guard as well, so a
// manually triggered pass cannot interleave either.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().SingletonMode().Do(func() {
		log.Println("scheduler: running weather check job")

		report, err := s.scanner.Run(context.Background())
		if err != nil {
			if errors.Is(err, alert.ErrScanInProgress) {
				log.Println("scheduler: previous pass still running; skipping")
				return
			}
			log.Printf("scheduler: scan failed: %v", err)
			return
		}

		log.Printf("scheduler: checked %d forecasts, sent %d emails", report.Considered, report.Sent)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
