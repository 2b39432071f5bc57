// Package scheduler runs the nightly batch recalculation on a cron schedule.
package scheduler

import (
	"log"

	"github.com/robfig/cron/v3"

	"github.com/nepseutils/stock-backoffice/internal/service"
)

// Scheduler owns the cron runner for periodic recalculation jobs.
type Scheduler struct {
	cron          *cron.Cron
	recalcService *service.RecalcService
	schedule      string
}

// New creates a Scheduler that starts a full recalculation on the given cron
// expression (standard five-field format).
func New(recalcService *service.RecalcService, schedule string) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		recalcService: recalcService,
		schedule:      schedule,
	}
}

// Start registers the recalculation job and starts the cron runner.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		jobID, err := s.recalcService.Start()
		if err != nil {
			log.Printf("ERROR: scheduled recalculation failed to start: %v", err)
			return
		}
		log.Printf("INFO: scheduled recalculation started, job %s", jobID)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("INFO: recalculation scheduler running with schedule %q", s.schedule)
	return nil
}

// Stop halts the cron runner and waits for a running trigger to return.
// The recalculation job itself runs on its own goroutine and is not stopped.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
