package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nepseutils/stock-backoffice/internal/apperrors"
	"github.com/nepseutils/stock-backoffice/internal/model"
	"github.com/nepseutils/stock-backoffice/internal/repository"
)

// RecalcService coordinates full-universe recalculation of adjusted price
// series and tracks job progress in an in-memory store keyed by job ID.
// The triggering caller gets a job handle immediately and polls for status;
// securities are processed sequentially inside a single background goroutine.
type RecalcService struct {
	adjustmentService *AdjustmentService
	priceRepo         *repository.PriceRepository
	actionRepo        *repository.ActionRepository

	mu   sync.RWMutex
	jobs map[string]*model.RecalcJob
}

// NewRecalcService creates a new RecalcService with the provided dependencies.
func NewRecalcService(
	adjustmentService *AdjustmentService,
	priceRepo *repository.PriceRepository,
	actionRepo *repository.ActionRepository,
) *RecalcService {
	return &RecalcService{
		adjustmentService: adjustmentService,
		priceRepo:         priceRepo,
		actionRepo:        actionRepo,
		jobs:              map[string]*model.RecalcJob{},
	}
}

// Start registers a new recalculation job and launches it in the background.
// Returns the job ID for status polling.
func (s *RecalcService) Start() (string, error) {
	job := &model.RecalcJob{
		ID:        uuid.NewString(),
		Status:    model.JobPending,
		Message:   "queued",
		StartedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	go s.run(job.ID)

	return job.ID, nil
}

// Get returns a copy of the job's current status snapshot.
func (s *RecalcService) Get(jobID string) (model.RecalcJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return model.RecalcJob{}, apperrors.ErrJobNotFound
	}

	snapshot := *job
	snapshot.FailedSymbols = append([]string(nil), job.FailedSymbols...)
	return snapshot, nil
}

// Clear removes a finished job's status record. It never stops a running job:
// clearing one returns apperrors.ErrJobStillRunning.
func (s *RecalcService) Clear(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return apperrors.ErrJobNotFound
	}
	if !job.Status.Finished() {
		return apperrors.ErrJobStillRunning
	}

	delete(s.jobs, jobID)
	return nil
}

// update applies fn to the stored job under the write lock.
func (s *RecalcService) update(jobID string, fn func(*model.RecalcJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[jobID]; ok {
		fn(job)
	}
}

// run executes one batch recalculation to completion. Symbols with at least
// one corporate action ever recorded are rebuilt first; the rest get the
// unadjusted fast copy. One symbol's failure never blocks another's: it is
// recorded by name and the loop continues. Only a failure to enumerate the
// universe at all is fatal to the job.
func (s *RecalcService) run(jobID string) {
	ctx := context.Background()

	symbols, err := s.priceRepo.ListSymbols()
	if err != nil {
		s.fail(jobID, fmt.Errorf("failed to enumerate securities: %w", err))
		return
	}

	withActions, err := s.actionRepo.SymbolsWithActions()
	if err != nil {
		s.fail(jobID, fmt.Errorf("failed to partition securities: %w", err))
		return
	}

	adjusted := []string{}
	unadjusted := []string{}
	for _, symbol := range symbols {
		if withActions[symbol] {
			adjusted = append(adjusted, symbol)
		} else {
			unadjusted = append(unadjusted, symbol)
		}
	}

	total := len(symbols)
	s.update(jobID, func(job *model.RecalcJob) {
		job.Status = model.JobRunning
		job.Total = total
		job.Message = fmt.Sprintf("recalculating %d securities", total)
	})

	processed := 0
	failed := []string{}

	process := func(symbol string, rebuild bool) {
		s.update(jobID, func(job *model.RecalcJob) {
			job.Message = fmt.Sprintf("processing %s (%d of %d)", symbol, processed+1, total)
		})

		var err error
		if rebuild {
			_, err = s.adjustmentService.Rebuild(ctx, symbol)
		} else {
			_, err = s.adjustmentService.CopyUnadjusted(ctx, symbol)
		}
		if err != nil {
			log.Printf("Recalculation of %s failed: %v", symbol, err)
			failed = append(failed, symbol)
		}

		processed++
		s.update(jobID, func(job *model.RecalcJob) {
			job.Progress = processed
			job.FailedSymbols = append([]string(nil), failed...)
		})
	}

	for _, symbol := range adjusted {
		process(symbol, true)
	}
	for _, symbol := range unadjusted {
		process(symbol, false)
	}

	s.update(jobID, func(job *model.RecalcJob) {
		job.FinishedAt = time.Now().UTC()
		if len(failed) > 0 {
			job.Status = model.JobCompletedWithErrors
			job.Message = fmt.Sprintf("completed with %d of %d securities failed", len(failed), total)
		} else {
			job.Status = model.JobSuccess
			job.Message = fmt.Sprintf("recalculated %d securities", total)
		}
	})
}

// fail marks a job as fatally errored before its per-security loop began.
func (s *RecalcService) fail(jobID string, err error) {
	log.Printf("Recalculation job %s failed: %v", jobID, err)
	s.update(jobID, func(job *model.RecalcJob) {
		job.Status = model.JobError
		job.Message = err.Error()
		job.FinishedAt = time.Now().UTC()
	})
}
