package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nepseutils/stock-backoffice/internal/adjust"
	"github.com/nepseutils/stock-backoffice/internal/model"
	"github.com/nepseutils/stock-backoffice/internal/repository"
)

// AdjustmentService owns the adjusted price series. Rebuild regenerates one
// security's series from scratch; CopyUnadjusted is the fast path for
// securities without corporate actions. Each call runs in a single
// transaction, and calls for the same symbol are serialized through a
// per-symbol lock so an interactive edit cannot interleave with the batch job.
type AdjustmentService struct {
	db          *sql.DB
	priceRepo   *repository.PriceRepository
	actionRepo  *repository.ActionRepository
	companyRepo *repository.CompanyRepository

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

// NewAdjustmentService creates a new AdjustmentService with the provided
// repository dependencies.
func NewAdjustmentService(
	db *sql.DB,
	priceRepo *repository.PriceRepository,
	actionRepo *repository.ActionRepository,
	companyRepo *repository.CompanyRepository,
) *AdjustmentService {
	return &AdjustmentService{
		db:          db,
		priceRepo:   priceRepo,
		actionRepo:  actionRepo,
		companyRepo: companyRepo,
		locks:       map[string]*sync.Mutex{},
		now:         time.Now,
	}
}

// WithClock overrides the service's notion of "now". Book-close dates are
// compared against it to decide whether an action is due.
func (s *AdjustmentService) WithClock(now func() time.Time) *AdjustmentService {
	s.now = now
	return s
}

// symbolLock returns the mutex serializing rebuilds of one symbol.
func (s *AdjustmentService) symbolLock(symbol string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[symbol]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[symbol] = lock
	}
	return lock
}

// today returns the current date truncated to midnight UTC.
func (s *AdjustmentService) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Rebuild regenerates the full adjusted price series for one security:
//
//  1. Discard the existing adjusted rows.
//  2. Copy the raw series 1:1 with adjustment factor 1.
//  3. Apply every due corporate action in book-close order: compute the
//     factor from the adjusted close immediately preceding the book-close
//     date, multiply every row strictly before that date, and persist the
//     factor and touched-row count on the action record.
//  4. Recompute the trailing 52-week high/low over the final series.
//
// Future-dated actions are skipped and reported via RebuildResult.Pending.
// The whole rebuild is one transaction: any failure rolls back to the
// pre-rebuild state and is returned to the caller, who records the symbol as
// failed rather than aborting a batch.
func (s *AdjustmentService) Rebuild(ctx context.Context, symbol string) (*model.RebuildResult, error) {
	lock := s.symbolLock(symbol)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin rebuild transaction: %w", err)
	}
	//nolint:errcheck // Rollback after commit is a no-op.
	defer tx.Rollback()

	priceRepo := s.priceRepo.WithTx(tx)
	actionRepo := s.actionRepo.WithTx(tx)
	companyRepo := s.companyRepo.WithTx(tx)

	result := &model.RebuildResult{Symbol: symbol, Unresolved: []string{}}

	if err := priceRepo.DeleteAdjusted(ctx, symbol); err != nil {
		return nil, err
	}

	result.Rows, err = priceRepo.CopyRawToAdjusted(ctx, symbol)
	if err != nil {
		return nil, err
	}

	actions, err := actionRepo.List(symbol)
	if err != nil {
		return nil, err
	}

	today := s.today()

	for _, action := range actions {
		if action.BookClose.After(today) {
			// Declared but not yet effective: must not perturb history yet.
			result.Pending++
			continue
		}

		if err := s.applyAction(ctx, priceRepo, actionRepo, companyRepo, &action, result); err != nil {
			return nil, err
		}
		result.Applied++
	}

	if err := priceRepo.RefreshWeek52(ctx, symbol); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rebuild transaction: %w", err)
	}

	return result, nil
}

// applyAction resolves and applies one due corporate action on the running
// adjusted series. All reads, the company par-value lookup included, go
// through the rebuild transaction's repositories so the rebuild stays a
// single unit of work on one connection.
func (s *AdjustmentService) applyAction(
	ctx context.Context,
	priceRepo *repository.PriceRepository,
	actionRepo *repository.ActionRepository,
	companyRepo *repository.CompanyRepository,
	action *model.CorporateAction,
	result *model.RebuildResult,
) error {
	par := action.ParValue
	if par <= 0 {
		resolved, err := companyRepo.ParValue(action.Symbol, adjust.DefaultParValue)
		if err != nil {
			return err
		}
		par = resolved
	}

	prevClose, havePrev, err := priceRepo.LastAdjustedCloseBefore(ctx, action.Symbol, action.BookClose)
	if err != nil {
		return err
	}

	res := adjust.Factor(action.Kind, action.Rate, par, decimal.NewFromFloat(prevClose), havePrev)

	factor := res.Factor.Round(adjust.FactorPrecision).InexactFloat64()
	records := 0

	if res.Resolved {
		// Apply the unrounded factor so chained multiplications keep full
		// precision; the rounded value is only the audit copy.
		records, err = priceRepo.ApplyFactor(ctx, action.Symbol, action.BookClose, res.Factor.InexactFloat64())
		if err != nil {
			return err
		}
		if res.Reason != "" {
			log.Printf("WARN: action %s (%s %s): %s", action.ID, action.Symbol, action.Kind, res.Reason)
		}
	} else {
		// Neutral fallback: the action stays on record with no price effect.
		log.Printf("WARN: action %s (%s %s) left unapplied: %s", action.ID, action.Symbol, action.Kind, res.Reason)
		result.Unresolved = append(result.Unresolved, fmt.Sprintf("%s: %s", action.ID, res.Reason))
	}

	return actionRepo.SetAudit(ctx, action.ID, factor, records)
}

// CopyUnadjusted refreshes the adjusted series as a plain 1:1 copy of the raw
// series, for securities known to have no corporate actions. It produces the
// same rows Rebuild would when the action list is empty, without loading the
// action timeline.
func (s *AdjustmentService) CopyUnadjusted(ctx context.Context, symbol string) (*model.RebuildResult, error) {
	lock := s.symbolLock(symbol)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin copy transaction: %w", err)
	}
	//nolint:errcheck // Rollback after commit is a no-op.
	defer tx.Rollback()

	priceRepo := s.priceRepo.WithTx(tx)

	result := &model.RebuildResult{Symbol: symbol, Unresolved: []string{}}

	if err := priceRepo.DeleteAdjusted(ctx, symbol); err != nil {
		return nil, err
	}

	result.Rows, err = priceRepo.CopyRawToAdjusted(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if err := priceRepo.RefreshWeek52(ctx, symbol); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit copy transaction: %w", err)
	}

	return result, nil
}
