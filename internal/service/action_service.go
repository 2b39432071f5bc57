package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nepseutils/stock-backoffice/internal/api/request"
	"github.com/nepseutils/stock-backoffice/internal/model"
	"github.com/nepseutils/stock-backoffice/internal/repository"
)

// ActionService handles corporate-action business logic. Every create, update
// or delete whose book-close date is not strictly in the future triggers a
// synchronous rebuild of the affected security's adjusted series. The save
// and the rebuild succeed or fail independently so a caller can distinguish
// "saved but recalculation failed" from "not saved".
type ActionService struct {
	actionRepo        *repository.ActionRepository
	companyRepo       *repository.CompanyRepository
	adjustmentService *AdjustmentService

	now func() time.Time
}

// NewActionService creates a new ActionService with the provided dependencies.
func NewActionService(
	actionRepo *repository.ActionRepository,
	companyRepo *repository.CompanyRepository,
	adjustmentService *AdjustmentService,
) *ActionService {
	return &ActionService{
		actionRepo:        actionRepo,
		companyRepo:       companyRepo,
		adjustmentService: adjustmentService,
		now:               time.Now,
	}
}

// WithClock overrides the service's notion of "now" used for the
// future-dated trigger decision.
func (s *ActionService) WithClock(now func() time.Time) *ActionService {
	s.now = now
	return s
}

// GetAllActions retrieves corporate actions, optionally filtered by symbol,
// in book-close order.
func (s *ActionService) GetAllActions(symbol string) ([]model.CorporateAction, error) {
	return s.actionRepo.List(strings.ToUpper(symbol))
}

// GetAction retrieves a single corporate action by ID.
func (s *ActionService) GetAction(actionID string) (*model.CorporateAction, error) {
	return s.actionRepo.Get(actionID)
}

// CreateAction records a new corporate action for a listed company and, if it
// is already effective, rebuilds the security's adjusted series.
// A returned error means the action was not saved.
func (s *ActionService) CreateAction(ctx context.Context, req request.CreateActionRequest) (*model.ActionWriteResult, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))

	if _, err := s.companyRepo.GetBySymbol(symbol); err != nil {
		return nil, err
	}

	bookClose, err := repository.ParseTime(req.BookClose)
	if err != nil {
		return nil, err
	}

	action := &model.CorporateAction{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Kind:      req.Kind,
		Rate:      req.Rate,
		ParValue:  req.ParValue,
		BookClose: bookClose,
	}

	if err := s.actionRepo.Insert(ctx, action); err != nil {
		return nil, err
	}

	result := s.maybeRecalculate(ctx, symbol, bookClose)
	result.Action, err = s.actionRepo.Get(action.ID)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateAction modifies an existing corporate action and rebuilds the
// adjusted series of every security the change touches. When the action moves
// between symbols, both the old and the new symbol are rebuilt.
func (s *ActionService) UpdateAction(ctx context.Context, actionID string, req request.UpdateActionRequest) (*model.ActionWriteResult, error) {
	action, err := s.actionRepo.Get(actionID)
	if err != nil {
		return nil, err
	}

	previousSymbol := action.Symbol
	previousBookClose := action.BookClose

	if req.Symbol != "" {
		symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
		if _, err := s.companyRepo.GetBySymbol(symbol); err != nil {
			return nil, err
		}
		action.Symbol = symbol
	}
	if req.Kind != "" {
		action.Kind = req.Kind
	}
	if req.Rate != nil {
		action.Rate = *req.Rate
	}
	if req.ParValue != nil {
		action.ParValue = *req.ParValue
	}
	if req.BookClose != "" {
		action.BookClose, err = repository.ParseTime(req.BookClose)
		if err != nil {
			return nil, err
		}
	}

	if err := s.actionRepo.Update(ctx, action); err != nil {
		return nil, err
	}

	// The earlier of the two positions decides whether history was already
	// affected before the edit.
	earliest := action.BookClose
	if previousBookClose.Before(earliest) {
		earliest = previousBookClose
	}

	result := s.maybeRecalculate(ctx, action.Symbol, earliest)
	if previousSymbol != action.Symbol {
		other := s.maybeRecalculate(ctx, previousSymbol, earliest)
		result.Recalculated = result.Recalculated || other.Recalculated
		if other.RecalcFailed {
			result.RecalcFailed = true
			result.RecalcError = strings.TrimSpace(result.RecalcError + " " + other.RecalcError)
		}
	}

	result.Action, err = s.actionRepo.Get(actionID)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// DeleteAction removes a corporate action and rebuilds the security's
// adjusted series if the action had already taken effect.
func (s *ActionService) DeleteAction(ctx context.Context, actionID string) (*model.ActionWriteResult, error) {
	action, err := s.actionRepo.Get(actionID)
	if err != nil {
		return nil, err
	}

	if err := s.actionRepo.Delete(ctx, actionID); err != nil {
		return nil, err
	}

	result := s.maybeRecalculate(ctx, action.Symbol, action.BookClose)
	return result, nil
}

// ImportActions bulk-inserts corporate actions (e.g. from a parsed upload)
// and rebuilds each touched security once, after all rows are saved.
func (s *ActionService) ImportActions(ctx context.Context, reqs []request.CreateActionRequest) (*model.ActionImportResult, error) {
	result := &model.ActionImportResult{
		SymbolsTouched: []string{},
		RecalcFailed:   []string{},
	}

	touched := map[string]bool{}

	for _, req := range reqs {
		symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))

		if _, err := s.companyRepo.GetBySymbol(symbol); err != nil {
			return nil, err
		}

		bookClose, err := repository.ParseTime(req.BookClose)
		if err != nil {
			return nil, err
		}

		action := &model.CorporateAction{
			ID:        uuid.NewString(),
			Symbol:    symbol,
			Kind:      req.Kind,
			Rate:      req.Rate,
			ParValue:  req.ParValue,
			BookClose: bookClose,
		}

		if err := s.actionRepo.Insert(ctx, action); err != nil {
			return nil, err
		}

		result.Imported++
		touched[symbol] = true
	}

	for symbol := range touched {
		result.SymbolsTouched = append(result.SymbolsTouched, symbol)
		if _, err := s.adjustmentService.Rebuild(ctx, symbol); err != nil {
			log.Printf("Rebuild of %s after action import failed: %v", symbol, err)
			result.RecalcFailed = append(result.RecalcFailed, symbol)
		}
	}

	return result, nil
}

// maybeRecalculate rebuilds a symbol's adjusted series when the action's
// book-close date is not strictly in the future. Rebuild failures are
// reported, not returned: the action itself is already saved.
func (s *ActionService) maybeRecalculate(ctx context.Context, symbol string, bookClose time.Time) *model.ActionWriteResult {
	result := &model.ActionWriteResult{}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if bookClose.After(today) {
		return result
	}

	if _, err := s.adjustmentService.Rebuild(ctx, symbol); err != nil {
		log.Printf("Rebuild of %s after action change failed: %v", symbol, err)
		result.RecalcFailed = true
		result.RecalcError = err.Error()
		return result
	}

	result.Recalculated = true
	return result
}
