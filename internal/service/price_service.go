package service

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nepseutils/stock-backoffice/internal/apperrors"
	"github.com/nepseutils/stock-backoffice/internal/api/request"
	"github.com/nepseutils/stock-backoffice/internal/model"
	"github.com/nepseutils/stock-backoffice/internal/repository"
)

// PriceService handles price-history business logic: bulk import of raw daily
// rows from the ingestion collaborator and read access to the raw and
// adjusted series.
type PriceService struct {
	priceRepo         *repository.PriceRepository
	actionRepo        *repository.ActionRepository
	adjustmentService *AdjustmentService
}

// NewPriceService creates a new PriceService with the provided dependencies.
func NewPriceService(
	priceRepo *repository.PriceRepository,
	actionRepo *repository.ActionRepository,
	adjustmentService *AdjustmentService,
) *PriceService {
	return &PriceService{
		priceRepo:         priceRepo,
		actionRepo:        actionRepo,
		adjustmentService: adjustmentService,
	}
}

// ImportDaily appends a batch of raw daily price rows. Raw history is
// append-only: rows whose (symbol, date) already exist are skipped and
// counted, never overwritten. Every symbol that received at least one new row
// has its adjusted series refreshed afterwards: a full rebuild when the
// symbol has corporate actions, the fast 1:1 copy otherwise. Refresh failures
// are reported per symbol; the import itself stands.
func (s *PriceService) ImportDaily(ctx context.Context, rows []request.RawPriceRow) (*model.PriceImportResult, error) {
	result := &model.PriceImportResult{
		SymbolsTouched: []string{},
		RecalcFailed:   []string{},
	}

	touched := map[string]bool{}

	for _, row := range rows {
		date, err := repository.ParseTime(row.Date)
		if err != nil {
			return nil, err
		}

		price := &model.RawPrice{
			ID:         uuid.NewString(),
			Symbol:     strings.ToUpper(strings.TrimSpace(row.Symbol)),
			Date:       date,
			Open:       row.Open,
			High:       row.High,
			Low:        row.Low,
			Close:      row.Close,
			AvgPrice:   row.AvgPrice,
			TradeCount: row.TradeCount,
			Volume:     row.Volume,
		}

		inserted, err := s.priceRepo.InsertRaw(ctx, price)
		if err != nil {
			return nil, err
		}

		if inserted {
			result.Inserted++
			touched[price.Symbol] = true
		} else {
			result.Skipped++
		}
	}

	withActions, err := s.actionRepo.SymbolsWithActions()
	if err != nil {
		return nil, err
	}

	for symbol := range touched {
		result.SymbolsTouched = append(result.SymbolsTouched, symbol)

		if withActions[symbol] {
			_, err = s.adjustmentService.Rebuild(ctx, symbol)
		} else {
			_, err = s.adjustmentService.CopyUnadjusted(ctx, symbol)
		}
		if err != nil {
			log.Printf("Adjusted-series refresh of %s after price import failed: %v", symbol, err)
			result.RecalcFailed = append(result.RecalcFailed, symbol)
		}
	}

	sort.Strings(result.SymbolsTouched)

	return result, nil
}

// GetRawPrices retrieves the raw daily series for a symbol within the given
// range (zero times leave a bound open).
func (s *PriceService) GetRawPrices(symbol string, startDate, endDate time.Time) ([]model.RawPrice, error) {
	if err := validateRange(startDate, endDate); err != nil {
		return nil, err
	}
	return s.priceRepo.GetRawPrices(strings.ToUpper(symbol), startDate, endDate)
}

// GetAdjustedPrices retrieves the corporate-action-adjusted series for a
// symbol within the given range. This series is the sole source of historical
// prices for reporting and technical-analysis consumers.
func (s *PriceService) GetAdjustedPrices(symbol string, startDate, endDate time.Time) ([]model.AdjustedPrice, error) {
	if err := validateRange(startDate, endDate); err != nil {
		return nil, err
	}
	return s.priceRepo.GetAdjustedPrices(strings.ToUpper(symbol), startDate, endDate)
}

func validateRange(startDate, endDate time.Time) error {
	if !startDate.IsZero() && !endDate.IsZero() && startDate.After(endDate) {
		return apperrors.ErrInvalidDateRange
	}
	return nil
}
