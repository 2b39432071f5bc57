package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nepseutils/stock-backoffice/internal/api/request"
	"github.com/nepseutils/stock-backoffice/internal/api/response"
	"github.com/nepseutils/stock-backoffice/internal/apperrors"
	"github.com/nepseutils/stock-backoffice/internal/service"
	"github.com/nepseutils/stock-backoffice/internal/validation"
)

// PriceHandler handles HTTP requests for price-history endpoints.
type PriceHandler struct {
	priceService *service.PriceService
}

// NewPriceHandler creates a new PriceHandler with the provided service dependency.
func NewPriceHandler(priceService *service.PriceService) *PriceHandler {
	return &PriceHandler{
		priceService: priceService,
	}
}

// ImportPrices handles POST requests to bulk-import raw daily price rows.
// Existing (symbol, date) rows are skipped; touched securities get their
// adjusted series refreshed.
//
// Endpoint: POST /api/price/import
// Request Body: ImportPricesRequest
// Response: 200 OK with PriceImportResult
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if the import fails
func (h *PriceHandler) ImportPrices(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ImportPricesRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateImportPrices(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.priceService.ImportDaily(r.Context(), req.Prices)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to import prices", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// GetRawPrices handles GET requests for a security's raw daily series.
//
// Endpoint: GET /api/price/{symbol}?startDate=&endDate=
// Response: 200 OK with array of RawPrice
// Error: 400 Bad Request for malformed dates or an inverted range
// Error: 500 Internal Server Error if retrieval fails
func (h *PriceHandler) GetRawPrices(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid date parameter", err.Error())
		return
	}

	prices, err := h.priceService.GetRawPrices(symbol, startDate, endDate)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidDateRange) {
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidDateRange.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrievePrices.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, prices)
}

// GetAdjustedPrices handles GET requests for a security's corporate-action-
// adjusted series, the sole price source for reporting and technical analysis.
//
// Endpoint: GET /api/price/{symbol}/adjusted?startDate=&endDate=
// Response: 200 OK with array of AdjustedPrice
// Error: 400 Bad Request for malformed dates or an inverted range
// Error: 500 Internal Server Error if retrieval fails
func (h *PriceHandler) GetAdjustedPrices(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid date parameter", err.Error())
		return
	}

	prices, err := h.priceService.GetAdjustedPrices(symbol, startDate, endDate)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidDateRange) {
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidDateRange.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrievePrices.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, prices)
}
