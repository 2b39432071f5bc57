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

// CompanyHandler handles HTTP requests for company reference-data endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the companyService.
type CompanyHandler struct {
	companyService *service.CompanyService
}

// NewCompanyHandler creates a new CompanyHandler with the provided service dependency.
func NewCompanyHandler(companyService *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
	}
}

// GetAllCompanies handles GET requests to retrieve all listed companies.
//
// Endpoint: GET /api/company?sector=
// Response: 200 OK with array of Company
// Error: 500 Internal Server Error if retrieval fails
func (h *CompanyHandler) GetAllCompanies(w http.ResponseWriter, r *http.Request) {

	companies, err := h.companyService.GetAllCompanies(r.URL.Query().Get("sector"))
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveCompanies.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, companies)
}

// GetCompany handles GET requests to retrieve one company by symbol.
//
// Endpoint: GET /api/company/{symbol}
// Response: 200 OK with Company
// Error: 404 Not Found if the symbol is not listed
// Error: 500 Internal Server Error if retrieval fails
func (h *CompanyHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	company, err := h.companyService.GetCompany(symbol)
	if err != nil {
		if errors.Is(err, apperrors.ErrCompanyNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrCompanyNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveCompanies.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, company)
}

// CreateCompany handles POST requests to list a new company.
//
// Endpoint: POST /api/company
// Request Body: CreateCompanyRequest (symbol, name, and optionally sector, parValue)
// Response: 201 Created with Company
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 409 Conflict if the symbol is already listed
// Error: 500 Internal Server Error if creation fails
func (h *CompanyHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateCompanyRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateCompany(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	company, err := h.companyService.CreateCompany(r.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateSymbol) {
			response.RespondError(w, http.StatusConflict, apperrors.ErrDuplicateSymbol.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to create company", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, company)
}

// UpdateCompany handles PUT requests to modify a listed company.
//
// Endpoint: PUT /api/company/{symbol}
// Request Body: UpdateCompanyRequest (all fields optional)
// Response: 200 OK with updated Company
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if the symbol is not listed
// Error: 500 Internal Server Error if the update fails
func (h *CompanyHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	req, err := parseJSON[request.UpdateCompanyRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateCompany(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	company, err := h.companyService.UpdateCompany(r.Context(), symbol, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrCompanyNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrCompanyNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to update company", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, company)
}

// DeleteCompany handles DELETE requests to delist a company.
//
// Endpoint: DELETE /api/company/{symbol}
// Response: 204 No Content
// Error: 404 Not Found if the symbol is not listed
// Error: 500 Internal Server Error if the delete fails
func (h *CompanyHandler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	if err := h.companyService.DeleteCompany(r.Context(), symbol); err != nil {
		if errors.Is(err, apperrors.ErrCompanyNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrCompanyNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to delete company", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}
