package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/nepseutils/stock-backoffice/internal/adjust"
	"github.com/nepseutils/stock-backoffice/internal/api/request"
	"github.com/nepseutils/stock-backoffice/internal/model"
	"github.com/nepseutils/stock-backoffice/internal/repository"
)

// CompanyService handles company reference-data business logic.
type CompanyService struct {
	companyRepo *repository.CompanyRepository
}

// NewCompanyService creates a new CompanyService with the provided repository dependency.
func NewCompanyService(companyRepo *repository.CompanyRepository) *CompanyService {
	return &CompanyService{
		companyRepo: companyRepo,
	}
}

// GetAllCompanies retrieves all listed companies, optionally filtered by sector.
func (s *CompanyService) GetAllCompanies(sector string) ([]model.Company, error) {
	return s.companyRepo.GetAll(sector)
}

// GetCompany retrieves the company listed under the given symbol.
func (s *CompanyService) GetCompany(symbol string) (*model.Company, error) {
	return s.companyRepo.GetBySymbol(symbol)
}

// CreateCompany lists a new company. The symbol is stored uppercase; a zero
// par value defaults to the standard nominal value.
func (s *CompanyService) CreateCompany(ctx context.Context, req request.CreateCompanyRequest) (*model.Company, error) {
	parValue := req.ParValue
	if parValue <= 0 {
		parValue = adjust.DefaultParValue
	}

	company := &model.Company{
		ID:       uuid.NewString(),
		Symbol:   strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Name:     req.Name,
		Sector:   req.Sector,
		ParValue: parValue,
	}

	if err := s.companyRepo.Insert(ctx, company); err != nil {
		return nil, err
	}

	return s.companyRepo.GetBySymbol(company.Symbol)
}

// UpdateCompany modifies a listed company's reference data.
func (s *CompanyService) UpdateCompany(ctx context.Context, symbol string, req request.UpdateCompanyRequest) (*model.Company, error) {
	company, err := s.companyRepo.GetBySymbol(symbol)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		company.Name = req.Name
	}
	if req.Sector != "" {
		company.Sector = req.Sector
	}
	if req.ParValue > 0 {
		company.ParValue = req.ParValue
	}

	if err := s.companyRepo.Update(ctx, company); err != nil {
		return nil, err
	}

	return s.companyRepo.GetBySymbol(symbol)
}

// DeleteCompany delists a company. Price history and corporate actions are
// keyed by symbol and survive the delete for audit purposes.
func (s *CompanyService) DeleteCompany(ctx context.Context, symbol string) error {
	return s.companyRepo.Delete(ctx, symbol)
}
