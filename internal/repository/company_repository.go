package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nepseutils/stock-backoffice/internal/apperrors"
	"github.com/nepseutils/stock-backoffice/internal/model"
)

// CompanyRepository provides data access methods for the company table.
type CompanyRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewCompanyRepository creates a new CompanyRepository with the provided database connection.
func NewCompanyRepository(db *sql.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) WithTx(tx *sql.Tx) *CompanyRepository {
	return &CompanyRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *CompanyRepository) getQuerier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetAll retrieves all companies, optionally filtered by sector.
// Returns an empty slice if no companies are found.
func (r *CompanyRepository) GetAll(sector string) ([]model.Company, error) {
	query := `
		SELECT id, symbol, name, sector, par_value, created_at
		FROM company
	`

	var args []any

	if sector != "" {
		query += ` WHERE sector = ?`
		args = append(args, sector)
	}

	query += ` ORDER BY symbol ASC`

	rows, err := r.getQuerier().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query company table: %w", err)
	}
	defer rows.Close()

	companies := []model.Company{}

	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, *company)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating company table: %w", err)
	}

	return companies, nil
}

// GetBySymbol retrieves the company listed under the given symbol.
// Returns apperrors.ErrCompanyNotFound if no such company exists.
func (r *CompanyRepository) GetBySymbol(symbol string) (*model.Company, error) {
	query := `
		SELECT id, symbol, name, sector, par_value, created_at
		FROM company
		WHERE symbol = ?
	`

	rows, err := r.getQuerier().Query(query, strings.ToUpper(symbol))
	if err != nil {
		return nil, fmt.Errorf("failed to query company table: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating company table: %w", err)
		}
		return nil, apperrors.ErrCompanyNotFound
	}

	return scanCompany(rows)
}

// Insert adds a new company record.
// Returns apperrors.ErrDuplicateSymbol when the symbol is already listed.
func (r *CompanyRepository) Insert(ctx context.Context, company *model.Company) error {
	query := `
		INSERT INTO company (id, symbol, name, sector, par_value)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		company.ID,
		strings.ToUpper(company.Symbol),
		company.Name,
		company.Sector,
		company.ParValue,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperrors.ErrDuplicateSymbol
		}
		return fmt.Errorf("failed to insert company: %w", err)
	}

	return nil
}

// Update modifies an existing company record identified by symbol.
// Returns apperrors.ErrCompanyNotFound if the symbol is not listed.
func (r *CompanyRepository) Update(ctx context.Context, company *model.Company) error {
	query := `
		UPDATE company
		SET name = ?, sector = ?, par_value = ?
		WHERE symbol = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query,
		company.Name,
		company.Sector,
		company.ParValue,
		strings.ToUpper(company.Symbol),
	)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrCompanyNotFound
	}

	return nil
}

// Delete removes the company listed under the given symbol.
// Returns apperrors.ErrCompanyNotFound if the symbol is not listed.
func (r *CompanyRepository) Delete(ctx context.Context, symbol string) error {
	result, err := r.getQuerier().ExecContext(ctx,
		`DELETE FROM company WHERE symbol = ?`, strings.ToUpper(symbol))
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrCompanyNotFound
	}

	return nil
}

// ParValue returns the face value for a symbol, falling back to the supplied
// default when the company is unknown. Corporate actions may reference symbols
// ahead of the company master being imported, so a missing company is not an
// error here.
func (r *CompanyRepository) ParValue(symbol string, fallback float64) (float64, error) {
	company, err := r.GetBySymbol(symbol)
	if err != nil {
		if errors.Is(err, apperrors.ErrCompanyNotFound) {
			return fallback, nil
		}
		return 0, err
	}
	if company.ParValue <= 0 {
		return fallback, nil
	}
	return company.ParValue, nil
}

func scanCompany(rows *sql.Rows) (*model.Company, error) {
	var c model.Company
	var sector sql.NullString
	var createdAtStr string

	err := rows.Scan(
		&c.ID,
		&c.Symbol,
		&c.Name,
		&sector,
		&c.ParValue,
		&createdAtStr,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan company table results: %w", err)
	}

	if sector.Valid {
		c.Sector = sector.String
	}

	c.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return nil, err
	}

	return &c, nil
}
