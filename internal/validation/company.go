package validation

import (
	"strings"

	"github.com/nepseutils/stock-backoffice/internal/api/request"
)

// ValidateCreateCompany validates a company creation request.
//
// Required fields:
//   - symbol: 1-16 letters/digits
//   - name: non-empty
//
// Optional fields (validated if provided):
//   - parValue: must be positive
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateCompany(req request.CreateCompanyRequest) error {
	errors := make(map[string]string)

	if err := ValidateSymbol(req.Symbol); err != nil {
		errors["symbol"] = err.Error()
	}

	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "name is required"
	}

	if req.ParValue < 0 {
		errors["parValue"] = "parValue must be positive"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateUpdateCompany validates a company update request.
// All fields are optional, but if provided, they must meet the same
// constraints as create.
func ValidateUpdateCompany(req request.UpdateCompanyRequest) error {
	errors := make(map[string]string)

	if req.ParValue < 0 {
		errors["parValue"] = "parValue must be positive"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
