package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/nepseutils/stock-backoffice/internal/api/request"
)

// ValidateCreateAction validates a corporate-action creation request.
// The action kind is deliberately not restricted to the known set: unknown
// kinds are recorded and ignored by the adjustment engine, not rejected here.
//
// Required fields:
//   - symbol: 1-16 letters/digits
//   - kind: non-empty
//   - rate: must be positive
//   - bookClose: must be in YYYY-MM-DD format
//
// Optional fields (validated if provided):
//   - parValue: must be positive
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateAction(req request.CreateActionRequest) error {
	errors := make(map[string]string)

	if err := ValidateSymbol(req.Symbol); err != nil {
		errors["symbol"] = err.Error()
	}

	if strings.TrimSpace(req.Kind) == "" {
		errors["kind"] = "kind is required"
	}

	if req.Rate <= 0 {
		errors["rate"] = "rate must be positive"
	}

	if req.ParValue < 0 {
		errors["parValue"] = "parValue must be positive"
	}

	if strings.TrimSpace(req.BookClose) == "" {
		errors["bookClose"] = "date is required"
	} else if _, err := time.Parse("2006-01-02", req.BookClose); err != nil {
		errors["bookClose"] = err.Error()
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateUpdateAction validates a corporate-action update request.
// All fields are optional. Unlike create, a provided rate may be 0: editing
// an action down to a 0-rate no-op is a supported correction.
func ValidateUpdateAction(req request.UpdateActionRequest) error {
	errors := make(map[string]string)

	if req.Symbol != "" {
		if err := ValidateSymbol(req.Symbol); err != nil {
			errors["symbol"] = err.Error()
		}
	}

	if req.Rate != nil && *req.Rate < 0 {
		errors["rate"] = "rate must not be negative"
	}

	if req.ParValue != nil && *req.ParValue < 0 {
		errors["parValue"] = "parValue must not be negative"
	}

	if req.BookClose != "" {
		if _, err := time.Parse("2006-01-02", req.BookClose); err != nil {
			errors["bookClose"] = err.Error()
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateImportActions validates a bulk corporate-action import request.
func ValidateImportActions(req request.ImportActionsRequest) error {
	if len(req.Actions) == 0 {
		return &Error{Fields: map[string]string{"actions": "at least one action is required"}}
	}

	for i, action := range req.Actions {
		if err := ValidateCreateAction(action); err != nil {
			return &Error{Fields: map[string]string{
				"actions": fmt.Sprintf("row %d: %s", i, err.Error()),
			}}
		}
	}

	return nil
}
