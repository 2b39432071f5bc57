package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrCompanyNotFound indicates that no company with the given symbol is listed.
	ErrCompanyNotFound = errors.New("company not found")

	// ErrActionNotFound indicates that a corporate action with the given ID does not exist.
	ErrActionNotFound = errors.New("corporate action not found")

	// ErrPriceNotFound indicates no price record for a specific symbol and date combination.
	ErrPriceNotFound = errors.New("price not found")

	// ErrJobNotFound indicates that a recalculation job with the given ID does not exist.
	ErrJobNotFound = errors.New("recalculation job not found")

	// ErrSettingNotFound indicates that a system setting key has not been stored yet.
	ErrSettingNotFound = errors.New("setting not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrDuplicateSymbol indicates that a company with the same symbol already exists.
	ErrDuplicateSymbol = errors.New("company symbol already exists")

	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrInvalidSymbol indicates that a security symbol is missing or malformed.
	ErrInvalidSymbol = errors.New("invalid security symbol")

	// ErrJobStillRunning indicates that a running recalculation job cannot be cleared.
	ErrJobStillRunning = errors.New("recalculation job is still running")

	// ErrEncryptionKeyNotSet indicates that no fernet key is configured for
	// encrypting secrets at rest.
	ErrEncryptionKeyNotSet = errors.New("encryption key not configured")
)

// Operation failure errors represent system-level failures when retrieving or
// processing data. These errors indicate that an operation failed, but not due
// to missing entities or validation issues.
var (
	// ErrFailedToRetrieveCompanies indicates a failure reading the company table.
	ErrFailedToRetrieveCompanies = errors.New("failed to retrieve companies")

	// ErrFailedToRetrieveActions indicates a failure reading the corporate_action table.
	ErrFailedToRetrieveActions = errors.New("failed to retrieve corporate actions")

	// ErrFailedToRetrievePrices indicates a failure reading price history.
	ErrFailedToRetrievePrices = errors.New("failed to retrieve price history")

	// ErrRecalculationFailed indicates that an adjusted-price rebuild did not complete.
	ErrRecalculationFailed = errors.New("price recalculation failed")
)
