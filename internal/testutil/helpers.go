package testutil

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nepseutils/stock-backoffice/internal/repository"
	"github.com/nepseutils/stock-backoffice/internal/service"
)

func NewTestAdjustmentService(t *testing.T, db *sql.DB) *service.AdjustmentService {
	t.Helper()

	priceRepo := repository.NewPriceRepository(db)
	actionRepo := repository.NewActionRepository(db)
	companyRepo := repository.NewCompanyRepository(db)

	return service.NewAdjustmentService(
		db,
		priceRepo,
		actionRepo,
		companyRepo,
	)
}

func NewTestRecalcService(t *testing.T, db *sql.DB) *service.RecalcService {
	t.Helper()

	priceRepo := repository.NewPriceRepository(db)
	actionRepo := repository.NewActionRepository(db)

	return service.NewRecalcService(
		NewTestAdjustmentService(t, db),
		priceRepo,
		actionRepo,
	)
}

func NewTestActionService(t *testing.T, db *sql.DB) *service.ActionService {
	t.Helper()

	actionRepo := repository.NewActionRepository(db)
	companyRepo := repository.NewCompanyRepository(db)

	return service.NewActionService(
		actionRepo,
		companyRepo,
		NewTestAdjustmentService(t, db),
	)
}

func NewTestPriceService(t *testing.T, db *sql.DB) *service.PriceService {
	t.Helper()

	priceRepo := repository.NewPriceRepository(db)
	actionRepo := repository.NewActionRepository(db)

	return service.NewPriceService(
		priceRepo,
		actionRepo,
		NewTestAdjustmentService(t, db),
	)
}

func NewTestCompanyService(t *testing.T, db *sql.DB) *service.CompanyService {
	t.Helper()

	return service.NewCompanyService(repository.NewCompanyRepository(db))
}

func NewTestSystemService(t *testing.T, db *sql.DB, fernetKey string) *service.SystemService {
	t.Helper()

	s, err := service.NewSystemService(db, fernetKey)
	if err != nil {
		t.Fatalf("Failed to create system service: %v", err)
	}
	return s
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeSymbol generates a ticker symbol for testing.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol("NABIL")
//	// Returns: "NABIL1A2B"
func MakeSymbol(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// FloatPtr returns a pointer to v, for optional numeric request fields.
func FloatPtr(v float64) *float64 {
	return &v
}

// MakeCompanyName generates a unique company name for testing.
func MakeCompanyName(base string) string {
	if base == "" {
		base = "Company"
	}
	return base + " " + randomAlphanumeric(6)
}

// Date parses a 2006-01-02 date string, failing the build on error. Test
// fixtures only.
func Date(t *testing.T, value string) time.Time {
	t.Helper()

	d, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		t.Fatalf("Failed to parse test date %q: %v", value, err)
	}
	return d
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
