package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// Configure SQLite for testing
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA timezone = 'UTC'",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	// Create schema
	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the production database schema.
func createTestSchema(db *sql.DB) error {
	schema := `
		-- Company reference data
		CREATE TABLE company (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			symbol VARCHAR(16) NOT NULL UNIQUE,
			name VARCHAR(100) NOT NULL,
			sector VARCHAR(50),
			par_value FLOAT NOT NULL DEFAULT 100,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		-- Raw daily price history (append-only)
		CREATE TABLE raw_price (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			symbol VARCHAR(16) NOT NULL,
			date DATE NOT NULL,
			open FLOAT NOT NULL,
			high FLOAT NOT NULL,
			low FLOAT NOT NULL,
			close FLOAT NOT NULL,
			avg_price FLOAT NOT NULL,
			trade_count INTEGER NOT NULL DEFAULT 0,
			volume FLOAT NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT unique_raw_symbol_date UNIQUE (symbol, date)
		);

		CREATE INDEX idx_raw_price_symbol_date ON raw_price (symbol, date);

		-- Adjusted price history (regenerated per symbol on rebuild)
		CREATE TABLE adjusted_price (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			symbol VARCHAR(16) NOT NULL,
			date DATE NOT NULL,
			open FLOAT NOT NULL,
			high FLOAT NOT NULL,
			low FLOAT NOT NULL,
			close FLOAT NOT NULL,
			avg_price FLOAT NOT NULL,
			trade_count INTEGER NOT NULL DEFAULT 0,
			volume FLOAT NOT NULL DEFAULT 0,
			adjustment_factor FLOAT NOT NULL DEFAULT 1,
			week52_high FLOAT NOT NULL DEFAULT 0,
			week52_low FLOAT NOT NULL DEFAULT 0,
			CONSTRAINT unique_adjusted_symbol_date UNIQUE (symbol, date)
		);

		CREATE INDEX idx_adjusted_price_symbol_date ON adjusted_price (symbol, date);

		-- Corporate actions
		CREATE TABLE corporate_action (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			symbol VARCHAR(16) NOT NULL,
			kind VARCHAR(20) NOT NULL,
			rate FLOAT NOT NULL,
			par_value FLOAT,
			book_close DATE NOT NULL,
			adjustment_factor FLOAT,
			records_adjusted INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX idx_corporate_action_symbol_book_close ON corporate_action (symbol, book_close);

		-- Key/value system settings
		CREATE TABLE system_setting (
			key VARCHAR(50) NOT NULL PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`

	_, err := db.Exec(schema)
	return err
}

// CleanDatabase truncates all tables.
// Useful for reusing the same database across multiple tests.
func CleanDatabase(t *testing.T, db *sql.DB) {
	t.Helper()

	tables := []string{
		"corporate_action",
		"adjusted_price",
		"raw_price",
		"company",
		"system_setting",
	}

	for _, table := range tables {
		//nolint:gosec // G202: Table names are from hardcoded slice, no SQL injection risk
		query := "DELETE FROM " + table
		if _, err := db.Exec(query); err != nil {
			t.Fatalf("Failed to clean table %s: %v", table, err)
		}
	}
}

// CountRows returns the number of rows in a table.
// Useful for assertions in tests.
func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var count int
	query := "SELECT COUNT(*) FROM " + table
	err := db.QueryRow(query).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}

	return count
}

// AssertRowCount asserts that a table has the expected number of rows.
//
// Example usage:
//
//	testutil.AssertRowCount(t, db, "raw_price", 30)
func AssertRowCount(t *testing.T, db *sql.DB, table string, expected int) {
	t.Helper()

	actual := CountRows(t, db, table)
	if actual != expected {
		t.Errorf("Expected %d rows in %s, got %d", expected, table, actual)
	}
}
