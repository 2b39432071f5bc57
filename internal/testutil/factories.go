package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/nepseutils/stock-backoffice/internal/model"
)

// CompanyBuilder provides a fluent interface for creating test companies.
//
// Example usage:
//
//	// Simple creation with defaults
//	company := testutil.NewCompany().Build(t, db)
//
//	// Customized company
//	company := testutil.NewCompany().
//	    WithSymbol("NABIL").
//	    WithParValue(10).
//	    Build(t, db)
type CompanyBuilder struct {
	ID       string
	Symbol   string
	Name     string
	Sector   string
	ParValue float64
}

// NewCompany creates a CompanyBuilder with sensible defaults.
func NewCompany() *CompanyBuilder {
	return &CompanyBuilder{
		ID:       MakeID(),
		Symbol:   MakeSymbol("TEST"),
		Name:     MakeCompanyName("Test Company"),
		Sector:   "Commercial Banks",
		ParValue: 100,
	}
}

// WithID sets a custom ID.
func (b *CompanyBuilder) WithID(id string) *CompanyBuilder {
	b.ID = id
	return b
}

// WithSymbol sets a custom symbol.
func (b *CompanyBuilder) WithSymbol(symbol string) *CompanyBuilder {
	b.Symbol = symbol
	return b
}

// WithName sets a custom name.
func (b *CompanyBuilder) WithName(name string) *CompanyBuilder {
	b.Name = name
	return b
}

// WithSector sets the sector.
func (b *CompanyBuilder) WithSector(sector string) *CompanyBuilder {
	b.Sector = sector
	return b
}

// WithParValue sets the face value used for right and cash percentage math.
func (b *CompanyBuilder) WithParValue(par float64) *CompanyBuilder {
	b.ParValue = par
	return b
}

// Build creates the company in the database and returns it.
func (b *CompanyBuilder) Build(t *testing.T, db *sql.DB) model.Company {
	t.Helper()

	query := `
		INSERT INTO company (id, symbol, name, sector, par_value)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Symbol, b.Name, b.Sector, b.ParValue)
	if err != nil {
		t.Fatalf("Failed to create test company: %v", err)
	}

	return model.Company{
		ID:       b.ID,
		Symbol:   b.Symbol,
		Name:     b.Name,
		Sector:   b.Sector,
		ParValue: b.ParValue,
	}
}

// CreateCompany creates a company with the given symbol and default values.
//
// Example usage:
//
//	company := testutil.CreateCompany(t, db, "NABIL")
func CreateCompany(t *testing.T, db *sql.DB, symbol string) model.Company {
	t.Helper()
	return NewCompany().WithSymbol(symbol).Build(t, db)
}

// RawPriceBuilder provides a fluent interface for creating raw price rows.
//
// Example usage:
//
//	price := testutil.NewRawPrice("NABIL").
//	    WithDate(testutil.Date("2025-01-15")).
//	    WithClose(950).
//	    Build(t, db)
type RawPriceBuilder struct {
	ID         string
	Symbol     string
	Date       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	AvgPrice   float64
	TradeCount int
	Volume     float64
}

// NewRawPrice creates a RawPriceBuilder with defaults.
func NewRawPrice(symbol string) *RawPriceBuilder {
	return &RawPriceBuilder{
		ID:         MakeID(),
		Symbol:     symbol,
		Date:       time.Now().UTC(),
		Open:       100,
		High:       100,
		Low:        100,
		Close:      100,
		AvgPrice:   100,
		TradeCount: 50,
		Volume:     1000,
	}
}

// WithDate sets the trading date.
func (b *RawPriceBuilder) WithDate(date time.Time) *RawPriceBuilder {
	b.Date = date
	return b
}

// WithClose sets the closing price and keeps the other fields consistent
// (flat day at the closing price).
func (b *RawPriceBuilder) WithClose(closePrice float64) *RawPriceBuilder {
	b.Open = closePrice
	b.High = closePrice
	b.Low = closePrice
	b.Close = closePrice
	b.AvgPrice = closePrice
	return b
}

// WithOHLC sets all four price fields individually.
func (b *RawPriceBuilder) WithOHLC(open, high, low, closePrice float64) *RawPriceBuilder {
	b.Open = open
	b.High = high
	b.Low = low
	b.Close = closePrice
	b.AvgPrice = (high + low) / 2
	return b
}

// WithVolume sets the traded volume.
func (b *RawPriceBuilder) WithVolume(volume float64) *RawPriceBuilder {
	b.Volume = volume
	return b
}

// Build creates the raw price row in the database and returns it.
func (b *RawPriceBuilder) Build(t *testing.T, db *sql.DB) model.RawPrice {
	t.Helper()

	query := `
		INSERT INTO raw_price (id, symbol, date, open, high, low, close, avg_price, trade_count, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Symbol, b.Date.Format("2006-01-02"),
		b.Open, b.High, b.Low, b.Close, b.AvgPrice, b.TradeCount, b.Volume)
	if err != nil {
		t.Fatalf("Failed to create raw price: %v", err)
	}

	return model.RawPrice{
		ID:         b.ID,
		Symbol:     b.Symbol,
		Date:       b.Date,
		Open:       b.Open,
		High:       b.High,
		Low:        b.Low,
		Close:      b.Close,
		AvgPrice:   b.AvgPrice,
		TradeCount: b.TradeCount,
		Volume:     b.Volume,
	}
}

// CreateFlatSeries inserts consecutive daily raw rows for symbol, all at the
// same price, starting at start. Weekends are not skipped; the engine does not
// care about calendars.
func CreateFlatSeries(t *testing.T, db *sql.DB, symbol string, start time.Time, days int, price float64) {
	t.Helper()

	for i := 0; i < days; i++ {
		NewRawPrice(symbol).
			WithDate(start.AddDate(0, 0, i)).
			WithClose(price).
			Build(t, db)
	}
}

// ActionBuilder provides a fluent interface for creating corporate actions.
//
// Example usage:
//
//	action := testutil.NewAction("NABIL", "bonus").
//	    WithRate(10).
//	    WithBookClose(testutil.Date("2025-02-01")).
//	    Build(t, db)
type ActionBuilder struct {
	ID        string
	Symbol    string
	Kind      string
	Rate      float64
	ParValue  float64
	BookClose time.Time
}

// NewAction creates an ActionBuilder with defaults.
func NewAction(symbol, kind string) *ActionBuilder {
	return &ActionBuilder{
		ID:        MakeID(),
		Symbol:    symbol,
		Kind:      kind,
		Rate:      10,
		BookClose: time.Now().UTC().AddDate(0, 0, -1),
	}
}

// WithRate sets the percentage rate.
func (b *ActionBuilder) WithRate(rate float64) *ActionBuilder {
	b.Rate = rate
	return b
}

// WithParValue sets an action-level par value override.
func (b *ActionBuilder) WithParValue(par float64) *ActionBuilder {
	b.ParValue = par
	return b
}

// WithBookClose sets the effective date.
func (b *ActionBuilder) WithBookClose(date time.Time) *ActionBuilder {
	b.BookClose = date
	return b
}

// Build creates the corporate action in the database and returns it.
func (b *ActionBuilder) Build(t *testing.T, db *sql.DB) model.CorporateAction {
	t.Helper()

	query := `
		INSERT INTO corporate_action (id, symbol, kind, rate, par_value, book_close)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var par any
	if b.ParValue != 0 {
		par = b.ParValue
	}

	_, err := db.Exec(query, b.ID, b.Symbol, b.Kind, b.Rate, par, b.BookClose.Format("2006-01-02"))
	if err != nil {
		t.Fatalf("Failed to create corporate action: %v", err)
	}

	return model.CorporateAction{
		ID:        b.ID,
		Symbol:    b.Symbol,
		Kind:      b.Kind,
		Rate:      b.Rate,
		ParValue:  b.ParValue,
		BookClose: b.BookClose,
	}
}
