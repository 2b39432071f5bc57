package model

import "time"

// RawPrice represents one trading day of floorsheet summary data for a
// security, as delivered by the data-ingestion collaborator. Rows are
// append-only; the adjustment engine only reads them.
type RawPrice struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Date       time.Time `json:"date"`
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	AvgPrice   float64   `json:"avgPrice"`
	TradeCount int       `json:"tradeCount"`
	Volume     float64   `json:"volume"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AdjustedPrice is the derived, corporate-action-adjusted counterpart of a
// RawPrice row. The full series for a symbol is regenerated on every rebuild.
//
// AdjustmentFactor is the cumulative multiplier applied to this specific row
// since the last full reset, not the factor of any single action. Week52High
// and Week52Low are trailing highs/lows over the adjusted series.
type AdjustedPrice struct {
	ID               string    `json:"id"`
	Symbol           string    `json:"symbol"`
	Date             time.Time `json:"date"`
	Open             float64   `json:"open"`
	High             float64   `json:"high"`
	Low              float64   `json:"low"`
	Close            float64   `json:"close"`
	AvgPrice         float64   `json:"avgPrice"`
	TradeCount       int       `json:"tradeCount"`
	Volume           float64   `json:"volume"`
	AdjustmentFactor float64   `json:"adjustmentFactor"`
	Week52High       float64   `json:"week52High"`
	Week52Low        float64   `json:"week52Low"`
}

// PriceImportResult reports the outcome of a bulk raw-price import.
// Raw history is append-only, so rows that already exist for their
// (symbol, date) are skipped rather than overwritten.
type PriceImportResult struct {
	Inserted       int      `json:"inserted"`       // Rows newly added
	Skipped        int      `json:"skipped"`        // Rows already present, left untouched
	SymbolsTouched []string `json:"symbolsTouched"` // Symbols that received at least one new row
	RecalcFailed   []string `json:"recalcFailed"`   // Symbols whose post-import rebuild failed
}
