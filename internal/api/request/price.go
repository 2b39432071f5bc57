package request

// RawPriceRow is one trading day of floorsheet summary data in a bulk import.
type RawPriceRow struct {
	Symbol     string  `json:"symbol"`
	Date       string  `json:"date"` // YYYY-MM-DD
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	AvgPrice   float64 `json:"avgPrice"`
	TradeCount int     `json:"tradeCount"`
	Volume     float64 `json:"volume"`
}

// ImportPricesRequest is the payload for a bulk raw-price import.
type ImportPricesRequest struct {
	Prices []RawPriceRow `json:"prices"`
}
