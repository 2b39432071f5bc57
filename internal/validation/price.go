package validation

import (
	"fmt"
	"time"

	"github.com/nepseutils/stock-backoffice/internal/api/request"
)

// ValidateImportPrices validates a bulk raw-price import request. Each row
// needs a well-formed symbol, a YYYY-MM-DD date, and internally consistent
// OHLC values (low ≤ open/close ≤ high, all positive).
func ValidateImportPrices(req request.ImportPricesRequest) error {
	if len(req.Prices) == 0 {
		return &Error{Fields: map[string]string{"prices": "at least one price row is required"}}
	}

	for i, row := range req.Prices {
		if err := validatePriceRow(row); err != nil {
			return &Error{Fields: map[string]string{
				"prices": fmt.Sprintf("row %d: %s", i, err.Error()),
			}}
		}
	}

	return nil
}

func validatePriceRow(row request.RawPriceRow) error {
	errors := make(map[string]string)

	if err := ValidateSymbol(row.Symbol); err != nil {
		errors["symbol"] = err.Error()
	}

	if _, err := time.Parse("2006-01-02", row.Date); err != nil {
		errors["date"] = err.Error()
	}

	if row.Open <= 0 || row.High <= 0 || row.Low <= 0 || row.Close <= 0 {
		errors["ohlc"] = "prices must be positive"
	} else if row.Low > row.High || row.Open > row.High || row.Close > row.High ||
		row.Open < row.Low || row.Close < row.Low {
		errors["ohlc"] = "prices must satisfy low <= open/close <= high"
	}

	if row.TradeCount < 0 {
		errors["tradeCount"] = "tradeCount must not be negative"
	}
	if row.Volume < 0 {
		errors["volume"] = "volume must not be negative"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
