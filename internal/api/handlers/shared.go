package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nepseutils/stock-backoffice/internal/repository"
)

// parseJSON decodes a request body into the given type, rejecting unknown fields.
func parseJSON[T any](r *http.Request) (T, error) {
	var payload T

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&payload); err != nil {
		return payload, fmt.Errorf("failed to decode request body: %w", err)
	}

	return payload, nil
}

// parseDateRange reads optional startDate/endDate query parameters
// (YYYY-MM-DD). Missing parameters leave the corresponding bound open.
func parseDateRange(r *http.Request) (startDate, endDate time.Time, err error) {
	if raw := r.URL.Query().Get("startDate"); raw != "" {
		startDate, err = repository.ParseTime(raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid startDate: %w", err)
		}
	}

	if raw := r.URL.Query().Get("endDate"); raw != "" {
		endDate, err = repository.ParseTime(raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid endDate: %w", err)
		}
	}

	return startDate, endDate, nil
}
