package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nepseutils/stock-backoffice/internal/model"
)

// PriceRepository provides data access methods for the raw_price and
// adjusted_price tables. Raw history is append-only; the adjusted series is
// exclusively owned by the rebuild path and regenerated wholesale inside a
// transaction.
type PriceRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

func (r *PriceRepository) WithTx(tx *sql.Tx) *PriceRepository {
	return &PriceRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *PriceRepository) getQuerier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Prepare(query string) (*sql.Stmt, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// InsertRaw appends one raw daily price row. Existing rows for the same
// (symbol, date) are left untouched; the return value reports whether the row
// was actually added.
func (r *PriceRepository) InsertRaw(ctx context.Context, p *model.RawPrice) (bool, error) {
	query := `
		INSERT OR IGNORE INTO raw_price
			(id, symbol, date, open, high, low, close, avg_price, trade_count, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.getQuerier().ExecContext(ctx, query,
		p.ID,
		p.Symbol,
		FormatDate(p.Date),
		p.Open,
		p.High,
		p.Low,
		p.Close,
		p.AvgPrice,
		p.TradeCount,
		p.Volume,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert raw price: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

// GetRawPrices retrieves the raw daily series for a symbol, oldest first.
// Zero start/end times leave the corresponding bound open.
func (r *PriceRepository) GetRawPrices(symbol string, startDate, endDate time.Time) ([]model.RawPrice, error) {
	query := `
		SELECT id, symbol, date, open, high, low, close, avg_price, trade_count, volume, created_at
		FROM raw_price
		WHERE symbol = ?
	`
	args := []any{symbol}

	if !startDate.IsZero() {
		query += ` AND date >= ?`
		args = append(args, FormatDate(startDate))
	}
	if !endDate.IsZero() {
		query += ` AND date <= ?`
		args = append(args, FormatDate(endDate))
	}
	query += ` ORDER BY date ASC`

	rows, err := r.getQuerier().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query raw_price table: %w", err)
	}
	defer rows.Close()

	prices := []model.RawPrice{}

	for rows.Next() {
		var p model.RawPrice
		var dateStr, createdAtStr string

		err := rows.Scan(
			&p.ID,
			&p.Symbol,
			&dateStr,
			&p.Open,
			&p.High,
			&p.Low,
			&p.Close,
			&p.AvgPrice,
			&p.TradeCount,
			&p.Volume,
			&createdAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan raw_price table results: %w", err)
		}

		p.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, err
		}
		p.CreatedAt, err = ParseTime(createdAtStr)
		if err != nil {
			return nil, err
		}

		prices = append(prices, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raw_price table: %w", err)
	}

	return prices, nil
}

// ListSymbols returns every symbol present in the raw price history. This set
// is the security universe for batch recalculation.
func (r *PriceRepository) ListSymbols() ([]string, error) {
	rows, err := r.getQuerier().Query(`SELECT DISTINCT symbol FROM raw_price`)
	if err != nil {
		return nil, fmt.Errorf("failed to query raw_price symbols: %w", err)
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan raw_price symbol: %w", err)
		}
		symbols = append(symbols, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raw_price symbols: %w", err)
	}

	return symbols, nil
}

// DeleteAdjusted discards the entire adjusted series for a symbol.
func (r *PriceRepository) DeleteAdjusted(ctx context.Context, symbol string) error {
	_, err := r.getQuerier().ExecContext(ctx,
		`DELETE FROM adjusted_price WHERE symbol = ?`, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete adjusted prices: %w", err)
	}
	return nil
}

// CopyRawToAdjusted seeds the adjusted series with a 1:1 copy of the raw
// series: every adjusted field equals its raw counterpart and the cumulative
// adjustment factor starts at 1. Returns the number of rows copied.
func (r *PriceRepository) CopyRawToAdjusted(ctx context.Context, symbol string) (int, error) {
	raw, err := r.GetRawPrices(symbol, time.Time{}, time.Time{})
	if err != nil {
		return 0, err
	}

	stmt, err := r.getQuerier().Prepare(`
		INSERT INTO adjusted_price
			(id, symbol, date, open, high, low, close, avg_price, trade_count, volume, adjustment_factor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare adjusted insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range raw {
		_, err := stmt.ExecContext(ctx,
			uuid.NewString(),
			p.Symbol,
			FormatDate(p.Date),
			p.Open,
			p.High,
			p.Low,
			p.Close,
			p.AvgPrice,
			p.TradeCount,
			p.Volume,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert adjusted price: %w", err)
		}
	}

	return len(raw), nil
}

// LastAdjustedCloseBefore returns the adjusted closing price of the last
// trading day strictly before the given date. The second return value is
// false when no such row exists.
func (r *PriceRepository) LastAdjustedCloseBefore(ctx context.Context, symbol string, date time.Time) (float64, bool, error) {
	var closePrice float64

	err := r.getQuerier().QueryRowContext(ctx, `
		SELECT close FROM adjusted_price
		WHERE symbol = ? AND date < ?
		ORDER BY date DESC
		LIMIT 1
	`, symbol, FormatDate(date)).Scan(&closePrice)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query last adjusted close: %w", err)
	}

	return closePrice, true, nil
}

// ApplyFactor multiplies the price fields and the cumulative adjustment factor
// of every adjusted row strictly before the given date by factor, as one bulk
// update. Prices are rounded to 2 places (exchange tick precision), the
// cumulative factor to 6. Returns the number of rows touched.
func (r *PriceRepository) ApplyFactor(ctx context.Context, symbol string, before time.Time, factor float64) (int, error) {
	result, err := r.getQuerier().ExecContext(ctx, `
		UPDATE adjusted_price
		SET open = ROUND(open * ?1, 2),
			high = ROUND(high * ?1, 2),
			low = ROUND(low * ?1, 2),
			close = ROUND(close * ?1, 2),
			avg_price = ROUND(avg_price * ?1, 2),
			adjustment_factor = ROUND(adjustment_factor * ?1, 6)
		WHERE symbol = ?2 AND date < ?3
	`, factor, symbol, FormatDate(before))
	if err != nil {
		return 0, fmt.Errorf("failed to apply adjustment factor: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return int(affected), nil
}

// GetAdjustedPrices retrieves the adjusted series for a symbol, oldest first.
// Zero start/end times leave the corresponding bound open.
func (r *PriceRepository) GetAdjustedPrices(symbol string, startDate, endDate time.Time) ([]model.AdjustedPrice, error) {
	query := `
		SELECT id, symbol, date, open, high, low, close, avg_price, trade_count, volume,
			adjustment_factor, week52_high, week52_low
		FROM adjusted_price
		WHERE symbol = ?
	`
	args := []any{symbol}

	if !startDate.IsZero() {
		query += ` AND date >= ?`
		args = append(args, FormatDate(startDate))
	}
	if !endDate.IsZero() {
		query += ` AND date <= ?`
		args = append(args, FormatDate(endDate))
	}
	query += ` ORDER BY date ASC`

	rows, err := r.getQuerier().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query adjusted_price table: %w", err)
	}
	defer rows.Close()

	prices := []model.AdjustedPrice{}

	for rows.Next() {
		var p model.AdjustedPrice
		var dateStr string

		err := rows.Scan(
			&p.ID,
			&p.Symbol,
			&dateStr,
			&p.Open,
			&p.High,
			&p.Low,
			&p.Close,
			&p.AvgPrice,
			&p.TradeCount,
			&p.Volume,
			&p.AdjustmentFactor,
			&p.Week52High,
			&p.Week52Low,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan adjusted_price table results: %w", err)
		}

		p.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, err
		}

		prices = append(prices, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating adjusted_price table: %w", err)
	}

	return prices, nil
}

// RefreshWeek52 recomputes the trailing 52-week high/low for every row of a
// symbol's adjusted series. The window for a row covers the 364 days up to
// and including the row's date, over adjusted highs and lows.
func (r *PriceRepository) RefreshWeek52(ctx context.Context, symbol string) error {
	prices, err := r.GetAdjustedPrices(symbol, time.Time{}, time.Time{})
	if err != nil {
		return err
	}

	stmt, err := r.getQuerier().Prepare(`
		UPDATE adjusted_price SET week52_high = ?, week52_low = ? WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare week52 update: %w", err)
	}
	defer stmt.Close()

	windowStart := 0
	var high, low float64

	for i, p := range prices {
		cutoff := p.Date.AddDate(0, 0, -364)
		for windowStart <= i && prices[windowStart].Date.Before(cutoff) {
			windowStart++
		}

		// The window rarely shrinks from the front by more than a few rows per
		// step, but a dropped row may have held the extreme, so recompute.
		high, low = prices[windowStart].High, prices[windowStart].Low
		for _, w := range prices[windowStart+1 : i+1] {
			if w.High > high {
				high = w.High
			}
			if w.Low < low {
				low = w.Low
			}
		}

		if _, err := stmt.ExecContext(ctx, high, low, p.ID); err != nil {
			return fmt.Errorf("failed to update week52 range: %w", err)
		}
	}

	return nil
}
